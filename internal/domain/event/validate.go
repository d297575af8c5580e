package event

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
)

const (
	// MinCreateLead is how far ahead an event must start when created or re-dated by its owner.
	MinCreateLead = 2 * time.Hour
	// MinPublishLead is how far ahead an event must start when an admin publishes it.
	MinPublishLead = time.Hour
)

type textBound struct {
	field string
	min   int
	max   int
}

var (
	titleBound       = textBound{field: "Title", min: 3, max: 120}
	annotationBound  = textBound{field: "Annotation", min: 20, max: 2000}
	descriptionBound = textBound{field: "Description", min: 20, max: 7000}
)

func (b textBound) check(value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return apperror.Validation("%s cannot be empty", b.field)
	}
	if n := utf8.RuneCountInString(v); n < b.min || n > b.max {
		return apperror.Validation("%s must be between %d and %d characters", b.field, b.min, b.max)
	}
	return nil
}

// ValidateParticipantLimit rejects negative limits.
func ValidateParticipantLimit(limit int) error {
	if limit < 0 {
		return apperror.Validation("Participant limit cannot be negative")
	}
	return nil
}

// ValidateEventDate requires eventDate to be at least lead after now.
func ValidateEventDate(eventDate, now time.Time, lead time.Duration) error {
	if eventDate.Before(now.Add(lead)) {
		return apperror.Validation("Event date must be at least %s from now", humanLead(lead))
	}
	return nil
}

// ValidatePublishDate is the admin publication rule.
func ValidatePublishDate(eventDate, now time.Time) error {
	if eventDate.Before(now.Add(MinPublishLead)) {
		return apperror.Validation("Cannot publish event because it starts in less than 1 hour")
	}
	return nil
}

// ValidateNewEvent checks every field of a creation request.
func ValidateNewEvent(n NewEvent, now time.Time) error {
	if err := annotationBound.check(n.Annotation); err != nil {
		return err
	}
	if err := descriptionBound.check(n.Description); err != nil {
		return err
	}
	if err := titleBound.check(n.Title); err != nil {
		return err
	}
	if err := ValidateParticipantLimit(n.ParticipantLimit); err != nil {
		return err
	}
	return ValidateEventDate(n.EventDate, now, MinCreateLead)
}

// ValidatePatch checks only the fields present in p. dateLead is the minimum
// lead time for a new event date.
func ValidatePatch(p Patch, now time.Time, dateLead time.Duration) error {
	if p.EventDate != nil {
		if err := ValidateEventDate(*p.EventDate, now, dateLead); err != nil {
			return err
		}
	}
	if p.Annotation != nil {
		if err := annotationBound.check(*p.Annotation); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := descriptionBound.check(*p.Description); err != nil {
			return err
		}
	}
	if p.Title != nil {
		if err := titleBound.check(*p.Title); err != nil {
			return err
		}
	}
	if p.ParticipantLimit != nil {
		if err := ValidateParticipantLimit(*p.ParticipantLimit); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePage checks from/size pagination parameters.
func ValidatePage(from, size int) error {
	if from < 0 {
		return apperror.Validation("From must be non-negative")
	}
	if size <= 0 {
		return apperror.Validation("Size must be positive")
	}
	return nil
}

func humanLead(d time.Duration) string {
	if d%time.Hour != 0 {
		return d.String()
	}
	if h := int(d / time.Hour); h != 1 {
		return strconv.Itoa(h) + " hours"
	}
	return "1 hour"
}
