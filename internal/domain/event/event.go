package event

import (
	"strings"
	"time"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
)

// State represents the publication state of an event.
type State string

const (
	StatePending   State = "PENDING"
	StatePublished State = "PUBLISHED"
	StateCanceled  State = "CANCELED"
)

// ParseState converts a query/body value into a State.
func ParseState(s string) (State, error) {
	switch st := State(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatePending, StatePublished, StateCanceled:
		return st, nil
	default:
		return "", apperror.Validation("Unknown event state: %s", s)
	}
}

// Sort is the ordering a public reader asks for.
type Sort string

const (
	SortEventDate Sort = "EVENT_DATE"
	SortViews     Sort = "VIEWS"
)

// ParseSort accepts an empty value, EVENT_DATE or VIEWS.
func ParseSort(s string) (Sort, error) {
	switch v := Sort(strings.ToUpper(strings.TrimSpace(s))); v {
	case "", SortEventDate, SortViews:
		return v, nil
	default:
		return "", apperror.Validation("Unknown sort: %s", s)
	}
}

// UserStateAction is the state change an initiator may request while editing.
type UserStateAction string

const (
	ActionSendToReview UserStateAction = "SEND_TO_REVIEW"
	ActionCancelReview UserStateAction = "CANCEL_REVIEW"
)

func (a *UserStateAction) UnmarshalText(b []byte) error {
	switch v := UserStateAction(b); v {
	case ActionSendToReview, ActionCancelReview:
		*a = v
		return nil
	default:
		return apperror.Validation("Invalid state action: %s", string(b))
	}
}

// AdminStateAction is the moderation decision of an administrator.
type AdminStateAction string

const (
	ActionPublishEvent AdminStateAction = "PUBLISH_EVENT"
	ActionRejectEvent  AdminStateAction = "REJECT_EVENT"
)

func (a *AdminStateAction) UnmarshalText(b []byte) error {
	switch v := AdminStateAction(b); v {
	case ActionPublishEvent, ActionRejectEvent:
		*a = v
		return nil
	default:
		return apperror.Validation("Invalid state action: %s", string(b))
	}
}

// Location is a point on the map.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is a proposed or live event owned by its initiator.
type Event struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	CategoryID        int64      `json:"category"`
	InitiatorID       int64      `json:"initiator"`
	EventDate         time.Time  `json:"eventDate"`
	CreatedOn         time.Time  `json:"createdOn"`
	PublishedOn       *time.Time `json:"publishedOn,omitempty"`
	State             State      `json:"state"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participantLimit"`
	RequestModeration bool       `json:"requestModeration"`
	Location          Location   `json:"location"`
}

var transitions = map[State][]State{
	StatePending:   {StatePending, StatePublished, StateCanceled},
	StateCanceled:  {StatePending, StateCanceled},
	StatePublished: {},
}

// CanTransitionTo validates an event state transition.
func (e *Event) CanTransitionTo(target State) bool {
	for _, s := range transitions[e.State] {
		if s == target {
			return true
		}
	}
	return false
}

// IsInitiator reports whether userID owns the event.
func (e *Event) IsInitiator(userID int64) bool {
	return e.InitiatorID == userID
}

// HasLimit reports whether the event caps confirmed participants.
func (e *Event) HasLimit() bool {
	return e.ParticipantLimit > 0
}

// AutoConfirms reports whether new requests skip organizer review.
func (e *Event) AutoConfirms() bool {
	return !e.RequestModeration || e.ParticipantLimit == 0
}

// EnsureEditableByOwner rejects owner edits of published events.
func (e *Event) EnsureEditableByOwner() error {
	if e.State == StatePublished {
		return apperror.Conflict("Only pending or canceled events can be changed")
	}
	return nil
}

// Publish moves a pending event to PUBLISHED and stamps publishedOn.
func (e *Event) Publish(now time.Time) error {
	if e.State != StatePending || !e.CanTransitionTo(StatePublished) {
		return apperror.Conflict("Cannot publish the event because it's not in the right state: %s", e.State)
	}
	if err := ValidatePublishDate(e.EventDate, now); err != nil {
		return err
	}
	published := now
	e.State = StatePublished
	e.PublishedOn = &published
	return nil
}

// Reject cancels an event that has not been published.
func (e *Event) Reject() error {
	if !e.CanTransitionTo(StateCanceled) {
		return apperror.Conflict("Cannot reject the event because it's already published")
	}
	e.State = StateCanceled
	return nil
}

// ApplyUserAction applies an initiator state action.
func (e *Event) ApplyUserAction(action UserStateAction) error {
	if err := e.EnsureEditableByOwner(); err != nil {
		return err
	}
	switch action {
	case ActionSendToReview:
		e.State = StatePending
	case ActionCancelReview:
		e.State = StateCanceled
	default:
		return apperror.Validation("Invalid state action: %s", action)
	}
	return nil
}

// ApplyAdminAction applies an administrator state action at time now.
func (e *Event) ApplyAdminAction(action AdminStateAction, now time.Time) error {
	switch action {
	case ActionPublishEvent:
		return e.Publish(now)
	case ActionRejectEvent:
		return e.Reject()
	default:
		return apperror.Validation("Invalid state action: %s", action)
	}
}

// NewEvent is the input for event creation.
type NewEvent struct {
	Title             string
	Annotation        string
	Description       string
	CategoryID        int64
	EventDate         time.Time
	Location          Location
	Paid              bool
	ParticipantLimit  int
	RequestModeration *bool
}

// Build validates n and returns a PENDING event owned by initiatorID.
func (n NewEvent) Build(initiatorID int64, now time.Time) (*Event, error) {
	if err := ValidateNewEvent(n, now); err != nil {
		return nil, err
	}
	moderation := true
	if n.RequestModeration != nil {
		moderation = *n.RequestModeration
	}
	return &Event{
		Title:             strings.TrimSpace(n.Title),
		Annotation:        strings.TrimSpace(n.Annotation),
		Description:       strings.TrimSpace(n.Description),
		CategoryID:        n.CategoryID,
		InitiatorID:       initiatorID,
		EventDate:         n.EventDate.UTC(),
		CreatedOn:         now,
		State:             StatePending,
		Paid:              n.Paid,
		ParticipantLimit:  n.ParticipantLimit,
		RequestModeration: moderation,
		Location:          n.Location,
	}, nil
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title             *string
	Annotation        *string
	Description       *string
	CategoryID        *int64
	EventDate         *time.Time
	Location          *Location
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
}

// Apply copies the present fields of p onto e.
func (e *Event) Apply(p Patch) {
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Annotation != nil {
		e.Annotation = strings.TrimSpace(*p.Annotation)
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.EventDate != nil {
		e.EventDate = p.EventDate.UTC()
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.ParticipantLimit != nil {
		e.ParticipantLimit = *p.ParticipantLimit
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
}
