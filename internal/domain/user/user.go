package user

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
)

// User is a registered participant or organizer.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return apperror.Validation("Name cannot be empty")
	}
	if n < 2 || n > 250 {
		return apperror.Validation("Name must be between 2 and 250 characters")
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return apperror.Validation("Email cannot be empty")
	}
	if n := utf8.RuneCountInString(email); n < 6 || n > 254 {
		return apperror.Validation("Email must be between 6 and 254 characters")
	}
	if !emailPattern.MatchString(email) {
		return apperror.Validation("Email is not a valid address")
	}
	return nil
}
