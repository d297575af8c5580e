package compilation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
)

// MaxTitleLength bounds a trimmed compilation title.
const MaxTitleLength = 50

// Compilation is a curated, ordered selection of events.
type Compilation struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Pinned   bool    `json:"pinned"`
	EventIDs []int64 `json:"events"`
}

// Patch is a partial edit; nil fields are left unchanged.
type Patch struct {
	Title    *string
	Pinned   *bool
	EventIDs *[]int64
}

func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return apperror.Validation("Title cannot be empty")
	}
	if n > MaxTitleLength {
		return apperror.Validation("Title must be between 1 and %d characters", MaxTitleLength)
	}
	return nil
}

// Repository defines persistence for compilations. EventIDs are stored in
// order; GetByID returns nil, nil when the compilation does not exist.
type Repository interface {
	Create(ctx context.Context, c *Compilation) error
	Update(ctx context.Context, c *Compilation) error
	Delete(ctx context.Context, compilationID int64) (bool, error)
	GetByID(ctx context.Context, compilationID int64) (*Compilation, error)
	List(ctx context.Context, pinned *bool, limit, offset int) ([]*Compilation, error)
}
