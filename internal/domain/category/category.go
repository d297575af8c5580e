package category

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
)

var (
	// ErrNameTaken is returned when a category name is already used.
	ErrNameTaken = errors.New("category name already exists")
	// ErrInUse is returned by Delete when events still reference the category.
	ErrInUse = errors.New("category has related events")
)

// Category groups events by topic.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return apperror.Validation("Category name cannot be empty")
	}
	if n > 50 {
		return apperror.Validation("Category name must be at most 50 characters")
	}
	return nil
}

// Repository defines persistence for categories.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, categoryID int64) (*Category, error)
	List(ctx context.Context, limit, offset int) ([]*Category, error)
	Delete(ctx context.Context, categoryID int64) (bool, error)
	HasEvents(ctx context.Context, categoryID int64) (bool, error)
}
