package user

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"errors"
)

var (
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInUse is returned by Delete when events, requests or ratings still
	// reference the user.
	ErrInUse = errors.New("user has related events, requests or ratings")
)

// Repository defines persistence for users.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID int64) (*User, error)
	List(ctx context.Context, ids []int64, limit, offset int) ([]*User, error)
	Delete(ctx context.Context, userID int64) (bool, error)
}
