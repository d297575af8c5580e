package rating

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"errors"
)

// ErrDuplicate is returned by Create when the user already rated the event.
var ErrDuplicate = errors.New("rating already exists")

// Repository defines persistence for event ratings. Getters return nil, nil
// when nothing matches.
type Repository interface {
	Create(ctx context.Context, r *Rating) error
	Update(ctx context.Context, r *Rating) error
	Delete(ctx context.Context, ratingID int64) error
	GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*Rating, error)
	ListByUser(ctx context.Context, userID int64) ([]*Rating, error)
	ScoreOfEvent(ctx context.Context, eventID int64) (likes, dislikes int64, err error)
	// TopEvents ranks published events by score, unrated ones included.
	TopEvents(ctx context.Context, limit, offset int) ([]EventScore, error)
	// TopAuthors ranks users that initiated at least one event.
	TopAuthors(ctx context.Context, limit, offset int) ([]AuthorScore, error)
}
