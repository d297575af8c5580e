package request

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"errors"
)

// ErrDuplicate is returned by Create when the (event, requester) pair exists.
var ErrDuplicate = errors.New("participation request already exists")

// Repository defines persistence for participation requests. Getters return
// nil, nil when the request does not exist. CountByEventAndStatus reflects
// committed state plus writes made in the caller's lock scope.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, requestID int64) (*Request, error)
	GetByEventAndRequester(ctx context.Context, eventID, requesterID int64) (*Request, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*Request, error)
	ListByEventAndStatus(ctx context.Context, eventID int64, status Status) ([]*Request, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]*Request, error)
	ListByIDs(ctx context.Context, requestIDs []int64) ([]*Request, error)
	CountByEventAndStatus(ctx context.Context, eventID int64, status Status) (int, error)
	CountConfirmedByEvents(ctx context.Context, eventIDs []int64) (map[int64]int, error)
	SaveAll(ctx context.Context, requests []*Request) error
}
