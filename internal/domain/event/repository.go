package event

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,Locker

import (
	"context"
	"time"
)

// Order is the sort order of an event listing.
type Order int

const (
	// OrderByID lists events by ascending id.
	OrderByID Order = iota
	// OrderByEventDateDesc lists the latest events first, ties by id.
	OrderByEventDateDesc
)

// Filter controls event listing. Empty slices and nil pointers match everything.
type Filter struct {
	IDs          []int64
	InitiatorIDs []int64
	States       []State
	CategoryIDs  []int64
	Text         *string
	Paid         *bool
	RangeStart   *time.Time
	RangeEnd     *time.Time
	Order        Order
}

// Repository defines persistence for events. Getters return nil, nil when
// the event does not exist.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, eventID int64) (*Event, error)
	GetByIDAndInitiator(ctx context.Context, eventID, initiatorID int64) (*Event, error)
	// List returns matching events; a non-positive limit returns all of them.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Event, error)
}

// Locker serializes work on a single event. fn runs with a context that
// carries the lock scope; every repository call made with that context is
// part of one atomic unit that is discarded when fn returns an error.
type Locker interface {
	WithEventLock(ctx context.Context, eventID int64, fn func(ctx context.Context) error) error
}
