package request

import (
	"strings"
	"time"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
)

// Status represents participation request status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCanceled  Status = "CANCELED"
)

// Decision is an organizer verdict applied to pending requests.
type Decision Status

const (
	DecisionConfirm = Decision(StatusConfirmed)
	DecisionReject  = Decision(StatusRejected)
)

func (d *Decision) UnmarshalText(b []byte) error {
	switch v := Decision(strings.ToUpper(string(b))); v {
	case DecisionConfirm, DecisionReject:
		*d = v
		return nil
	default:
		return apperror.Validation("Status must be CONFIRMED or REJECTED, got %s", string(b))
	}
}

// Request is one user's intent to attend one event.
type Request struct {
	ID          int64     `json:"id"`
	EventID     int64     `json:"event"`
	RequesterID int64     `json:"requester"`
	Status      Status    `json:"status"`
	Created     time.Time `json:"created"`
}

// New builds a request for ev. Events without moderation or without a
// participant limit admit requests immediately.
func New(ev *event.Event, requesterID int64, now time.Time) *Request {
	status := StatusPending
	if ev.AutoConfirms() {
		status = StatusConfirmed
	}
	return &Request{
		EventID:     ev.ID,
		RequesterID: requesterID,
		Status:      status,
		Created:     now,
	}
}

// IsPending reports whether the request awaits a decision.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Confirm admits a pending request.
func (r *Request) Confirm() error {
	if !r.IsPending() {
		return apperror.Conflict("Request must be in PENDING status")
	}
	r.Status = StatusConfirmed
	return nil
}

// Reject declines a pending request.
func (r *Request) Reject() error {
	if !r.IsPending() {
		return apperror.Conflict("Request must be in PENDING status")
	}
	r.Status = StatusRejected
	return nil
}

// Cancel withdraws the request from any status. It reports whether the
// status changed.
func (r *Request) Cancel() bool {
	if r.Status == StatusCanceled {
		return false
	}
	r.Status = StatusCanceled
	return true
}
