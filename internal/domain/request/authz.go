package request

import (
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
)

// AuthorizeJoin checks that requesterID may ask to join ev.
func AuthorizeJoin(requesterID int64, ev *event.Event) error {
	if ev.IsInitiator(requesterID) {
		return apperror.Conflict("Event initiator cannot create request for their own event")
	}
	if ev.State != event.StatePublished {
		return apperror.Conflict("Cannot participate in unpublished event")
	}
	return nil
}

// AuthorizeRequester checks that actorID owns r.
func AuthorizeRequester(actorID int64, r *Request) error {
	if r.RequesterID != actorID {
		return apperror.Validation("User can only cancel their own requests")
	}
	return nil
}

// AuthorizeModerator checks that actorID initiated ev.
func AuthorizeModerator(actorID int64, ev *event.Event) error {
	if !ev.IsInitiator(actorID) {
		return apperror.Validation("Only event initiator can manage requests")
	}
	return nil
}

// EnsureBelongs checks that r was made for ev.
func EnsureBelongs(r *Request, ev *event.Event) error {
	if r.EventID != ev.ID {
		return apperror.Validation("Request id=%d doesn't belong to event id=%d", r.ID, ev.ID)
	}
	return nil
}
