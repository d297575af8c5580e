package participation

import (
	"context"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/audit"
	"github.com/explore-with-me/ewm-service/internal/domain/request"
)

// BulkResult lists the requests changed by UpdateStatuses.
type BulkResult struct {
	Confirmed []*request.Request `json:"confirmedRequests"`
	Rejected  []*request.Request `json:"rejectedRequests"`
}

// UpdateStatuses applies an organizer decision to a batch of pending
// requests, in input order.
//
// A batch that would confirm into an already full event fails before any
// change. A batch that starts with free seats confirms until the limit is
// reached and rejects the remainder. Any request that is not PENDING aborts
// the whole batch and nothing is stored.
func (s *Service) UpdateStatuses(ctx context.Context, initiatorID, eventID int64, requestIDs []int64, target request.Decision) (*BulkResult, error) {
	if target != request.DecisionConfirm && target != request.DecisionReject {
		return nil, apperror.Validation("Status must be CONFIRMED or REJECTED, got %s", target)
	}
	ids := uniqueIDs(requestIDs)
	var result *BulkResult

	err := s.locker.WithEventLock(ctx, eventID, func(ctx context.Context) error {
		out := &BulkResult{
			Confirmed: []*request.Request{},
			Rejected:  []*request.Request{},
		}
		ev, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := request.AuthorizeModerator(initiatorID, ev); err != nil {
			return err
		}

		loaded, err := s.requests.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[int64]*request.Request, len(loaded))
		for _, r := range loaded {
			byID[r.ID] = r
		}
		batch := make([]*request.Request, 0, len(ids))
		for _, id := range ids {
			r, ok := byID[id]
			if !ok {
				return apperror.NotFound("Request with id=%d was not found", id)
			}
			if err := request.EnsureBelongs(r, ev); err != nil {
				return err
			}
			batch = append(batch, r)
		}

		confirmed, err := s.ledger.ConfirmedCount(ctx, ev.ID)
		if err != nil {
			return err
		}
		if target == request.DecisionConfirm && ev.HasLimit() && confirmed >= ev.ParticipantLimit {
			return apperror.Conflict("The participant limit has been reached")
		}

		for _, r := range batch {
			if !r.IsPending() {
				return apperror.Conflict("Request must be in PENDING status, request id=%d is %s", r.ID, r.Status)
			}
			if target == request.DecisionReject || (ev.HasLimit() && confirmed >= ev.ParticipantLimit) {
				if err := r.Reject(); err != nil {
					return err
				}
				out.Rejected = append(out.Rejected, r)
				continue
			}
			if err := r.Confirm(); err != nil {
				return err
			}
			out.Confirmed = append(out.Confirmed, r)
			confirmed++
		}

		if len(batch) > 0 {
			if err := s.requests.SaveAll(ctx, batch); err != nil {
				return err
			}
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	actor := audit.UserActor(initiatorID)
	for _, r := range result.Confirmed {
		s.record(ctx, r, audit.ActionConfirm, actor, request.StatusPending, "bulk status update")
		s.publish(r, r.RequesterID)
	}
	for _, r := range result.Rejected {
		s.record(ctx, r, audit.ActionReject, actor, request.StatusPending, "bulk status update")
		s.publish(r, r.RequesterID)
	}
	s.logger.Info().
		Int64("eventId", eventID).
		Str("target", string(target)).
		Int("confirmed", len(result.Confirmed)).
		Int("rejected", len(result.Rejected)).
		Msg("participation requests updated")
	return result, nil
}

// uniqueIDs drops repeated ids, keeping the first occurrence.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
