package participation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	appAudit "github.com/explore-with-me/ewm-service/internal/application/audit"
	"github.com/explore-with-me/ewm-service/internal/application/capacity"
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/audit"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
	"github.com/explore-with-me/ewm-service/internal/domain/notification"
	"github.com/explore-with-me/ewm-service/internal/domain/request"
	"github.com/explore-with-me/ewm-service/internal/domain/user"
)

// Service handles participation requests.
type Service struct {
	events    event.Repository
	requests  request.Repository
	users     user.Repository
	locker    event.Locker
	ledger    *capacity.Ledger
	auditSvc  *appAudit.Service
	publisher notification.Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

// NewService creates a participation service. auditSvc and publisher may be nil.
func NewService(
	events event.Repository,
	requests request.Repository,
	users user.Repository,
	locker event.Locker,
	ledger *capacity.Ledger,
	auditSvc *appAudit.Service,
	publisher notification.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		events:    events,
		requests:  requests,
		users:     users,
		locker:    locker,
		ledger:    ledger,
		auditSvc:  auditSvc,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With().Str("service", "participation").Logger(),
	}
}

// Create submits a request of requesterID to join eventID.
func (s *Service) Create(ctx context.Context, requesterID, eventID int64) (*request.Request, error) {
	if err := s.ensureUser(ctx, requesterID); err != nil {
		return nil, err
	}

	var (
		created     *request.Request
		initiatorID int64
	)
	err := s.locker.WithEventLock(ctx, eventID, func(ctx context.Context) error {
		ev, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := request.AuthorizeJoin(requesterID, ev); err != nil {
			return err
		}
		existing, err := s.requests.GetByEventAndRequester(ctx, eventID, requesterID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict("Request for event id=%d already exists", eventID)
		}
		ok, err := s.ledger.HasCapacity(ctx, ev)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.Conflict("The participant limit has been reached")
		}

		r := request.New(ev, requesterID, s.now())
		if err := s.requests.Create(ctx, r); err != nil {
			if errors.Is(err, request.ErrDuplicate) {
				return apperror.Conflict("Request for event id=%d already exists", eventID)
			}
			return err
		}
		created = r
		initiatorID = ev.InitiatorID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, created, audit.ActionCreate, audit.UserActor(requesterID), "", "request submitted")
	s.publish(created, initiatorID, requesterID)
	s.logger.Info().
		Int64("requestId", created.ID).
		Int64("eventId", eventID).
		Int64("requesterId", requesterID).
		Str("status", string(created.Status)).
		Msg("participation request created")
	return created, nil
}

// Cancel withdraws requestID on behalf of its requester. Cancelling twice is
// not an error.
func (s *Service) Cancel(ctx context.Context, requesterID, requestID int64) (*request.Request, error) {
	if err := s.ensureUser(ctx, requesterID); err != nil {
		return nil, err
	}
	r, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := request.AuthorizeRequester(requesterID, r); err != nil {
		return nil, err
	}

	var (
		previous request.Status
		changed  bool
	)
	err = s.locker.WithEventLock(ctx, r.EventID, func(ctx context.Context) error {
		current, err := s.loadRequest(ctx, requestID)
		if err != nil {
			return err
		}
		previous = current.Status
		if changed = current.Cancel(); !changed {
			r = current
			return nil
		}
		if err := s.requests.SaveAll(ctx, []*request.Request{current}); err != nil {
			return err
		}
		r = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.record(ctx, r, audit.ActionCancel, audit.UserActor(requesterID), previous, "request canceled by requester")
		s.publish(r, requesterID)
		s.logger.Info().Int64("requestId", r.ID).Str("from", string(previous)).Msg("participation request canceled")
	}
	return r, nil
}

// Confirm admits one pending request. When the confirmation fills the event,
// every other pending request of the event is rejected.
func (s *Service) Confirm(ctx context.Context, initiatorID, eventID, requestID int64) (*request.Request, error) {
	var (
		confirmed *request.Request
		cascaded  []*request.Request
	)
	err := s.locker.WithEventLock(ctx, eventID, func(ctx context.Context) error {
		cascaded = nil
		ev, r, err := s.loadForModeration(ctx, initiatorID, eventID, requestID)
		if err != nil {
			return err
		}
		if !r.IsPending() {
			return apperror.Conflict("Request must be in PENDING status")
		}
		ok, err := s.ledger.HasCapacity(ctx, ev)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.Conflict("The participant limit has been reached")
		}
		if err := r.Confirm(); err != nil {
			return err
		}
		if err := s.requests.SaveAll(ctx, []*request.Request{r}); err != nil {
			return err
		}
		confirmed = r

		if !ev.HasLimit() {
			return nil
		}
		n, err := s.ledger.ConfirmedCount(ctx, ev.ID)
		if err != nil {
			return err
		}
		if n < ev.ParticipantLimit {
			return nil
		}
		pending, err := s.requests.ListByEventAndStatus(ctx, ev.ID, request.StatusPending)
		if err != nil {
			return err
		}
		for _, p := range pending {
			if err := p.Reject(); err != nil {
				return err
			}
		}
		if len(pending) == 0 {
			return nil
		}
		if err := s.requests.SaveAll(ctx, pending); err != nil {
			return err
		}
		cascaded = pending
		return nil
	})
	if err != nil {
		return nil, err
	}

	actor := audit.UserActor(initiatorID)
	s.record(ctx, confirmed, audit.ActionConfirm, actor, request.StatusPending, "request confirmed by initiator")
	s.publish(confirmed, confirmed.RequesterID)
	for _, r := range cascaded {
		s.record(ctx, r, audit.ActionReject, actor, request.StatusPending, "participant limit reached")
		s.publish(r, r.RequesterID)
	}
	s.logger.Info().
		Int64("requestId", confirmed.ID).
		Int64("eventId", eventID).
		Int("cascadeRejected", len(cascaded)).
		Msg("participation request confirmed")
	return confirmed, nil
}

// Reject declines one pending request.
func (s *Service) Reject(ctx context.Context, initiatorID, eventID, requestID int64) (*request.Request, error) {
	var rejected *request.Request
	err := s.locker.WithEventLock(ctx, eventID, func(ctx context.Context) error {
		_, r, err := s.loadForModeration(ctx, initiatorID, eventID, requestID)
		if err != nil {
			return err
		}
		if err := r.Reject(); err != nil {
			return err
		}
		if err := s.requests.SaveAll(ctx, []*request.Request{r}); err != nil {
			return err
		}
		rejected = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, rejected, audit.ActionReject, audit.UserActor(initiatorID), request.StatusPending, "request rejected by initiator")
	s.publish(rejected, rejected.RequesterID)
	s.logger.Info().Int64("requestId", rejected.ID).Int64("eventId", eventID).Msg("participation request rejected")
	return rejected, nil
}

// ListByRequester returns every request made by userID.
func (s *Service) ListByRequester(ctx context.Context, userID int64) ([]*request.Request, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.requests.ListByRequester(ctx, userID)
}

// ListForEvent returns the requests of an event to its initiator.
func (s *Service) ListForEvent(ctx context.Context, initiatorID, eventID int64) ([]*request.Request, error) {
	if err := s.ensureUser(ctx, initiatorID); err != nil {
		return nil, err
	}
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := request.AuthorizeModerator(initiatorID, ev); err != nil {
		return nil, err
	}
	return s.requests.ListByEvent(ctx, eventID)
}

func (s *Service) loadForModeration(ctx context.Context, initiatorID, eventID, requestID int64) (*event.Event, *request.Request, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if err := request.AuthorizeModerator(initiatorID, ev); err != nil {
		return nil, nil, err
	}
	r, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if err := request.EnsureBelongs(r, ev); err != nil {
		return nil, nil, err
	}
	return ev, r, nil
}

func (s *Service) ensureUser(ctx context.Context, userID int64) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperror.NotFound("User with id=%d was not found", userID)
	}
	return nil
}

func (s *Service) loadEvent(ctx context.Context, eventID int64) (*event.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperror.NotFound("Event with id=%d was not found", eventID)
	}
	return ev, nil
}

func (s *Service) loadRequest(ctx context.Context, requestID int64) (*request.Request, error) {
	r, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperror.NotFound("Request with id=%d was not found", requestID)
	}
	return r, nil
}

func (s *Service) record(ctx context.Context, r *request.Request, action audit.Action, actor string, from request.Status, reason string) {
	entry := &audit.AuditEntry{
		EntityType: audit.EntityTypeRequest,
		EntityID:   r.ID,
		Action:     action,
		Actor:      actor,
		NewValues:  map[string]interface{}{"eventId": r.EventID, "status": r.Status},
		Reason:     reason,
	}
	if from != "" {
		entry.OldValues = map[string]interface{}{"status": from}
	}
	s.auditSvc.Log(ctx, entry)
}

func (s *Service) publish(r *request.Request, recipients ...int64) {
	if s.publisher == nil {
		return
	}
	msg, err := notification.NewMessage(notification.EventRequestStatus, notification.RequestStatusChanged{
		RequestID: r.ID,
		EventID:   r.EventID,
		Status:    string(r.Status),
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("requestId", r.ID).Msg("failed to build notification")
		return
	}
	for _, userID := range recipients {
		s.publisher.PublishToUser(userID, msg)
	}
}
