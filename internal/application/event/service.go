package event

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	appAudit "github.com/explore-with-me/ewm-service/internal/application/audit"
	"github.com/explore-with-me/ewm-service/internal/application/capacity"
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/audit"
	"github.com/explore-with-me/ewm-service/internal/domain/category"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
	"github.com/explore-with-me/ewm-service/internal/domain/notification"
	"github.com/explore-with-me/ewm-service/internal/domain/user"
)

// ViewCounter reports page views of events in one round trip.
// Implementations leave out ids whose count is unavailable.
type ViewCounter interface {
	EventViews(ctx context.Context, eventIDs []int64) map[int64]int64
}

// Details is an event with its display counters.
type Details struct {
	*event.Event
	ConfirmedRequests int   `json:"confirmedRequests"`
	Views             int64 `json:"views"`
}

// OwnerUpdate is an initiator's edit of an event.
type OwnerUpdate struct {
	Patch  event.Patch
	Action *event.UserStateAction
}

// AdminUpdate is an administrator's edit of an event.
type AdminUpdate struct {
	Patch  event.Patch
	Action *event.AdminStateAction
}

// PublicFilter selects published events for anonymous readers.
type PublicFilter struct {
	Text          *string
	CategoryIDs   []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          event.Sort
	From          int
	Size          int
}

// AdminFilter selects events for administrators.
type AdminFilter struct {
	UserIDs     []int64
	States      []event.State
	CategoryIDs []int64
	RangeStart  *time.Time
	RangeEnd    *time.Time
	From        int
	Size        int
}

// Service handles event lifecycle and reads.
type Service struct {
	events     event.Repository
	users      user.Repository
	categories category.Repository
	locker     event.Locker
	ledger     *capacity.Ledger
	views      ViewCounter
	auditSvc   *appAudit.Service
	publisher  notification.Publisher
	now        func() time.Time
	logger     zerolog.Logger
}

// NewService creates an event service. views, auditSvc and publisher may be nil.
func NewService(
	events event.Repository,
	users user.Repository,
	categories category.Repository,
	locker event.Locker,
	ledger *capacity.Ledger,
	views ViewCounter,
	auditSvc *appAudit.Service,
	publisher notification.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		events:     events,
		users:      users,
		categories: categories,
		locker:     locker,
		ledger:     ledger,
		views:      views,
		auditSvc:   auditSvc,
		publisher:  publisher,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With().Str("service", "event").Logger(),
	}
}

// Create registers a new PENDING event of initiatorID.
func (s *Service) Create(ctx context.Context, initiatorID int64, n event.NewEvent) (*Details, error) {
	if err := s.ensureUser(ctx, initiatorID); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, n.CategoryID); err != nil {
		return nil, err
	}
	ev, err := n.Build(initiatorID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeEvent,
		EntityID:   ev.ID,
		Action:     audit.ActionCreate,
		Actor:      audit.UserActor(initiatorID),
		NewValues:  map[string]interface{}{"state": ev.State, "eventDate": ev.EventDate},
		Reason:     "event created",
	})
	s.logger.Info().Int64("eventId", ev.ID).Int64("initiatorId", initiatorID).Msg("event created")
	return &Details{Event: ev}, nil
}

// GetForOwner returns one event of initiatorID.
func (s *Service) GetForOwner(ctx context.Context, initiatorID, eventID int64) (*Details, error) {
	if err := s.ensureUser(ctx, initiatorID); err != nil {
		return nil, err
	}
	ev, err := s.events.GetByIDAndInitiator(ctx, eventID, initiatorID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, apperror.NotFound("Event with id=%d was not found", eventID)
	}
	out, err := s.enrich(ctx, []*event.Event{ev})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ListForOwner pages through the events of initiatorID.
func (s *Service) ListForOwner(ctx context.Context, initiatorID int64, from, size int) ([]*Details, error) {
	if err := event.ValidatePage(from, size); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, initiatorID); err != nil {
		return nil, err
	}
	events, err := s.events.List(ctx, event.Filter{InitiatorIDs: []int64{initiatorID}}, size, from)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, events)
}

// OwnerUpdate applies an initiator's patch and state action. Published events
// cannot be edited.
func (s *Service) OwnerUpdate(ctx context.Context, initiatorID, eventID int64, upd OwnerUpdate) (*Details, error) {
	if err := s.ensureUser(ctx, initiatorID); err != nil {
		return nil, err
	}

	var updated *event.Event
	var previous event.State
	err := s.locker.WithEventLock(ctx, eventID, func(ctx context.Context) error {
		ev, err := s.events.GetByIDAndInitiator(ctx, eventID, initiatorID)
		if err != nil {
			return err
		}
		if ev == nil {
			return apperror.NotFound("Event with id=%d was not found", eventID)
		}
		if err := ev.EnsureEditableByOwner(); err != nil {
			return err
		}
		if err := event.ValidatePatch(upd.Patch, s.now(), event.MinCreateLead); err != nil {
			return err
		}
		if upd.Patch.CategoryID != nil {
			if err := s.ensureCategory(ctx, *upd.Patch.CategoryID); err != nil {
				return err
			}
		}
		previous = ev.State
		ev.Apply(upd.Patch)
		if upd.Action != nil {
			if err := ev.ApplyUserAction(*upd.Action); err != nil {
				return err
			}
		}
		if err := s.events.Update(ctx, ev); err != nil {
			return err
		}
		updated = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := audit.ActionUpdate
	if upd.Action != nil {
		switch *upd.Action {
		case event.ActionSendToReview:
			action = audit.ActionSendToReview
		case event.ActionCancelReview:
			action = audit.ActionCancel
		}
	}
	s.recordState(ctx, updated, action, audit.UserActor(initiatorID), previous, "event updated by initiator")
	s.logger.Info().
		Int64("eventId", eventID).
		Str("from", string(previous)).
		Str("to", string(updated.State)).
		Msg("event updated by initiator")
	return s.single(ctx, updated)
}

// AdminUpdate applies an administrator's patch and moderation decision.
func (s *Service) AdminUpdate(ctx context.Context, eventID int64, upd AdminUpdate) (*Details, error) {
	var updated *event.Event
	var previous event.State
	err := s.locker.WithEventLock(ctx, eventID, func(ctx context.Context) error {
		ev, err := s.events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if ev == nil {
			return apperror.NotFound("Event with id=%d was not found", eventID)
		}
		now := s.now()
		if err := event.ValidatePatch(upd.Patch, now, event.MinPublishLead); err != nil {
			return err
		}
		if upd.Patch.CategoryID != nil {
			if err := s.ensureCategory(ctx, *upd.Patch.CategoryID); err != nil {
				return err
			}
		}
		previous = ev.State
		ev.Apply(upd.Patch)
		if upd.Action != nil {
			if err := ev.ApplyAdminAction(*upd.Action, now); err != nil {
				return err
			}
		}
		if err := s.events.Update(ctx, ev); err != nil {
			return err
		}
		updated = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := audit.ActionUpdate
	if upd.Action != nil {
		switch *upd.Action {
		case event.ActionPublishEvent:
			action = audit.ActionPublish
		case event.ActionRejectEvent:
			action = audit.ActionReject
		}
	}
	s.recordState(ctx, updated, action, audit.AdminActor, previous, "event moderated by admin")
	s.logger.Info().
		Int64("eventId", eventID).
		Str("from", string(previous)).
		Str("to", string(updated.State)).
		Msg("event updated by admin")
	return s.single(ctx, updated)
}

// AdminPublish publishes a PENDING event that starts at least an hour from now.
func (s *Service) AdminPublish(ctx context.Context, eventID int64) (*Details, error) {
	action := event.ActionPublishEvent
	return s.AdminUpdate(ctx, eventID, AdminUpdate{Action: &action})
}

// AdminReject cancels an event that is not published.
func (s *Service) AdminReject(ctx context.Context, eventID int64) (*Details, error) {
	action := event.ActionRejectEvent
	return s.AdminUpdate(ctx, eventID, AdminUpdate{Action: &action})
}

// GetPublished returns a published event; other states are reported as missing.
func (s *Service) GetPublished(ctx context.Context, eventID int64) (*Details, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil || ev.State != event.StatePublished {
		return nil, apperror.NotFound("Event with id=%d was not found", eventID)
	}
	return s.single(ctx, ev)
}

// ListPublished returns published events matching f. Without a date range
// only upcoming events are listed.
func (s *Service) ListPublished(ctx context.Context, f PublicFilter) ([]*Details, error) {
	if err := event.ValidatePage(f.From, f.Size); err != nil {
		return nil, err
	}
	if err := validateRange(f.RangeStart, f.RangeEnd); err != nil {
		return nil, err
	}
	filter := event.Filter{
		States:      []event.State{event.StatePublished},
		CategoryIDs: f.CategoryIDs,
		Text:        f.Text,
		Paid:        f.Paid,
		RangeStart:  f.RangeStart,
		RangeEnd:    f.RangeEnd,
	}
	if filter.RangeStart == nil && filter.RangeEnd == nil {
		now := s.now()
		filter.RangeStart = &now
	}
	if f.Sort == event.SortViews {
		return s.listByViews(ctx, filter, f)
	}
	if f.Sort == event.SortEventDate {
		filter.Order = event.OrderByEventDateDesc
	}
	events, err := s.events.List(ctx, filter, f.Size, f.From)
	if err != nil {
		return nil, err
	}
	out, err := s.enrich(ctx, events)
	if err != nil {
		return nil, err
	}
	if !f.OnlyAvailable {
		return out, nil
	}
	return onlyAvailable(out), nil
}

// listByViews ranks every matching event by views and pages in memory.
func (s *Service) listByViews(ctx context.Context, filter event.Filter, f PublicFilter) ([]*Details, error) {
	events, err := s.events.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, err
	}
	out, err := s.enrich(ctx, events)
	if err != nil {
		return nil, err
	}
	if f.OnlyAvailable {
		out = onlyAvailable(out)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Views == out[j].Views {
			return out[i].ID < out[j].ID
		}
		return out[i].Views > out[j].Views
	})
	if f.From >= len(out) {
		return []*Details{}, nil
	}
	out = out[f.From:]
	if len(out) > f.Size {
		out = out[:f.Size]
	}
	return out, nil
}

func onlyAvailable(details []*Details) []*Details {
	available := details[:0]
	for _, d := range details {
		if !d.HasLimit() || d.ConfirmedRequests < d.ParticipantLimit {
			available = append(available, d)
		}
	}
	return available
}

// ListForAdmin returns events in any state matching f.
func (s *Service) ListForAdmin(ctx context.Context, f AdminFilter) ([]*Details, error) {
	if err := event.ValidatePage(f.From, f.Size); err != nil {
		return nil, err
	}
	if err := validateRange(f.RangeStart, f.RangeEnd); err != nil {
		return nil, err
	}
	events, err := s.events.List(ctx, event.Filter{
		InitiatorIDs: f.UserIDs,
		States:       f.States,
		CategoryIDs:  f.CategoryIDs,
		RangeStart:   f.RangeStart,
		RangeEnd:     f.RangeEnd,
	}, f.Size, f.From)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, events)
}

// ListByIDs returns the events with the given ids in any state, in the
// order of ids. Unknown ids are skipped.
func (s *Service) ListByIDs(ctx context.Context, ids []int64) ([]*Details, error) {
	if len(ids) == 0 {
		return []*Details{}, nil
	}
	events, err := s.events.List(ctx, event.Filter{IDs: ids}, 0, 0)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*event.Event, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}
	ordered := make([]*event.Event, 0, len(events))
	for _, id := range ids {
		if ev, ok := byID[id]; ok {
			ordered = append(ordered, ev)
			delete(byID, id)
		}
	}
	return s.enrich(ctx, ordered)
}

func validateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperror.Validation("rangeEnd must not be before rangeStart")
	}
	return nil
}

func (s *Service) single(ctx context.Context, ev *event.Event) (*Details, error) {
	out, err := s.enrich(ctx, []*event.Event{ev})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *Service) enrich(ctx context.Context, events []*event.Event) ([]*Details, error) {
	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	counts, err := s.ledger.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	var views map[int64]int64
	if s.views != nil && len(ids) > 0 {
		views = s.views.EventViews(ctx, ids)
	}
	out := make([]*Details, 0, len(events))
	for _, ev := range events {
		out = append(out, &Details{Event: ev, ConfirmedRequests: counts[ev.ID], Views: views[ev.ID]})
	}
	return out, nil
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

func (s *Service) ensureCategory(ctx context.Context, categoryID int64) error {
	c, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if c == nil {
		return apperror.NotFound("Category with id=%d was not found", categoryID)
	}
	return nil
}

func (s *Service) recordState(ctx context.Context, ev *event.Event, action audit.Action, actor string, from event.State, reason string) {
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeEvent,
		EntityID:   ev.ID,
		Action:     action,
		Actor:      actor,
		OldValues:  map[string]interface{}{"state": from},
		NewValues:  map[string]interface{}{"state": ev.State},
		Reason:     reason,
	})
	if from == ev.State || s.publisher == nil {
		return
	}
	msg, err := notification.NewMessage(notification.EventEventState, notification.EventStateChanged{
		EventID: ev.ID,
		State:   string(ev.State),
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("eventId", ev.ID).Msg("failed to build notification")
		return
	}
	s.publisher.PublishToUser(ev.InitiatorID, msg)
	if ev.State == event.StatePublished {
		published := *msg
		published.Event = notification.EventPublished
		s.publisher.PublishToAll(&published)
	}
}
