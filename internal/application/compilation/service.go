package compilation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	appAudit "github.com/explore-with-me/ewm-service/internal/application/audit"
	appEvent "github.com/explore-with-me/ewm-service/internal/application/event"
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/audit"
	domain "github.com/explore-with-me/ewm-service/internal/domain/compilation"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
)

// EventLister resolves event ids into listing entries, in the given order,
// skipping ids that do not exist.
type EventLister interface {
	ListByIDs(ctx context.Context, ids []int64) ([]*appEvent.Details, error)
}

// NewCompilation is an administrator's request to create a compilation.
type NewCompilation struct {
	Title    string
	Pinned   *bool
	EventIDs []int64
}

// Details is a compilation with its events expanded.
type Details struct {
	*domain.Compilation
	Events []*appEvent.Details
}

// Service curates event compilations.
type Service struct {
	repo     domain.Repository
	events   EventLister
	auditSvc *appAudit.Service
	logger   zerolog.Logger
}

func NewService(repo domain.Repository, events EventLister, auditSvc *appAudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		events:   events,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "compilation").Logger(),
	}
}

// Create stores a compilation. Event ids that do not resolve are dropped.
func (s *Service) Create(ctx context.Context, in NewCompilation) (*Details, error) {
	title := strings.TrimSpace(in.Title)
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}
	members, err := s.resolve(ctx, in.EventIDs)
	if err != nil {
		return nil, err
	}
	c := &domain.Compilation{Title: title, EventIDs: memberIDs(members)}
	if in.Pinned != nil {
		c.Pinned = *in.Pinned
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, c, audit.ActionCreate, nil)
	s.logger.Info().Int64("compilationId", c.ID).Int("events", len(c.EventIDs)).Msg("compilation created")
	return &Details{Compilation: c, Events: members}, nil
}

func (s *Service) Update(ctx context.Context, compilationID int64, p domain.Patch) (*Details, error) {
	c, err := s.load(ctx, compilationID)
	if err != nil {
		return nil, err
	}
	old := *c
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if err := domain.ValidateTitle(title); err != nil {
			return nil, err
		}
		c.Title = title
	}
	if p.Pinned != nil {
		c.Pinned = *p.Pinned
	}
	var members []*appEvent.Details
	if p.EventIDs != nil {
		if members, err = s.resolve(ctx, *p.EventIDs); err != nil {
			return nil, err
		}
		c.EventIDs = memberIDs(members)
	} else if members, err = s.events.ListByIDs(ctx, c.EventIDs); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, c, audit.ActionUpdate, &old)
	s.logger.Info().Int64("compilationId", c.ID).Msg("compilation updated")
	return &Details{Compilation: c, Events: members}, nil
}

func (s *Service) Delete(ctx context.Context, compilationID int64) error {
	c, err := s.load(ctx, compilationID)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, compilationID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("Compilation with id=%d was not found", compilationID)
	}

	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeCompilation,
		EntityID:   compilationID,
		Action:     audit.ActionDelete,
		Actor:      audit.AdminActor,
		OldValues:  c,
	})
	s.logger.Info().Int64("compilationId", compilationID).Msg("compilation deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, compilationID int64) (*Details, error) {
	c, err := s.load(ctx, compilationID)
	if err != nil {
		return nil, err
	}
	members, err := s.events.ListByIDs(ctx, c.EventIDs)
	if err != nil {
		return nil, err
	}
	return &Details{Compilation: c, Events: members}, nil
}

// List pages compilations by id, optionally keeping only pinned or unpinned
// ones. Events of the whole page are resolved in one call.
func (s *Service) List(ctx context.Context, pinned *bool, from, size int) ([]*Details, error) {
	if err := event.ValidatePage(from, size); err != nil {
		return nil, err
	}
	comps, err := s.repo.List(ctx, pinned, size, from)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, c := range comps {
		ids = append(ids, c.EventIDs...)
	}
	resolved, err := s.events.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*appEvent.Details, len(resolved))
	for _, d := range resolved {
		byID[d.ID] = d
	}
	out := make([]*Details, 0, len(comps))
	for _, c := range comps {
		members := make([]*appEvent.Details, 0, len(c.EventIDs))
		for _, id := range c.EventIDs {
			if d, ok := byID[id]; ok {
				members = append(members, d)
			}
		}
		out = append(out, &Details{Compilation: c, Events: members})
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, compilationID int64) (*domain.Compilation, error) {
	c, err := s.repo.GetByID(ctx, compilationID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.NotFound("Compilation with id=%d was not found", compilationID)
	}
	return c, nil
}

// resolve deduplicates ids, keeping first occurrences, and drops unknown ones.
func (s *Service) resolve(ctx context.Context, ids []int64) ([]*appEvent.Details, error) {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return s.events.ListByIDs(ctx, unique)
}

func memberIDs(members []*appEvent.Details) []int64 {
	ids := make([]int64, 0, len(members))
	for _, d := range members {
		ids = append(ids, d.ID)
	}
	return ids
}

func (s *Service) record(ctx context.Context, c *domain.Compilation, action audit.Action, old interface{}) {
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeCompilation,
		EntityID:   c.ID,
		Action:     action,
		Actor:      audit.AdminActor,
		OldValues:  old,
		NewValues:  c,
	})
}
