package category

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/explore-with-me/ewm-service/internal/application/audit"
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	domainaudit "github.com/explore-with-me/ewm-service/internal/domain/audit"
	domain "github.com/explore-with-me/ewm-service/internal/domain/category"
)

const (
	defaultPageSize = 10
	maxPageSize     = 1000
)

// Service manages event categories.
type Service struct {
	repo     domain.Repository
	auditSvc *audit.Service
	logger   zerolog.Logger
}

func NewService(repo domain.Repository, auditSvc *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "category").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	c := &domain.Category{Name: name}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, s.mapNameErr(err, name)
	}
	s.record(ctx, c.ID, domainaudit.ActionCreate, nil, c)
	s.logger.Info().Int64("categoryId", c.ID).Str("name", c.Name).Msg("category created")
	return c, nil
}

func (s *Service) Rename(ctx context.Context, categoryID int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if c.Name == name {
		return c, nil
	}
	old := *c
	c.Name = name
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, s.mapNameErr(err, name)
	}
	s.record(ctx, c.ID, domainaudit.ActionUpdate, &old, c)
	return c, nil
}

func (s *Service) Get(ctx context.Context, categoryID int64) (*domain.Category, error) {
	c, err := s.repo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.NotFound("Category with id=%d was not found", categoryID)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, from, size int) ([]*domain.Category, error) {
	if from < 0 {
		return nil, apperror.Validation("from cannot be negative")
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	categories, err := s.repo.List(ctx, size, from)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	return categories, nil
}

// Delete removes a category that no event references.
func (s *Service) Delete(ctx context.Context, categoryID int64) error {
	used, err := s.repo.HasEvents(ctx, categoryID)
	if err != nil {
		return err
	}
	if used {
		return apperror.Conflict("The category is not empty")
	}
	deleted, err := s.repo.Delete(ctx, categoryID)
	if errors.Is(err, domain.ErrInUse) {
		return apperror.Conflict("The category is not empty")
	}
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("Category with id=%d was not found", categoryID)
	}
	s.record(ctx, categoryID, domainaudit.ActionDelete, nil, nil)
	s.logger.Info().Int64("categoryId", categoryID).Msg("category deleted")
	return nil
}

func (s *Service) mapNameErr(err error, name string) error {
	if errors.Is(err, domain.ErrNameTaken) {
		return apperror.Conflict("Category %s already exists", name)
	}
	return err
}

func (s *Service) record(ctx context.Context, id int64, action domainaudit.Action, old, cur interface{}) {
	entry := &domainaudit.AuditEntry{
		EntityType: domainaudit.EntityTypeCategory,
		EntityID:   id,
		Action:     action,
		Actor:      domainaudit.AdminActor,
	}
	if old != nil {
		entry.OldValues = old
	}
	if cur != nil {
		entry.NewValues = cur
	}
	s.auditSvc.Log(ctx, entry)
}
