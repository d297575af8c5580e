package user

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/explore-with-me/ewm-service/internal/application/audit"
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	domainaudit "github.com/explore-with-me/ewm-service/internal/domain/audit"
	domain "github.com/explore-with-me/ewm-service/internal/domain/user"
)

const (
	defaultPageSize = 10
	maxPageSize     = 1000
)

// Service handles user management.
type Service struct {
	repo     domain.Repository
	auditSvc *audit.Service
	logger   zerolog.Logger
}

// NewService creates a user service.
func NewService(repo domain.Repository, auditSvc *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// CreateInput defines user creation input.
type CreateInput struct {
	Name  string
	Email string
}

func (s *Service) CreateUser(ctx context.Context, input CreateInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	u := &domain.User{Name: name, Email: email}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, apperror.Conflict("Email %s is already registered", email)
		}
		return nil, err
	}

	s.auditSvc.Log(ctx, &domainaudit.AuditEntry{
		EntityType: domainaudit.EntityTypeUser,
		EntityID:   u.ID,
		Action:     domainaudit.ActionCreate,
		Actor:      domainaudit.AdminActor,
		NewValues:  u,
	})
	s.logger.Info().Int64("userId", u.ID).Str("email", u.Email).Msg("user created")
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound("User with id=%d was not found", userID)
	}
	return u, nil
}

// ListUsers returns users by id, or all users when ids is empty.
func (s *Service) ListUsers(ctx context.Context, ids []int64, from, size int) ([]*domain.User, error) {
	if from < 0 {
		return nil, apperror.Validation("from cannot be negative")
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	users, err := s.repo.List(ctx, ids, size, from)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// DeleteUser removes a user that owns no events and no requests.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	deleted, err := s.repo.Delete(ctx, userID)
	if errors.Is(err, domain.ErrInUse) {
		return apperror.Conflict("User with id=%d has events or participation requests", userID)
	}
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("User with id=%d was not found", userID)
	}
	s.auditSvc.Log(ctx, &domainaudit.AuditEntry{
		EntityType: domainaudit.EntityTypeUser,
		EntityID:   userID,
		Action:     domainaudit.ActionDelete,
		Actor:      domainaudit.AdminActor,
	})
	s.logger.Info().Int64("userId", userID).Msg("user deleted")
	return nil
}
