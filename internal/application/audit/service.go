package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/explore-with-me/ewm-service/internal/domain/audit"
)

// Service handles audit log operations
type Service struct {
	repo    audit.Repository
	logger  zerolog.Logger
	signKey []byte
}

// NewService creates a new audit service
func NewService(repo audit.Repository, logger zerolog.Logger, signKey []byte) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		logger:  logger.With().Str("service", "audit").Logger(),
	}
}

// Log creates a new audit log entry asynchronously. A nil service is a no-op.
func (s *Service) Log(ctx context.Context, entry *audit.AuditEntry) {
	if s == nil {
		return
	}
	if entry.TraceID == "" {
		entry.TraceID = audit.TraceIDFrom(ctx)
	}
	go func() {
		if err := s.LogSync(context.WithoutCancel(ctx), entry); err != nil {
			s.logger.Error().Err(err).
				Str("entityType", string(entry.EntityType)).
				Int64("entityId", entry.EntityID).
				Str("action", string(entry.Action)).
				Msg("failed to create audit log")
		}
	}()
}

// LogSync creates a new audit log entry synchronously
func (s *Service) LogSync(ctx context.Context, entry *audit.AuditEntry) error {
	auditLog, err := audit.NewAuditLog(entry)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	if len(s.signKey) > 0 {
		sig, err := audit.SignAuditLog(auditLog, s.signKey)
		if err != nil {
			return fmt.Errorf("failed to sign audit log: %w", err)
		}
		auditLog.Signature = sig
	}

	if err := s.repo.Create(ctx, auditLog); err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}

	s.logger.Debug().
		Str("auditId", auditLog.AuditID.String()).
		Str("entityType", string(auditLog.EntityType)).
		Str("entityId", auditLog.EntityID).
		Str("action", string(auditLog.Action)).
		Str("actor", auditLog.Actor).
		Msg("audit log created")

	return nil
}

// List returns audit logs matching filter, newest first.
func (s *Service) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	logs, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list audit logs")
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

// VerifyResult reports whether a stored entry still matches its signature.
type VerifyResult struct {
	AuditID  string `json:"auditId"`
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// Verify checks the signature of log with the service key.
func (s *Service) Verify(log *audit.AuditLog) (*VerifyResult, error) {
	if len(s.signKey) == 0 {
		return nil, fmt.Errorf("audit signing key is not configured")
	}
	ok, err := audit.VerifyAuditLogSignature(log, s.signKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify signature: %w", err)
	}
	result := &VerifyResult{AuditID: log.AuditID.String(), Verified: ok}
	if ok {
		result.Message = "Audit log integrity verified"
	} else {
		result.Message = "Audit log signature mismatch - possible tampering detected"
		s.logger.Warn().Str("auditId", log.AuditID.String()).Msg("audit log signature verification failed")
	}
	return result, nil
}
