package memory

import (
	"context"

	"github.com/explore-with-me/ewm-service/internal/domain/audit"
)

// AuditRepository implements audit.Repository.
type AuditRepository struct {
	store *Store
}

func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

func (r *AuditRepository) Create(ctx context.Context, entry *audit.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = r.store.nextID("audit_logs")
	c := *entry
	r.store.auditLogs = append(r.store.auditLogs, &c)
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.AuditLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*audit.AuditLog
	for i := len(r.store.auditLogs) - 1; i >= 0; i-- {
		l := r.store.auditLogs[i]
		if filter.EntityType != nil && l.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && l.EntityID != *filter.EntityID {
			continue
		}
		if filter.Action != nil && l.Action != *filter.Action {
			continue
		}
		if filter.Actor != nil && l.Actor != *filter.Actor {
			continue
		}
		c := *l
		out = append(out, &c)
	}
	return page(out, limit, offset), nil
}
