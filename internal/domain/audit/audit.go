package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EntityType represents the type of entity being audited
type EntityType string

const (
	EntityTypeEvent       EntityType = "EVENT"
	EntityTypeRequest     EntityType = "REQUEST"
	EntityTypeCategory    EntityType = "CATEGORY"
	EntityTypeUser        EntityType = "USER"
	EntityTypeRating      EntityType = "RATING"
	EntityTypeCompilation EntityType = "COMPILATION"
)

// Action represents the type of action being audited
type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionPublish      Action = "PUBLISH"
	ActionReject       Action = "REJECT"
	ActionSendToReview Action = "SEND_TO_REVIEW"
	ActionCancel       Action = "CANCEL"
	ActionConfirm      Action = "CONFIRM"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID         int64           `json:"id"`
	AuditID    uuid.UUID       `json:"auditId"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     Action          `json:"action"`
	Actor      string          `json:"actor"`
	OldValues  json.RawMessage `json:"oldValues,omitempty"`
	NewValues  json.RawMessage `json:"newValues,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Signature  []byte          `json:"signature,omitempty"`
	TraceID    string          `json:"traceId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AuditEntry is the input for creating audit logs
type AuditEntry struct {
	EntityType EntityType
	EntityID   int64
	Action     Action
	Actor      string
	OldValues  interface{}
	NewValues  interface{}
	Reason     string
	TraceID    string
}

// Filter controls audit log listing.
type Filter struct {
	EntityType *EntityType
	EntityID   *string
	Action     *Action
	Actor      *string
}

// Repository defines audit log persistence.
type Repository interface {
	Create(ctx context.Context, entry *AuditLog) error
	List(ctx context.Context, filter Filter, limit, offset int) ([]*AuditLog, error)
}

type traceKey struct{}

// WithTraceID attaches the caller's trace id to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFrom returns the trace id attached by WithTraceID.
func TraceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// UserActor formats a user id as an audit actor.
func UserActor(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// AdminActor is the actor recorded for administrator endpoints.
const AdminActor = "admin"

// NewAuditLog creates a new AuditLog from an AuditEntry
func NewAuditLog(entry *AuditEntry) (*AuditLog, error) {
	log := &AuditLog{
		AuditID:    uuid.New(),
		EntityType: entry.EntityType,
		EntityID:   strconv.FormatInt(entry.EntityID, 10),
		Action:     entry.Action,
		Actor:      entry.Actor,
		Reason:     entry.Reason,
		TraceID:    entry.TraceID,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	if entry.OldValues != nil {
		data, err := json.Marshal(entry.OldValues)
		if err != nil {
			return nil, err
		}
		log.OldValues = data
	}
	if entry.NewValues != nil {
		data, err := json.Marshal(entry.NewValues)
		if err != nil {
			return nil, err
		}
		log.NewValues = data
	}
	return log, nil
}
