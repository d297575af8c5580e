package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditLog(t *testing.T) {
	log, err := NewAuditLog(&AuditEntry{
		EntityType: EntityTypeRequest,
		EntityID:   17,
		Action:     ActionConfirm,
		Actor:      UserActor(3),
		OldValues:  map[string]string{"status": "PENDING"},
		NewValues:  map[string]string{"status": "CONFIRMED"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, log.AuditID)
	assert.Equal(t, "17", log.EntityID)
	assert.Equal(t, "user:3", log.Actor)
	assert.JSONEq(t, `{"status":"PENDING"}`, string(log.OldValues))
	assert.JSONEq(t, `{"status":"CONFIRMED"}`, string(log.NewValues))
	assert.False(t, log.CreatedAt.IsZero())
}

func TestSignAndVerify(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	log, err := NewAuditLog(&AuditEntry{EntityType: EntityTypeEvent, EntityID: 1, Action: ActionPublish, Actor: AdminActor})
	require.NoError(t, err)

	ok, err := VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.False(t, ok, "unsigned log must not verify")

	log.Signature, err = SignAuditLog(log, key)
	require.NoError(t, err)
	ok, err = VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.True(t, ok)

	log.Action = ActionReject
	ok, err = VerifyAuditLogSignature(log, key)
	require.NoError(t, err)
	assert.False(t, ok, "tampered log must not verify")
}
