package request

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
)

func TestNew(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		name       string
		moderation bool
		limit      int
		want       Status
	}{
		{"moderated with limit", true, 2, StatusPending},
		{"moderated without limit", true, 0, StatusConfirmed},
		{"unmoderated with limit", false, 2, StatusConfirmed},
		{"unmoderated without limit", false, 0, StatusConfirmed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := &event.Event{ID: 4, RequestModeration: tc.moderation, ParticipantLimit: tc.limit}
			r := New(ev, 9, now)
			assert.Equal(t, tc.want, r.Status)
			assert.Equal(t, int64(4), r.EventID)
			assert.Equal(t, int64(9), r.RequesterID)
		})
	}
}

func TestRequest_Transitions(t *testing.T) {
	r := &Request{Status: StatusPending}
	require.NoError(t, r.Confirm())
	assert.Equal(t, StatusConfirmed, r.Status)

	for _, st := range []Status{StatusConfirmed, StatusRejected, StatusCanceled} {
		r := &Request{Status: st}
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(r.Confirm()))
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(r.Reject()))
		assert.Equal(t, st, r.Status)
	}

	r = &Request{Status: StatusPending}
	require.NoError(t, r.Reject())
	assert.Equal(t, StatusRejected, r.Status)
}

func TestRequest_CancelIsIdempotent(t *testing.T) {
	r := &Request{Status: StatusConfirmed}
	assert.True(t, r.Cancel())
	assert.Equal(t, StatusCanceled, r.Status)
	assert.False(t, r.Cancel())
	assert.Equal(t, StatusCanceled, r.Status)
}

func TestAuthorization(t *testing.T) {
	ev := &event.Event{ID: 1, InitiatorID: 10, State: event.StatePublished}

	assert.Equal(t, apperror.KindConflict, apperror.KindOf(AuthorizeJoin(10, ev)))
	assert.NoError(t, AuthorizeJoin(11, ev))
	ev.State = event.StatePending
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(AuthorizeJoin(11, ev)))

	assert.NoError(t, AuthorizeModerator(10, ev))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(AuthorizeModerator(11, ev)))

	r := &Request{ID: 5, EventID: 2, RequesterID: 11}
	assert.NoError(t, AuthorizeRequester(11, r))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(AuthorizeRequester(12, r)))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(EnsureBelongs(r, ev)))
}

func TestDecisionUnmarshal(t *testing.T) {
	var body struct {
		Status Decision `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"CONFIRMED"}`), &body))
	assert.Equal(t, DecisionConfirm, body.Status)
	require.NoError(t, json.Unmarshal([]byte(`{"status":"rejected"}`), &body))
	assert.Equal(t, DecisionReject, body.Status)

	err := json.Unmarshal([]byte(`{"status":"CANCELED"}`), &body)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
