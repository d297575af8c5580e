package participation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/request"
)

func ids(reqs ...*request.Request) []int64 {
	out := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ID)
	}
	return out
}

func TestUpdateStatuses_DegradesExcessToRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t)
	ev := f.event(t, alice, 1, true)
	reqs := f.pending(t, ev.ID, 2)

	res, err := f.svc.UpdateStatuses(ctx, alice, ev.ID, ids(reqs[0], reqs[1]), request.DecisionConfirm)
	require.NoError(t, err)
	require.Len(t, res.Confirmed, 1)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, reqs[0].ID, res.Confirmed[0].ID, "first in input order wins")
	assert.Equal(t, reqs[1].ID, res.Rejected[0].ID)
	assert.Equal(t, request.StatusConfirmed, f.status(t, reqs[0].ID))
	assert.Equal(t, request.StatusRejected, f.status(t, reqs[1].ID))
}

func TestUpdateStatuses_InputOrderDecides(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t)
	ev := f.event(t, alice, 1, true)
	reqs := f.pending(t, ev.ID, 2)

	res, err := f.svc.UpdateStatuses(ctx, alice, ev.ID, ids(reqs[1], reqs[0]), request.DecisionConfirm)
	require.NoError(t, err)
	assert.Equal(t, reqs[1].ID, res.Confirmed[0].ID)
	assert.Equal(t, reqs[0].ID, res.Rejected[0].ID)
}

func TestUpdateStatuses_FullEventFailsUpFront(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t)
	ev := f.event(t, alice, 1, true)
	reqs := f.pending(t, ev.ID, 3)
	_, err := f.svc.Confirm(ctx, alice, ev.ID, reqs[0].ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatuses(ctx, alice, ev.ID, ids(reqs[1], reqs[2]), request.DecisionConfirm)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "limit")
	assert.Equal(t, request.StatusRejected, f.status(t, reqs[1].ID))
	assert.Equal(t, request.StatusRejected, f.status(t, reqs[2].ID))
}

func TestUpdateStatuses_FullEventPendingBatchMutatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t)
	ev := f.event(t, alice, 1, true)
	reqs := f.pending(t, ev.ID, 2)

	// Fill the only seat without cascading so both requests stay PENDING.
	seat := f.user(t)
	require.NoError(t, f.requests.Create(ctx, &request.Request{EventID: ev.ID, RequesterID: seat, Status: request.StatusConfirmed}))

	_, err := f.svc.UpdateStatuses(ctx, alice, ev.ID, ids(reqs...), request.DecisionConfirm)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, request.StatusPending, f.status(t, reqs[0].ID))
	assert.Equal(t, request.StatusPending, f.status(t, reqs[1].ID))

	res, err := f.svc.UpdateStatuses(ctx, alice, ev.ID, ids(reqs...), request.DecisionReject)
	require.NoError(t, err)
	assert.Len(t, res.Rejected, 2)
	assert.Empty(t, res.Confirmed)
}

func TestUpdateStatuses_NonPendingAbortsWholeBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t)
	ev := f.event(t, alice, 10, true)
	reqs := f.pending(t, ev.ID, 3)
	_, err := f.svc.Reject(ctx, alice, ev.ID, reqs[2].ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatuses(ctx, alice, ev.ID, ids(reqs...), request.DecisionConfirm)
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	assert.Equal(t, request.StatusPending, f.status(t, reqs[0].ID))
	assert.Equal(t, request.StatusPending, f.status(t, reqs[1].ID))
	assert.Equal(t, request.StatusRejected, f.status(t, reqs[2].ID))
}

func TestUpdateStatuses_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t)
	ev := f.event(t, alice, 10, true)
	other := f.event(t, alice, 10, true)
	reqs := f.pending(t, ev.ID, 1)
	foreign := f.pending(t, other.ID, 1)

	_, err := f.svc.UpdateStatuses(ctx, reqs[0].RequesterID, ev.ID, ids(reqs...), request.DecisionConfirm)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err), "only the initiator moderates")

	_, err = f.svc.UpdateStatuses(ctx, alice, ev.ID, ids(reqs[0], foreign[0]), request.DecisionConfirm)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err), "requests of another event")

	_, err = f.svc.UpdateStatuses(ctx, alice, ev.ID, []int64{reqs[0].ID, 999}, request.DecisionConfirm)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.svc.UpdateStatuses(ctx, alice, ev.ID, ids(reqs...), request.Decision("CANCELED"))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	assert.Equal(t, request.StatusPending, f.status(t, reqs[0].ID))
}

func TestUpdateStatuses_DuplicateIDsCollapse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t)
	ev := f.event(t, alice, 10, true)
	reqs := f.pending(t, ev.ID, 2)

	res, err := f.svc.UpdateStatuses(ctx, alice, ev.ID, []int64{reqs[1].ID, reqs[0].ID, reqs[1].ID}, request.DecisionConfirm)
	require.NoError(t, err)
	require.Len(t, res.Confirmed, 2)
	assert.Equal(t, reqs[1].ID, res.Confirmed[0].ID)
	assert.Equal(t, reqs[0].ID, res.Confirmed[1].ID)
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, uniqueIDs([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, uniqueIDs(nil))
}
