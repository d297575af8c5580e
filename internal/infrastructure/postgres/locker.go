package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
)

const lockAttempts = 3

// EventLocker implements event.Locker. fn runs inside a READ COMMITTED
// transaction that holds the event row with SELECT ... FOR UPDATE, so
// concurrent admissions for one event are serialized by Postgres.
type EventLocker struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewEventLocker(pool *pgxpool.Pool, logger zerolog.Logger) *EventLocker {
	return &EventLocker{
		pool:   pool,
		logger: logger.With().Str("component", "event_locker").Logger(),
	}
}

// WithEventLock runs fn with the event row locked. Transactions aborted by a
// serialization failure or deadlock are retried; after the last attempt the
// caller gets a Conflict. Nested calls reuse the outer transaction.
func (l *EventLocker) WithEventLock(ctx context.Context, eventID int64, fn func(ctx context.Context) error) error {
	if tx, ok := txFrom(ctx); ok {
		if err := lockEvent(ctx, tx, eventID); err != nil {
			return err
		}
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= lockAttempts; attempt++ {
		err = l.run(ctx, eventID, fn)
		if !isTransient(err) {
			return err
		}
		l.logger.Warn().Err(err).
			Int64("eventId", eventID).
			Int("attempt", attempt).
			Msg("event transaction aborted, retrying")
	}
	return apperror.Conflict("Event id=%d is being modified concurrently, try again", eventID)
}

func (l *EventLocker) run(ctx context.Context, eventID int64, fn func(ctx context.Context) error) (err error) {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	txCtx := withTx(ctx, tx)
	if err = lockEvent(txCtx, tx, eventID); err != nil {
		return err
	}
	if err = fn(txCtx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func lockEvent(ctx context.Context, tx pgx.Tx, eventID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id=$1 FOR UPDATE`, eventID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("Event with id=%d was not found", eventID)
	}
	if err != nil {
		return fmt.Errorf("lock event row: %w", err)
	}
	return nil
}

func isTransient(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}
