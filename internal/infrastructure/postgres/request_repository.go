package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/explore-with-me/ewm-service/internal/domain/request"
)

const requestColumns = `id, event_id, requester_id, status, created`

// RequestRepository implements request.Repository.
type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO participation_requests (event_id, requester_id, status, created)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, req.EventID, req.RequesterID, req.Status, req.Created).Scan(&req.ID)
	if pgCode(err) == codeUniqueViolation {
		return request.ErrDuplicate
	}
	return err
}

func (r *RequestRepository) GetByID(ctx context.Context, requestID int64) (*request.Request, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+requestColumns+` FROM participation_requests WHERE id=$1`, requestID)
	return scanRequest(row)
}

func (r *RequestRepository) GetByEventAndRequester(ctx context.Context, eventID, requesterID int64) (*request.Request, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+requestColumns+` FROM participation_requests WHERE event_id=$1 AND requester_id=$2`, eventID, requesterID)
	return scanRequest(row)
}

func (r *RequestRepository) ListByEvent(ctx context.Context, eventID int64) ([]*request.Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM participation_requests WHERE event_id=$1 ORDER BY id`, eventID)
}

func (r *RequestRepository) ListByEventAndStatus(ctx context.Context, eventID int64, status request.Status) ([]*request.Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM participation_requests WHERE event_id=$1 AND status=$2 ORDER BY id`, eventID, status)
}

func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID int64) ([]*request.Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM participation_requests WHERE requester_id=$1 ORDER BY id`, requesterID)
}

func (r *RequestRepository) ListByIDs(ctx context.Context, requestIDs []int64) ([]*request.Request, error) {
	if len(requestIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+requestColumns+` FROM participation_requests WHERE id = ANY($1) ORDER BY id`, requestIDs)
}

func (r *RequestRepository) CountByEventAndStatus(ctx context.Context, eventID int64, status request.Status) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(1) FROM participation_requests WHERE event_id=$1 AND status=$2`, eventID, status).Scan(&count)
	return count, err
}

func (r *RequestRepository) CountConfirmedByEvents(ctx context.Context, eventIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT event_id, COUNT(1) FROM participation_requests
		WHERE event_id = ANY($1) AND status=$2
		GROUP BY event_id
	`, eventIDs, request.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID int64
		var count int
		if err := rows.Scan(&eventID, &count); err != nil {
			return nil, err
		}
		counts[eventID] = count
	}
	return counts, rows.Err()
}

// SaveAll writes request statuses. Outside a lock scope the updates are
// batched in their own transaction.
func (r *RequestRepository) SaveAll(ctx context.Context, requests []*request.Request) error {
	if len(requests) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, req := range requests {
		batch.Queue(`UPDATE participation_requests SET status=$2 WHERE id=$1`, req.ID, req.Status)
	}
	if tx, ok := txFrom(ctx); ok {
		return tx.SendBatch(ctx, batch).Close()
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]*request.Request, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var requests []*request.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(row pgx.Row) (*request.Request, error) {
	var req request.Request
	if err := row.Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Status, &req.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}
