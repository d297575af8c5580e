package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/explore-with-me/ewm-service/internal/domain/compilation"
)

// CompilationRepository implements compilation.Repository. Event membership
// lives in compilation_events with an explicit position.
type CompilationRepository struct {
	pool *pgxpool.Pool
}

func NewCompilationRepository(pool *pgxpool.Pool) *CompilationRepository {
	return &CompilationRepository{pool: pool}
}

func (r *CompilationRepository) Create(ctx context.Context, c *compilation.Compilation) error {
	return r.inTx(ctx, func(q querier) error {
		err := q.QueryRow(ctx, `INSERT INTO compilations (title, pinned) VALUES ($1, $2) RETURNING id`, c.Title, c.Pinned).Scan(&c.ID)
		if err != nil {
			return err
		}
		return insertMembers(ctx, q, c)
	})
}

func (r *CompilationRepository) Update(ctx context.Context, c *compilation.Compilation) error {
	return r.inTx(ctx, func(q querier) error {
		if _, err := q.Exec(ctx, `UPDATE compilations SET title=$2, pinned=$3 WHERE id=$1`, c.ID, c.Title, c.Pinned); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `DELETE FROM compilation_events WHERE compilation_id=$1`, c.ID); err != nil {
			return err
		}
		return insertMembers(ctx, q, c)
	})
}

func (r *CompilationRepository) Delete(ctx context.Context, compilationID int64) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM compilations WHERE id=$1`, compilationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CompilationRepository) GetByID(ctx context.Context, compilationID int64) (*compilation.Compilation, error) {
	var c compilation.Compilation
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT id, title, pinned FROM compilations WHERE id=$1`, compilationID).Scan(&c.ID, &c.Title, &c.Pinned)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, []*compilation.Compilation{&c}); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompilationRepository) List(ctx context.Context, pinned *bool, limit, offset int) ([]*compilation.Compilation, error) {
	query := `SELECT id, title, pinned FROM compilations`
	args := []interface{}{}
	idx := 1
	if pinned != nil {
		query += addWhere(query) + " pinned=$" + itoa(idx)
		args = append(args, *pinned)
		idx++
	}
	query += " ORDER BY id LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*compilation.Compilation
	for rows.Next() {
		var c compilation.Compilation
		if err := rows.Scan(&c.ID, &c.Title, &c.Pinned); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadMembers fills EventIDs of every compilation with one query.
func (r *CompilationRepository) loadMembers(ctx context.Context, comps []*compilation.Compilation) error {
	if len(comps) == 0 {
		return nil
	}
	byID := make(map[int64]*compilation.Compilation, len(comps))
	ids := make([]int64, 0, len(comps))
	for _, c := range comps {
		c.EventIDs = []int64{}
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT compilation_id, event_id FROM compilation_events
		WHERE compilation_id = ANY($1)
		ORDER BY compilation_id, position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var compID, eventID int64
		if err := rows.Scan(&compID, &eventID); err != nil {
			return err
		}
		byID[compID].EventIDs = append(byID[compID].EventIDs, eventID)
	}
	return rows.Err()
}

func (r *CompilationRepository) inTx(ctx context.Context, fn func(q querier) error) error {
	if tx, ok := txFrom(ctx); ok {
		return fn(tx)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

func insertMembers(ctx context.Context, q querier, c *compilation.Compilation) error {
	for i, eventID := range c.EventIDs {
		if _, err := q.Exec(ctx, `
			INSERT INTO compilation_events (compilation_id, event_id, position) VALUES ($1, $2, $3)
		`, c.ID, eventID, i); err != nil {
			return err
		}
	}
	return nil
}
