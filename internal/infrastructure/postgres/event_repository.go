package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/explore-with-me/ewm-service/internal/domain/event"
)

const eventColumns = `id, title, annotation, description, category_id, initiator_id, event_date, created_on, published_on, state, paid, participant_limit, request_moderation, lat, lon`

// EventRepository implements event.Repository.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO events (title, annotation, description, category_id, initiator_id, event_date, created_on, published_on, state, paid, participant_limit, request_moderation, lat, lon)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`, e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID, e.EventDate, e.CreatedOn, e.PublishedOn, e.State, e.Paid, e.ParticipantLimit, e.RequestModeration, e.Location.Lat, e.Location.Lon).Scan(&e.ID)
}

func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE events SET title=$2, annotation=$3, description=$4, category_id=$5, event_date=$6,
			published_on=$7, state=$8, paid=$9, participant_limit=$10, request_moderation=$11, lat=$12, lon=$13
		WHERE id=$1
	`, e.ID, e.Title, e.Annotation, e.Description, e.CategoryID, e.EventDate, e.PublishedOn, e.State, e.Paid, e.ParticipantLimit, e.RequestModeration, e.Location.Lat, e.Location.Lon)
	return err
}

func (r *EventRepository) GetByID(ctx context.Context, eventID int64) (*event.Event, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, eventID)
	return scanEvent(row)
}

func (r *EventRepository) GetByIDAndInitiator(ctx context.Context, eventID, initiatorID int64) (*event.Event, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1 AND initiator_id=$2`, eventID, initiatorID)
	return scanEvent(row)
}

func (r *EventRepository) List(ctx context.Context, filter event.Filter, limit, offset int) ([]*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	args := []interface{}{}
	idx := 1
	if len(filter.IDs) > 0 {
		query += addWhere(query) + " id = ANY($" + itoa(idx) + ")"
		args = append(args, filter.IDs)
		idx++
	}
	if len(filter.InitiatorIDs) > 0 {
		query += addWhere(query) + " initiator_id = ANY($" + itoa(idx) + ")"
		args = append(args, filter.InitiatorIDs)
		idx++
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, string(s))
		}
		query += addWhere(query) + " state = ANY($" + itoa(idx) + ")"
		args = append(args, states)
		idx++
	}
	if len(filter.CategoryIDs) > 0 {
		query += addWhere(query) + " category_id = ANY($" + itoa(idx) + ")"
		args = append(args, filter.CategoryIDs)
		idx++
	}
	if filter.Text != nil {
		query += addWhere(query) + " (annotation ILIKE $" + itoa(idx) + " OR description ILIKE $" + itoa(idx) + ")"
		args = append(args, "%"+escapeLike(*filter.Text)+"%")
		idx++
	}
	if filter.Paid != nil {
		query += addWhere(query) + " paid=$" + itoa(idx)
		args = append(args, *filter.Paid)
		idx++
	}
	if filter.RangeStart != nil {
		query += addWhere(query) + " event_date >= $" + itoa(idx)
		args = append(args, *filter.RangeStart)
		idx++
	}
	if filter.RangeEnd != nil {
		query += addWhere(query) + " event_date <= $" + itoa(idx)
		args = append(args, *filter.RangeEnd)
		idx++
	}
	query += orderClause(filter.Order)
	if limit > 0 {
		query += " LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
		args = append(args, limit, offset)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []*event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func orderClause(o event.Order) string {
	if o == event.OrderByEventDateDesc {
		return " ORDER BY event_date DESC, id"
	}
	return " ORDER BY id"
}

func scanEvent(row pgx.Row) (*event.Event, error) {
	var e event.Event
	if err := row.Scan(&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.InitiatorID, &e.EventDate, &e.CreatedOn, &e.PublishedOn, &e.State, &e.Paid, &e.ParticipantLimit, &e.RequestModeration, &e.Location.Lat, &e.Location.Lon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
