package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/explore-with-me/ewm-service/internal/domain/rating"
)

// RatingRepository implements rating.Repository.
type RatingRepository struct {
	pool *pgxpool.Pool
}

func NewRatingRepository(pool *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

func (r *RatingRepository) Create(ctx context.Context, rt *rating.Rating) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO event_ratings (user_id, event_id, is_like, created)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, rt.UserID, rt.EventID, rt.IsLike, rt.Created).Scan(&rt.ID)
	if pgCode(err) == codeUniqueViolation {
		return rating.ErrDuplicate
	}
	return err
}

func (r *RatingRepository) Update(ctx context.Context, rt *rating.Rating) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `UPDATE event_ratings SET is_like=$2 WHERE id=$1`, rt.ID, rt.IsLike)
	return err
}

func (r *RatingRepository) Delete(ctx context.Context, ratingID int64) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM event_ratings WHERE id=$1`, ratingID)
	return err
}

func (r *RatingRepository) GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*rating.Rating, error) {
	var rt rating.Rating
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, user_id, event_id, is_like, created FROM event_ratings WHERE user_id=$1 AND event_id=$2
	`, userID, eventID).Scan(&rt.ID, &rt.UserID, &rt.EventID, &rt.IsLike, &rt.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RatingRepository) ListByUser(ctx context.Context, userID int64) ([]*rating.Rating, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, user_id, event_id, is_like, created FROM event_ratings WHERE user_id=$1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ratings []*rating.Rating
	for rows.Next() {
		var rt rating.Rating
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.EventID, &rt.IsLike, &rt.Created); err != nil {
			return nil, err
		}
		ratings = append(ratings, &rt)
	}
	return ratings, rows.Err()
}

func (r *RatingRepository) ScoreOfEvent(ctx context.Context, eventID int64) (int64, int64, error) {
	var likes, dislikes int64
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE is_like), COUNT(*) FILTER (WHERE NOT is_like)
		FROM event_ratings WHERE event_id=$1
	`, eventID).Scan(&likes, &dislikes)
	return likes, dislikes, err
}

func (r *RatingRepository) TopEvents(ctx context.Context, limit, offset int) ([]rating.EventScore, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT e.id, e.title, e.initiator_id,
			COUNT(er.id) FILTER (WHERE er.is_like) AS likes,
			COUNT(er.id) FILTER (WHERE NOT er.is_like) AS dislikes
		FROM events e
		LEFT JOIN event_ratings er ON er.event_id = e.id
		WHERE e.state = 'PUBLISHED'
		GROUP BY e.id
		ORDER BY COUNT(er.id) FILTER (WHERE er.is_like) - COUNT(er.id) FILTER (WHERE NOT er.is_like) DESC, e.id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []rating.EventScore
	for rows.Next() {
		var s rating.EventScore
		if err := rows.Scan(&s.EventID, &s.Title, &s.InitiatorID, &s.Likes, &s.Dislikes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *RatingRepository) TopAuthors(ctx context.Context, limit, offset int) ([]rating.AuthorScore, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT e.initiator_id,
			COALESCE(SUM(CASE WHEN er.is_like THEN 1 WHEN NOT er.is_like THEN -1 ELSE 0 END), 0) AS score
		FROM events e
		LEFT JOIN event_ratings er ON er.event_id = e.id
		GROUP BY e.initiator_id
		ORDER BY score DESC, e.initiator_id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []rating.AuthorScore
	for rows.Next() {
		var s rating.AuthorScore
		if err := rows.Scan(&s.UserID, &s.Score); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
