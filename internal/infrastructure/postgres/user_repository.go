package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/explore-with-me/ewm-service/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (name, email) VALUES ($1,$2) RETURNING id
	`, u.Name, u.Email).Scan(&u.ID)
	if pgCode(err) == codeUniqueViolation {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*user.User, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name, email FROM users WHERE id=$1`, userID)
	var u user.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, ids []int64, limit, offset int) ([]*user.User, error) {
	query := `SELECT id, name, email FROM users`
	args := []interface{}{}
	idx := 1
	if len(ids) > 0 {
		query += addWhere(query) + " id = ANY($" + itoa(idx) + ")"
		args = append(args, ids)
		idx++
	}
	query += " ORDER BY id LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []*user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id=$1`, userID)
	if pgCode(err) == codeForeignKeyViolation {
		return false, user.ErrInUse
	}
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
