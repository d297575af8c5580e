package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/explore-with-me/ewm-service/internal/domain/category"
)

// CategoryRepository implements category.Repository.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if pgCode(err) == codeUniqueViolation {
		return category.ErrNameTaken
	}
	return err
}

func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `UPDATE categories SET name=$2 WHERE id=$1`, c.ID, c.Name)
	if pgCode(err) == codeUniqueViolation {
		return category.ErrNameTaken
	}
	return err
}

func (r *CategoryRepository) GetByID(ctx context.Context, categoryID int64) (*category.Category, error) {
	var c category.Category
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name FROM categories WHERE id=$1`, categoryID).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context, limit, offset int) ([]*category.Category, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name FROM categories ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []*category.Category
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// Delete removes a category. Categories still referenced by events are
// rejected by the foreign key and reported as category.ErrInUse.
func (r *CategoryRepository) Delete(ctx context.Context, categoryID int64) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE id=$1`, categoryID)
	if pgCode(err) == codeForeignKeyViolation {
		return false, category.ErrInUse
	}
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CategoryRepository) HasEvents(ctx context.Context, categoryID int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE category_id=$1)`, categoryID).Scan(&exists)
	return exists, err
}
