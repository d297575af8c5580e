package memory

import (
	"context"
	"strings"

	"github.com/explore-with-me/ewm-service/internal/domain/category"
)

// CategoryRepository implements category.Repository.
type CategoryRepository struct {
	store *Store
}

func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.nameTaken(c.Name, 0) {
		return category.ErrNameTaken
	}
	c.ID = r.store.nextID("categories")
	cp := *c
	r.store.categories[c.ID] = &cp
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.nameTaken(c.Name, c.ID) {
		return category.ErrNameTaken
	}
	if _, ok := r.store.categories[c.ID]; ok {
		cp := *c
		r.store.categories[c.ID] = &cp
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, categoryID int64) (*category.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.categories[categoryID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CategoryRepository) List(ctx context.Context, limit, offset int) ([]*category.Category, error) {
	r.store.mu.RLock()
	all := merge(r.store.categories, nil)
	r.store.mu.RUnlock()
	out := make([]*category.Category, 0, len(all))
	for _, c := range all {
		cp := *c
		out = append(out, &cp)
	}
	return page(out, limit, offset), nil
}

func (r *CategoryRepository) Delete(ctx context.Context, categoryID int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.categories[categoryID]; !ok {
		return false, nil
	}
	for _, e := range r.store.events {
		if e.CategoryID == categoryID {
			return false, category.ErrInUse
		}
	}
	delete(r.store.categories, categoryID)
	return true, nil
}

func (r *CategoryRepository) HasEvents(ctx context.Context, categoryID int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, e := range r.store.events {
		if e.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

// nameTaken must be called with mu held.
func (r *CategoryRepository) nameTaken(name string, exceptID int64) bool {
	for id, c := range r.store.categories {
		if id != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
