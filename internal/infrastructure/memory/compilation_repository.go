package memory

import (
	"context"

	"github.com/explore-with-me/ewm-service/internal/domain/compilation"
)

// CompilationRepository implements compilation.Repository.
type CompilationRepository struct {
	store *Store
}

func NewCompilationRepository(store *Store) *CompilationRepository {
	return &CompilationRepository{store: store}
}

func (r *CompilationRepository) Create(ctx context.Context, c *compilation.Compilation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c.ID = r.store.nextID("compilations")
	r.store.compilations[c.ID] = cloneCompilation(c)
	return nil
}

func (r *CompilationRepository) Update(ctx context.Context, c *compilation.Compilation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.compilations[c.ID]; ok {
		r.store.compilations[c.ID] = cloneCompilation(c)
	}
	return nil
}

func (r *CompilationRepository) Delete(ctx context.Context, compilationID int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.compilations[compilationID]; !ok {
		return false, nil
	}
	delete(r.store.compilations, compilationID)
	return true, nil
}

func (r *CompilationRepository) GetByID(ctx context.Context, compilationID int64) (*compilation.Compilation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.compilations[compilationID]
	if !ok {
		return nil, nil
	}
	return cloneCompilation(c), nil
}

func (r *CompilationRepository) List(ctx context.Context, pinned *bool, limit, offset int) ([]*compilation.Compilation, error) {
	r.store.mu.RLock()
	all := merge(r.store.compilations, nil)
	r.store.mu.RUnlock()
	out := make([]*compilation.Compilation, 0, len(all))
	for _, c := range all {
		if pinned != nil && c.Pinned != *pinned {
			continue
		}
		out = append(out, cloneCompilation(c))
	}
	return page(out, limit, offset), nil
}

func cloneCompilation(c *compilation.Compilation) *compilation.Compilation {
	cp := *c
	cp.EventIDs = append([]int64(nil), c.EventIDs...)
	return &cp
}
