package memory

import (
	"context"

	"github.com/explore-with-me/ewm-service/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	u.ID = r.store.nextID("users")
	c := *u
	r.store.users[u.ID] = &c
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[userID]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) List(ctx context.Context, ids []int64, limit, offset int) ([]*user.User, error) {
	r.store.mu.RLock()
	all := merge(r.store.users, nil)
	r.store.mu.RUnlock()

	var out []*user.User
	for _, u := range all {
		if len(ids) > 0 && !containsID(ids, u.ID) {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	return page(out, limit, offset), nil
}

func (r *UserRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[userID]; !ok {
		return false, nil
	}
	for _, e := range r.store.events {
		if e.InitiatorID == userID {
			return false, user.ErrInUse
		}
	}
	for _, req := range r.store.requests {
		if req.RequesterID == userID {
			return false, user.ErrInUse
		}
	}
	for _, rt := range r.store.ratings {
		if rt.UserID == userID {
			return false, user.ErrInUse
		}
	}
	delete(r.store.users, userID)
	return true, nil
}
