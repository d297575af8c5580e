package memory

import (
	"context"
	"sort"

	"github.com/explore-with-me/ewm-service/internal/domain/event"
	"github.com/explore-with-me/ewm-service/internal/domain/rating"
)

// RatingRepository implements rating.Repository.
type RatingRepository struct {
	store *Store
}

func NewRatingRepository(store *Store) *RatingRepository {
	return &RatingRepository{store: store}
}

func (r *RatingRepository) Create(ctx context.Context, rt *rating.Rating) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.ratings {
		if existing.UserID == rt.UserID && existing.EventID == rt.EventID {
			return rating.ErrDuplicate
		}
	}
	rt.ID = r.store.nextID("ratings")
	c := *rt
	r.store.ratings[rt.ID] = &c
	return nil
}

func (r *RatingRepository) Update(ctx context.Context, rt *rating.Rating) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.ratings[rt.ID]; ok {
		c := *rt
		r.store.ratings[rt.ID] = &c
	}
	return nil
}

func (r *RatingRepository) Delete(ctx context.Context, ratingID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.ratings, ratingID)
	return nil
}

func (r *RatingRepository) GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*rating.Rating, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, rt := range r.store.ratings {
		if rt.UserID == userID && rt.EventID == eventID {
			c := *rt
			return &c, nil
		}
	}
	return nil, nil
}

func (r *RatingRepository) ListByUser(ctx context.Context, userID int64) ([]*rating.Rating, error) {
	r.store.mu.RLock()
	all := merge(r.store.ratings, nil)
	r.store.mu.RUnlock()
	out := []*rating.Rating{}
	for _, rt := range all {
		if rt.UserID == userID {
			c := *rt
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *RatingRepository) ScoreOfEvent(ctx context.Context, eventID int64) (int64, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var likes, dislikes int64
	for _, rt := range r.store.ratings {
		if rt.EventID != eventID {
			continue
		}
		if rt.IsLike {
			likes++
		} else {
			dislikes++
		}
	}
	return likes, dislikes, nil
}

func (r *RatingRepository) TopEvents(ctx context.Context, limit, offset int) ([]rating.EventScore, error) {
	r.store.mu.RLock()
	scores := make(map[int64]*rating.EventScore)
	for _, e := range r.store.events {
		if e.State == event.StatePublished {
			scores[e.ID] = &rating.EventScore{EventID: e.ID, Title: e.Title, InitiatorID: e.InitiatorID}
		}
	}
	for _, rt := range r.store.ratings {
		s, ok := scores[rt.EventID]
		if !ok {
			continue
		}
		if rt.IsLike {
			s.Likes++
		} else {
			s.Dislikes++
		}
	}
	r.store.mu.RUnlock()

	out := make([]rating.EventScore, 0, len(scores))
	for _, s := range scores {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score() == out[j].Score() {
			return out[i].EventID < out[j].EventID
		}
		return out[i].Score() > out[j].Score()
	})
	return page(out, limit, offset), nil
}

func (r *RatingRepository) TopAuthors(ctx context.Context, limit, offset int) ([]rating.AuthorScore, error) {
	r.store.mu.RLock()
	authorOf := make(map[int64]int64, len(r.store.events))
	scores := make(map[int64]int64)
	for _, e := range r.store.events {
		authorOf[e.ID] = e.InitiatorID
		if _, ok := scores[e.InitiatorID]; !ok {
			scores[e.InitiatorID] = 0
		}
	}
	for _, rt := range r.store.ratings {
		author, ok := authorOf[rt.EventID]
		if !ok {
			continue
		}
		if rt.IsLike {
			scores[author]++
		} else {
			scores[author]--
		}
	}
	r.store.mu.RUnlock()

	out := make([]rating.AuthorScore, 0, len(scores))
	for userID, score := range scores {
		out = append(out, rating.AuthorScore{UserID: userID, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Score > out[j].Score
	})
	return page(out, limit, offset), nil
}
