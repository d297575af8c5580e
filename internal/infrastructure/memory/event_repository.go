package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/explore-with-me/ewm-service/internal/domain/event"
)

// EventRepository implements event.Repository.
type EventRepository struct {
	store *Store
}

func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e.ID = r.store.nextID("events")
	r.store.events[e.ID] = cloneEvent(e)
	return nil
}

func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	if sc := scopeFrom(ctx); sc != nil {
		sc.events[e.ID] = cloneEvent(e)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[e.ID]; ok {
		r.store.events[e.ID] = cloneEvent(e)
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, eventID int64) (*event.Event, error) {
	if sc := scopeFrom(ctx); sc != nil {
		if e, ok := sc.events[eventID]; ok {
			return cloneEvent(e), nil
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.events[eventID]
	if !ok {
		return nil, nil
	}
	return cloneEvent(e), nil
}

func (r *EventRepository) GetByIDAndInitiator(ctx context.Context, eventID, initiatorID int64) (*event.Event, error) {
	e, err := r.GetByID(ctx, eventID)
	if err != nil || e == nil || e.InitiatorID != initiatorID {
		return nil, err
	}
	return e, nil
}

func (r *EventRepository) List(ctx context.Context, filter event.Filter, limit, offset int) ([]*event.Event, error) {
	var staged map[int64]*event.Event
	if sc := scopeFrom(ctx); sc != nil {
		staged = sc.events
	}
	r.store.mu.RLock()
	all := merge(r.store.events, staged)
	r.store.mu.RUnlock()

	matched := make([]*event.Event, 0, len(all))
	for _, e := range all {
		if matchEvent(e, filter) {
			matched = append(matched, cloneEvent(e))
		}
	}
	if filter.Order == event.OrderByEventDateDesc {
		sort.SliceStable(matched, func(i, j int) bool {
			if matched[i].EventDate.Equal(matched[j].EventDate) {
				return matched[i].ID < matched[j].ID
			}
			return matched[i].EventDate.After(matched[j].EventDate)
		})
	}
	return page(matched, limit, offset), nil
}

func matchEvent(e *event.Event, f event.Filter) bool {
	if len(f.IDs) > 0 && !containsID(f.IDs, e.ID) {
		return false
	}
	if len(f.InitiatorIDs) > 0 && !containsID(f.InitiatorIDs, e.InitiatorID) {
		return false
	}
	if len(f.CategoryIDs) > 0 && !containsID(f.CategoryIDs, e.CategoryID) {
		return false
	}
	if len(f.States) > 0 {
		found := false
		for _, st := range f.States {
			if st == e.State {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Text != nil {
		text := strings.ToLower(*f.Text)
		if !strings.Contains(strings.ToLower(e.Annotation), text) &&
			!strings.Contains(strings.ToLower(e.Description), text) {
			return false
		}
	}
	if f.Paid != nil && e.Paid != *f.Paid {
		return false
	}
	if f.RangeStart != nil && e.EventDate.Before(*f.RangeStart) {
		return false
	}
	if f.RangeEnd != nil && e.EventDate.After(*f.RangeEnd) {
		return false
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
