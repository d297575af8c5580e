package memory

import (
	"context"

	"github.com/explore-with-me/ewm-service/internal/domain/request"
)

// RequestRepository implements request.Repository.
type RequestRepository struct {
	store *Store
}

func NewRequestRepository(store *Store) *RequestRepository {
	return &RequestRepository{store: store}
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	sc := scopeFrom(ctx)
	existing, err := r.GetByEventAndRequester(ctx, req.EventID, req.RequesterID)
	if err != nil {
		return err
	}
	if existing != nil {
		return request.ErrDuplicate
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := pair{eventID: req.EventID, requesterID: req.RequesterID}
	if _, ok := r.store.pairs[key]; ok {
		return request.ErrDuplicate
	}
	req.ID = r.store.nextID("requests")
	if sc != nil {
		sc.requests[req.ID] = cloneRequest(req)
		return nil
	}
	r.store.requests[req.ID] = cloneRequest(req)
	r.store.pairs[key] = req.ID
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, requestID int64) (*request.Request, error) {
	if sc := scopeFrom(ctx); sc != nil {
		if req, ok := sc.requests[requestID]; ok {
			return cloneRequest(req), nil
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	req, ok := r.store.requests[requestID]
	if !ok {
		return nil, nil
	}
	return cloneRequest(req), nil
}

func (r *RequestRepository) GetByEventAndRequester(ctx context.Context, eventID, requesterID int64) (*request.Request, error) {
	found := r.where(ctx, func(req *request.Request) bool {
		return req.EventID == eventID && req.RequesterID == requesterID
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *RequestRepository) ListByEvent(ctx context.Context, eventID int64) ([]*request.Request, error) {
	return r.where(ctx, func(req *request.Request) bool { return req.EventID == eventID }), nil
}

func (r *RequestRepository) ListByEventAndStatus(ctx context.Context, eventID int64, status request.Status) ([]*request.Request, error) {
	return r.where(ctx, func(req *request.Request) bool {
		return req.EventID == eventID && req.Status == status
	}), nil
}

func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID int64) ([]*request.Request, error) {
	return r.where(ctx, func(req *request.Request) bool { return req.RequesterID == requesterID }), nil
}

func (r *RequestRepository) ListByIDs(ctx context.Context, requestIDs []int64) ([]*request.Request, error) {
	return r.where(ctx, func(req *request.Request) bool { return containsID(requestIDs, req.ID) }), nil
}

func (r *RequestRepository) CountByEventAndStatus(ctx context.Context, eventID int64, status request.Status) (int, error) {
	found, err := r.ListByEventAndStatus(ctx, eventID, status)
	return len(found), err
}

func (r *RequestRepository) CountConfirmedByEvents(ctx context.Context, eventIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(eventIDs))
	for _, req := range r.where(ctx, func(req *request.Request) bool {
		return req.Status == request.StatusConfirmed && containsID(eventIDs, req.EventID)
	}) {
		counts[req.EventID]++
	}
	return counts, nil
}

func (r *RequestRepository) SaveAll(ctx context.Context, requests []*request.Request) error {
	if sc := scopeFrom(ctx); sc != nil {
		for _, req := range requests {
			sc.requests[req.ID] = cloneRequest(req)
		}
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, req := range requests {
		if _, ok := r.store.requests[req.ID]; ok {
			r.store.requests[req.ID] = cloneRequest(req)
		}
	}
	return nil
}

func (r *RequestRepository) where(ctx context.Context, match func(*request.Request) bool) []*request.Request {
	var staged map[int64]*request.Request
	if sc := scopeFrom(ctx); sc != nil {
		staged = sc.requests
	}
	r.store.mu.RLock()
	all := merge(r.store.requests, staged)
	r.store.mu.RUnlock()

	var out []*request.Request
	for _, req := range all {
		if match(req) {
			out = append(out, cloneRequest(req))
		}
	}
	return out
}
