// Package memory keeps the whole data set in process. It backs local runs
// and tests, and gives the same atomicity guarantees as the postgres package
// for work done inside an event lock.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/audit"
	"github.com/explore-with-me/ewm-service/internal/domain/category"
	"github.com/explore-with-me/ewm-service/internal/domain/compilation"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
	"github.com/explore-with-me/ewm-service/internal/domain/rating"
	"github.com/explore-with-me/ewm-service/internal/domain/request"
	"github.com/explore-with-me/ewm-service/internal/domain/user"
)

type pair struct {
	eventID     int64
	requesterID int64
}

// Store holds committed state. Writes made inside Locker.WithEventLock are
// staged in a scope and applied on success.
type Store struct {
	mu           sync.RWMutex
	events       map[int64]*event.Event
	requests     map[int64]*request.Request
	pairs        map[pair]int64
	users        map[int64]*user.User
	categories   map[int64]*category.Category
	ratings      map[int64]*rating.Rating
	compilations map[int64]*compilation.Compilation
	auditLogs    []*audit.AuditLog

	seq   map[string]int64
	locks *keyedMutex
}

func NewStore() *Store {
	return &Store{
		events:       make(map[int64]*event.Event),
		requests:     make(map[int64]*request.Request),
		pairs:        make(map[pair]int64),
		users:        make(map[int64]*user.User),
		categories:   make(map[int64]*category.Category),
		ratings:      make(map[int64]*rating.Rating),
		compilations: make(map[int64]*compilation.Compilation),
		seq:          make(map[string]int64),
		locks:        newKeyedMutex(),
	}
}

// nextID must be called with mu held for writing.
func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

type scope struct {
	events   map[int64]*event.Event
	requests map[int64]*request.Request
}

type scopeKey struct{}

func newScope() *scope {
	return &scope{
		events:   make(map[int64]*event.Event),
		requests: make(map[int64]*request.Request),
	}
}

func withScope(ctx context.Context, sc *scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

func scopeFrom(ctx context.Context) *scope {
	sc, _ := ctx.Value(scopeKey{}).(*scope)
	return sc
}

// commit applies the staged writes of sc.
func (s *Store) commit(sc *scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range sc.requests {
		key := pair{eventID: r.EventID, requesterID: r.RequesterID}
		if existing, ok := s.pairs[key]; ok && existing != id {
			return apperror.Conflict("Request for event id=%d already exists", r.EventID)
		}
	}
	for id, e := range sc.events {
		s.events[id] = e
	}
	for id, r := range sc.requests {
		s.requests[id] = r
		s.pairs[pair{eventID: r.EventID, requesterID: r.RequesterID}] = id
	}
	return nil
}

// merge returns committed values overlaid with staged ones, ordered by id.
func merge[T any](base, staged map[int64]*T) []*T {
	ids := make([]int64, 0, len(base)+len(staged))
	for id := range base {
		ids = append(ids, id)
	}
	for id := range staged {
		if _, ok := base[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		if v, ok := staged[id]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, base[id])
	}
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneEvent(e *event.Event) *event.Event {
	c := *e
	if e.PublishedOn != nil {
		t := *e.PublishedOn
		c.PublishedOn = &t
	}
	return &c
}

func cloneRequest(r *request.Request) *request.Request {
	c := *r
	return &c
}
