package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestEventViews(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2025-03-01 12:00:00", q.Get("start"))
		assert.Equal(t, "2026-03-01 13:00:00", q.Get("end"))
		assert.Equal(t, "/events/7,/events/9", q.Get("uris"))
		assert.Equal(t, "true", q.Get("unique"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]ViewStats{
			{App: appName, URI: "/events/7", Hits: 12},
			{App: appName, URI: "/events/9", Hits: 4},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, zerolog.Nop())
	c.now = func() time.Time { return fixed }
	views := c.EventViews(context.Background(), []int64{7, 9, 7})
	assert.Equal(t, map[int64]int64{7: 12, 9: 4}, views)
}

func TestEventViewsSingleRequestPerBatch(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	ids := make([]int64, 20)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	views := NewClient(srv.URL, time.Second, zerolog.Nop()).EventViews(context.Background(), ids)
	assert.Empty(t, views)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEventViewsHangingServerCostsOneTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ids := make([]int64, 20)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	c := NewClient(srv.URL, 50*time.Millisecond, zerolog.Nop())
	started := time.Now()
	views := c.EventViews(context.Background(), ids)
	assert.Empty(t, views)
	assert.Less(t, time.Since(started), 500*time.Millisecond)
}

func TestEventViewsFailuresReturnEmpty(t *testing.T) {
	ids := []int64{1}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	assert.Empty(t, NewClient(failing.URL, time.Second, zerolog.Nop()).EventViews(context.Background(), ids))

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer garbage.Close()
	assert.Empty(t, NewClient(garbage.URL, time.Second, zerolog.Nop()).EventViews(context.Background(), ids))

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()
	assert.Empty(t, NewClient(url, time.Second, zerolog.Nop()).EventViews(context.Background(), ids))

	assert.Empty(t, NewClient("", time.Second, zerolog.Nop()).EventViews(context.Background(), ids))
	assert.Empty(t, NewClient(failing.URL, time.Second, zerolog.Nop()).EventViews(context.Background(), nil))
}

func TestEventViewsIgnoresOtherURIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]ViewStats{{App: appName, URI: "/events/70", Hits: 3}})
	}))
	defer srv.Close()
	assert.Empty(t, NewClient(srv.URL, time.Second, zerolog.Nop()).EventViews(context.Background(), []int64{7}))
}

func TestRecordHit(t *testing.T) {
	hits := make(chan EndpointHit, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hit", r.URL.Path)
		var hit EndpointHit
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&hit))
		w.WriteHeader(http.StatusCreated)
		hits <- hit
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	c.RecordHit("/events/3", "10.0.0.1")

	select {
	case hit := <-hits:
		assert.Equal(t, appName, hit.App)
		assert.Equal(t, "/events/3", hit.URI)
		assert.Equal(t, "10.0.0.1", hit.IP)
		assert.NotEmpty(t, hit.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("hit was not delivered")
	}
}
