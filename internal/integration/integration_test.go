//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	httpapi "github.com/explore-with-me/ewm-service/internal/api/http"
	"github.com/explore-with-me/ewm-service/internal/application/audit"
	"github.com/explore-with-me/ewm-service/internal/application/capacity"
	appCategory "github.com/explore-with-me/ewm-service/internal/application/category"
	appCompilation "github.com/explore-with-me/ewm-service/internal/application/compilation"
	appEvent "github.com/explore-with-me/ewm-service/internal/application/event"
	"github.com/explore-with-me/ewm-service/internal/application/participation"
	appRating "github.com/explore-with-me/ewm-service/internal/application/rating"
	appUser "github.com/explore-with-me/ewm-service/internal/application/user"
	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
	"github.com/explore-with-me/ewm-service/internal/domain/event"
	"github.com/explore-with-me/ewm-service/internal/domain/request"
	"github.com/explore-with-me/ewm-service/internal/infrastructure/postgres"
	"github.com/explore-with-me/ewm-service/internal/infrastructure/sse"
)

const auditKeyHex = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

type env struct {
	pool          *pgxpool.Pool
	events        *appEvent.Service
	participation *participation.Service
	users         *appUser.Service
	categories    *appCategory.Service
	ratings       *appRating.Service
	compilations  *appCompilation.Service
	requests      *postgres.RequestRepository
	server        *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := testDatabaseURL(t)
	logger := zerolog.Nop()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("db pool: %v", err)
	}
	if err := postgres.RunMigrations(dsn, logger); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	if err := resetDatabase(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("reset db: %v", err)
	}

	eventRepo := postgres.NewEventRepository(pool)
	requestRepo := postgres.NewRequestRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	locker := postgres.NewEventLocker(pool, logger)
	ledger := capacity.NewLedger(requestRepo)
	hub := sse.NewHub()

	auditSvc := audit.NewService(postgres.NewAuditRepository(pool), logger, mustDecodeHex(t, auditKeyHex))
	e := &env{
		pool:          pool,
		events:        appEvent.NewService(eventRepo, userRepo, categoryRepo, locker, ledger, nil, auditSvc, hub, logger),
		participation: participation.NewService(eventRepo, requestRepo, userRepo, locker, ledger, auditSvc, hub, logger),
		users:         appUser.NewService(userRepo, auditSvc, logger),
		categories:    appCategory.NewService(categoryRepo, auditSvc, logger),
		requests:      requestRepo,
	}
	e.ratings = appRating.NewService(postgres.NewRatingRepository(pool), eventRepo, userRepo, auditSvc, logger)
	e.compilations = appCompilation.NewService(postgres.NewCompilationRepository(pool), e.events, auditSvc, logger)
	api := httpapi.NewServer(e.events, e.participation, e.users, e.categories, e.ratings, e.compilations, auditSvc, hub, nil, logger)
	e.server = httptest.NewServer(api.Router())
	t.Cleanup(func() {
		e.server.Close()
		pool.Close()
	})
	return e
}

func (e *env) user(t *testing.T, n int) int64 {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), appUser.CreateInput{
		Name:  fmt.Sprintf("user %d", n),
		Email: fmt.Sprintf("user%d@example.com", n),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (e *env) publishedEvent(t *testing.T, initiatorID int64, limit int, moderation bool) int64 {
	t.Helper()
	ctx := context.Background()
	cat, err := e.categories.Create(ctx, fmt.Sprintf("category %d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	d, err := e.events.Create(ctx, initiatorID, event.NewEvent{
		Title:             "Integration meetup",
		Annotation:        "Annotation long enough to pass validation",
		Description:       "Description long enough to pass validation",
		CategoryID:        cat.ID,
		EventDate:         time.Now().Add(72 * time.Hour),
		ParticipantLimit:  limit,
		RequestModeration: &moderation,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if _, err := e.events.AdminPublish(ctx, d.ID); err != nil {
		t.Fatalf("publish event: %v", err)
	}
	return d.ID
}

func TestConcurrentRequestsRespectLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, 0)
	const limit = 3
	eventID := e.publishedEvent(t, owner, limit, false)

	const racers = 20
	requesters := make([]int64, racers)
	for i := range requesters {
		requesters[i] = e.user(t, i+1)
	}

	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for _, id := range requesters {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := e.participation.Create(ctx, id, eventID)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperror.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != limit || conflicts != racers-limit {
		t.Fatalf("expected %d admitted and %d conflicts, got %d and %d", limit, racers-limit, ok, conflicts)
	}
	confirmed, err := e.requests.CountByEventAndStatus(ctx, eventID, request.StatusConfirmed)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if confirmed != limit {
		t.Fatalf("expected %d confirmed, got %d", limit, confirmed)
	}
}

func TestDuplicateRequestRace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, 0)
	guest := e.user(t, 1)
	eventID := e.publishedEvent(t, owner, 0, true)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.participation.Create(ctx, guest, eventID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		if !errors.Is(err, apperror.ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one request, got %d", created)
	}
}

func TestBulkDegradesOverflowToRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, 0)
	eventID := e.publishedEvent(t, owner, 2, true)

	var ids []int64
	for i := 1; i <= 4; i++ {
		r, err := e.participation.Create(ctx, e.user(t, i), eventID)
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		ids = append(ids, r.ID)
	}

	res, err := e.participation.UpdateStatuses(ctx, owner, eventID, ids, request.DecisionConfirm)
	if err != nil {
		t.Fatalf("bulk update: %v", err)
	}
	if len(res.Confirmed) != 2 || len(res.Rejected) != 2 {
		t.Fatalf("expected 2 confirmed and 2 rejected, got %d and %d", len(res.Confirmed), len(res.Rejected))
	}
	if res.Confirmed[0].ID != ids[0] || res.Confirmed[1].ID != ids[1] {
		t.Fatalf("confirmed requests out of input order")
	}

	_, err = e.participation.UpdateStatuses(ctx, owner, eventID, ids[2:], request.DecisionConfirm)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected conflict on full event, got %v", err)
	}
}

func TestDuplicateRatingRace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, 0)
	fan := e.user(t, 1)
	eventID := e.publishedEvent(t, owner, 0, false)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ratings.Rate(ctx, fan, eventID, true)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		if !errors.Is(err, apperror.ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one rating, got %d", created)
	}

	top, err := e.ratings.TopEvents(ctx, 0, 10)
	if err != nil {
		t.Fatalf("top events: %v", err)
	}
	if len(top) != 1 || top[0].EventID != eventID || top[0].Rating != 1 {
		t.Fatalf("unexpected ranking: %+v", top)
	}
}

func TestCompilationKeepsEventOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, 0)
	first := e.publishedEvent(t, owner, 0, false)
	second := e.publishedEvent(t, owner, 0, false)

	c, err := e.compilations.Create(ctx, appCompilation.NewCompilation{
		Title:    "Integration picks",
		EventIDs: []int64{second, first, second, 424242},
	})
	if err != nil {
		t.Fatalf("create compilation: %v", err)
	}
	got, err := e.compilations.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get compilation: %v", err)
	}
	if len(got.Events) != 2 || got.Events[0].ID != second || got.Events[1].ID != first {
		t.Fatalf("unexpected members: %v", got.EventIDs)
	}

	// Deleting an event removes it from every compilation.
	if _, err := e.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, second); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	got, err = e.compilations.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get compilation: %v", err)
	}
	if len(got.EventIDs) != 1 || got.EventIDs[0] != first {
		t.Fatalf("expected only event %d, got %v", first, got.EventIDs)
	}
}

func TestHTTPSmoke(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.server.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", resp.StatusCode)
	}

	resp, err = http.Get(e.server.URL + "/events/12345")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func testDatabaseURL(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	t.Skip("TEST_DATABASE_URL not set; skipping integration tests")
	return ""
}

func resetDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		TRUNCATE TABLE
			audit_logs,
			compilation_events,
			compilations,
			event_ratings,
			participation_requests,
			events,
			categories,
			users
		RESTART IDENTITY CASCADE
	`)
	return err
}

func mustDecodeHex(t *testing.T, value string) []byte {
	t.Helper()
	b, err := hex.DecodeString(value)
	if err != nil {
		t.Fatalf("invalid hex: %v", err)
	}
	return b
}
