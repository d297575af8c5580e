package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appAudit "github.com/explore-with-me/ewm-service/internal/application/audit"
	"github.com/explore-with-me/ewm-service/internal/application/capacity"
	appCategory "github.com/explore-with-me/ewm-service/internal/application/category"
	appCompilation "github.com/explore-with-me/ewm-service/internal/application/compilation"
	appEvent "github.com/explore-with-me/ewm-service/internal/application/event"
	appParticipation "github.com/explore-with-me/ewm-service/internal/application/participation"
	appRating "github.com/explore-with-me/ewm-service/internal/application/rating"
	appUser "github.com/explore-with-me/ewm-service/internal/application/user"
	"github.com/explore-with-me/ewm-service/internal/infrastructure/memory"
	"github.com/explore-with-me/ewm-service/internal/infrastructure/sse"
)

type fixedViews int64

func (v fixedViews) EventViews(_ context.Context, eventIDs []int64) map[int64]int64 {
	out := make(map[int64]int64, len(eventIDs))
	for _, id := range eventIDs {
		out[id] = int64(v)
	}
	return out
}

type hitLog struct {
	uris []string
	ips  []string
}

func (h *hitLog) RecordHit(uri, ip string) {
	h.uris = append(h.uris, uri)
	h.ips = append(h.ips, ip)
}

type apiFixture struct {
	ts   *httptest.Server
	hits *hitLog
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	events := memory.NewEventRepository(store)
	requests := memory.NewRequestRepository(store)
	users := memory.NewUserRepository(store)
	categories := memory.NewCategoryRepository(store)
	locker := memory.NewLocker(store)
	ledger := capacity.NewLedger(requests)
	hub := sse.NewHub()
	logger := zerolog.Nop()

	auditSvc := appAudit.NewService(memory.NewAuditRepository(store), logger, []byte("test-key"))
	eventSvc := appEvent.NewService(events, users, categories, locker, ledger, fixedViews(5), auditSvc, hub, logger)
	participationSvc := appParticipation.NewService(events, requests, users, locker, ledger, auditSvc, hub, logger)
	userSvc := appUser.NewService(users, auditSvc, logger)
	categorySvc := appCategory.NewService(categories, auditSvc, logger)
	ratingSvc := appRating.NewService(memory.NewRatingRepository(store), events, users, auditSvc, logger)
	compilationSvc := appCompilation.NewService(memory.NewCompilationRepository(store), eventSvc, auditSvc, logger)

	hits := &hitLog{}
	srv := NewServer(eventSvc, participationSvc, userSvc, categorySvc, ratingSvc, compilationSvc, auditSvc, hub, hits, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &apiFixture{ts: ts, hits: hits}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (f *apiFixture) createUser(t *testing.T, name string) int64 {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/admin/users", map[string]string{
		"name":  name,
		"email": strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out struct{ ID int64 }
	require.NoError(t, json.Unmarshal(body, &out))
	return out.ID
}

func (f *apiFixture) createCategory(t *testing.T, name string) int64 {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/admin/categories", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out struct{ ID int64 }
	require.NoError(t, json.Unmarshal(body, &out))
	return out.ID
}

func eventBody(categoryID int64, limit int, moderation bool, eventDate time.Time) map[string]interface{} {
	return map[string]interface{}{
		"title":             "Go meetup",
		"annotation":        "An evening of talks about concurrency in Go",
		"description":       "Three talks about channels, mutexes and the memory model",
		"category":          categoryID,
		"eventDate":         eventDate.UTC().Format(dateTimeLayout),
		"location":          map[string]float64{"lat": 55.75, "lon": 37.61},
		"participantLimit":  limit,
		"requestModeration": moderation,
	}
}

func (f *apiFixture) createEvent(t *testing.T, userID, categoryID int64, limit int, moderation bool) eventResponseBody {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, fmt.Sprintf("/users/%d/events", userID),
		eventBody(categoryID, limit, moderation, time.Now().Add(48*time.Hour)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out eventResponseBody
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

type eventResponseBody struct {
	ID                int64
	State             string
	EventDate         string
	PublishedOn       string
	ConfirmedRequests int
	Views             int64
	Category          struct {
		ID   int64
		Name string
	}
	Initiator struct {
		ID   int64
		Name string
	}
}

type requestBody struct {
	ID        int64
	Event     int64
	Requester int64
	Status    string
}

func decodeError(t *testing.T, body []byte) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHealth(t *testing.T) {
	api := newAPI(t)
	resp, body := api.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"UP"}`, string(body))
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t)
	owner := api.createUser(t, "Olga Owner")
	guest := api.createUser(t, "Gleb Guest")
	other := api.createUser(t, "Oleg Other")
	cat := api.createCategory(t, "Meetups")

	ev := api.createEvent(t, owner, cat, 1, true)
	assert.Equal(t, "PENDING", ev.State)
	assert.Equal(t, "Meetups", ev.Category.Name)
	assert.Equal(t, "Olga Owner", ev.Initiator.Name)
	assert.Empty(t, ev.PublishedOn)

	// Unpublished events are invisible to the public and closed to requests.
	resp, _ := api.do(t, http.MethodGet, fmt.Sprintf("/events/%d", ev.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, body := api.do(t, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", guest, ev.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, body = api.do(t, http.MethodPatch, fmt.Sprintf("/admin/events/%d", ev.ID), map[string]string{"stateAction": "PUBLISH_EVENT"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var published eventResponseBody
	require.NoError(t, json.Unmarshal(body, &published))
	assert.Equal(t, "PUBLISHED", published.State)
	assert.NotEmpty(t, published.PublishedOn)

	resp, body = api.do(t, http.MethodGet, fmt.Sprintf("/events/%d", ev.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var public eventResponseBody
	require.NoError(t, json.Unmarshal(body, &public))
	assert.Equal(t, int64(5), public.Views)
	assert.Equal(t, []string{fmt.Sprintf("/events/%d", ev.ID)}, api.hits.uris)
	assert.Equal(t, []string{"127.0.0.1"}, api.hits.ips)

	// Owner cannot join their own event.
	resp, _ = api.do(t, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", owner, ev.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = api.do(t, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", guest, ev.ID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var first requestBody
	require.NoError(t, json.Unmarshal(body, &first))
	assert.Equal(t, "PENDING", first.Status)

	resp, _ = api.do(t, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", guest, ev.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = api.do(t, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", other, ev.ID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var second requestBody
	require.NoError(t, json.Unmarshal(body, &second))

	resp, body = api.do(t, http.MethodPatch, fmt.Sprintf("/users/%d/events/%d/requests", owner, ev.ID), map[string]interface{}{
		"requestIds": []int64{first.ID, second.ID},
		"status":     "CONFIRMED",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var bulk struct {
		ConfirmedRequests []requestBody
		RejectedRequests  []requestBody
	}
	require.NoError(t, json.Unmarshal(body, &bulk))
	require.Len(t, bulk.ConfirmedRequests, 1)
	require.Len(t, bulk.RejectedRequests, 1)
	assert.Equal(t, first.ID, bulk.ConfirmedRequests[0].ID)
	assert.Equal(t, second.ID, bulk.RejectedRequests[0].ID)

	resp, body = api.do(t, http.MethodGet, fmt.Sprintf("/events/%d", ev.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &public))
	assert.Equal(t, 1, public.ConfirmedRequests)

	resp, body = api.do(t, http.MethodGet, "/events?onlyAvailable=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `[]`, string(body))

	resp, body = api.do(t, http.MethodPatch, fmt.Sprintf("/users/%d/requests/%d/cancel", guest, first.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var canceled requestBody
	require.NoError(t, json.Unmarshal(body, &canceled))
	assert.Equal(t, "CANCELED", canceled.Status)

	resp, body = api.do(t, http.MethodGet, fmt.Sprintf("/users/%d/requests", guest), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []requestBody
	require.NoError(t, json.Unmarshal(body, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "CANCELED", mine[0].Status)

	// Published events are frozen for the owner.
	resp, body = api.do(t, http.MethodPatch, fmt.Sprintf("/users/%d/events/%d", owner, ev.ID), map[string]string{"title": "Renamed"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeError(t, body)["error"])
}

func TestSingleConfirmAndReject(t *testing.T) {
	api := newAPI(t)
	owner := api.createUser(t, "Owner One")
	guest := api.createUser(t, "Guest One")
	cat := api.createCategory(t, "Talks")
	ev := api.createEvent(t, owner, cat, 0, true)
	resp, _ := api.do(t, http.MethodPatch, fmt.Sprintf("/admin/events/%d", ev.ID), map[string]string{"stateAction": "PUBLISH_EVENT"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// No limit means requests are admitted immediately.
	resp, body := api.do(t, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", guest, ev.ID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var req requestBody
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "CONFIRMED", req.Status)

	resp, _ = api.do(t, http.MethodPatch, fmt.Sprintf("/users/%d/events/%d/requests/%d/reject", owner, ev.ID, req.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPatch, fmt.Sprintf("/users/%d/events/%d/requests/%d/confirm", guest, ev.ID, req.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, http.MethodPatch, fmt.Sprintf("/users/%d/events/%d/requests/999/confirm", owner, ev.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = api.do(t, http.MethodGet, fmt.Sprintf("/users/%d/events/%d/requests", owner, ev.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []requestBody
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)
}

func TestErrorMapping(t *testing.T) {
	api := newAPI(t)
	owner := api.createUser(t, "Mapping Owner")
	cat := api.createCategory(t, "Mapping")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown user", http.MethodGet, "/users/999/events", nil, http.StatusNotFound, "NOT_FOUND"},
		{"bad path id", http.MethodGet, "/users/abc/events", nil, http.StatusBadRequest, "INVALID_PARAM"},
		{"malformed body", http.MethodPost, "/admin/categories", "{", http.StatusBadRequest, "INVALID_PARAM"},
		{"unknown field", http.MethodPost, "/admin/categories", `{"name":"x","extra":1}`, http.StatusBadRequest, "INVALID_PARAM"},
		{"duplicate category", http.MethodPost, "/admin/categories", map[string]string{"name": "mapping"}, http.StatusConflict, "CONFLICT"},
		{"invalid email", http.MethodPost, "/admin/users", map[string]string{"name": "Someone", "email": "nope"}, http.StatusBadRequest, "INVALID_PARAM"},
		{"missing eventId", http.MethodPost, fmt.Sprintf("/users/%d/requests", owner), nil, http.StatusBadRequest, "INVALID_PARAM"},
		{"too soon", http.MethodPost, fmt.Sprintf("/users/%d/events", owner), eventBody(cat, 0, true, time.Now().Add(30*time.Minute)), http.StatusBadRequest, "INVALID_PARAM"},
		{"bad date format", http.MethodPost, fmt.Sprintf("/users/%d/events", owner), map[string]interface{}{
			"title": "Go meetup", "annotation": "An evening of talks about concurrency in Go",
			"description": "Three talks about channels, mutexes and the memory model",
			"category":    cat, "eventDate": "2030-01-01T10:00:00Z", "location": map[string]float64{"lat": 1, "lon": 1},
		}, http.StatusBadRequest, "INVALID_PARAM"},
		{"missing location", http.MethodPost, fmt.Sprintf("/users/%d/events", owner), map[string]interface{}{
			"title": "Go meetup", "annotation": "An evening of talks about concurrency in Go",
			"description": "Three talks about channels, mutexes and the memory model",
			"category":    cat, "eventDate": time.Now().Add(72 * time.Hour).UTC().Format(dateTimeLayout),
		}, http.StatusBadRequest, "INVALID_PARAM"},
		{"bad state action", http.MethodPatch, "/admin/events/1", map[string]string{"stateAction": "DANCE"}, http.StatusBadRequest, "INVALID_PARAM"},
		{"bad bulk status", http.MethodPatch, fmt.Sprintf("/users/%d/events/1/requests", owner), map[string]interface{}{"requestIds": []int64{1}, "status": "PENDING"}, http.StatusBadRequest, "INVALID_PARAM"},
		{"empty bulk ids", http.MethodPatch, fmt.Sprintf("/users/%d/events/1/requests", owner), map[string]interface{}{"requestIds": []int64{}, "status": "CONFIRMED"}, http.StatusBadRequest, "INVALID_PARAM"},
		{"inverted range", http.MethodGet, "/events?rangeStart=2030-01-02%2000:00:00&rangeEnd=2030-01-01%2000:00:00", nil, http.StatusBadRequest, "INVALID_PARAM"},
		{"unknown state filter", http.MethodGet, "/admin/events?states=DONE", nil, http.StatusBadRequest, "INVALID_PARAM"},
		{"missing category", http.MethodGet, "/categories/777", nil, http.StatusNotFound, "NOT_FOUND"},
		{"unknown sort", http.MethodGet, "/events?sort=RATING", nil, http.StatusBadRequest, "INVALID_PARAM"},
		{"rating without body", http.MethodPost, fmt.Sprintf("/users/%d/ratings/events/1", owner), "{}", http.StatusBadRequest, "INVALID_PARAM"},
		{"missing compilation", http.MethodGet, "/compilations/404", nil, http.StatusNotFound, "NOT_FOUND"},
		{"blank compilation title", http.MethodPost, "/admin/compilations", map[string]string{"title": "  "}, http.StatusBadRequest, "INVALID_PARAM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := api.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			errBody := decodeError(t, body)
			assert.Equal(t, tt.code, errBody["error"])
			assert.NotEmpty(t, errBody["message"])
		})
	}
}

func TestAdminUsersAndCategories(t *testing.T) {
	api := newAPI(t)
	a := api.createUser(t, "Anna Admin")
	b := api.createUser(t, "Boris Admin")

	resp, body := api.do(t, http.MethodGet, fmt.Sprintf("/admin/users?ids=%d", b), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []struct{ ID int64 }
	require.NoError(t, json.Unmarshal(body, &users))
	require.Len(t, users, 1)
	assert.Equal(t, b, users[0].ID)

	resp, _ = api.do(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", a), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = api.do(t, http.MethodDelete, fmt.Sprintf("/admin/users/%d", a), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cat := api.createCategory(t, "Cinema")
	resp, body = api.do(t, http.MethodPatch, fmt.Sprintf("/admin/categories/%d", cat), map[string]string{"name": "Movies"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	resp, body = api.do(t, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Movies")

	api.createEvent(t, b, cat, 0, false)
	resp, _ = api.do(t, http.MethodDelete, fmt.Sprintf("/admin/categories/%d", cat), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuditTrailIsSigned(t *testing.T) {
	api := newAPI(t)
	api.createCategory(t, "Audited")

	var logs []struct {
		EntityType     string
		Action         string
		SignatureValid bool
	}
	require.Eventually(t, func() bool {
		resp, body := api.do(t, http.MethodGet, "/admin/audit?entityType=CATEGORY&verify=true", nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		logs = nil
		if err := json.Unmarshal(body, &logs); err != nil {
			return false
		}
		return len(logs) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "CREATE", logs[0].Action)
	assert.True(t, logs[0].SignatureValid)
}

func TestRecordHitDropsPort(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"198.51.100.7", "198.51.100.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			hits := &hitLog{}
			srv := NewServer(nil, nil, nil, nil, nil, nil, nil, nil, hits, zerolog.Nop())
			req := httptest.NewRequest(http.MethodGet, "/events/1", nil)
			req.RemoteAddr = tt.remoteAddr
			srv.recordHit(req)
			assert.Equal(t, []string{"/events/1"}, hits.uris)
			assert.Equal(t, []string{tt.want}, hits.ips)
		})
	}
}

func (f *apiFixture) publish(t *testing.T, eventID int64) {
	t.Helper()
	resp, body := f.do(t, http.MethodPatch, fmt.Sprintf("/admin/events/%d", eventID), map[string]string{"stateAction": "PUBLISH_EVENT"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestPublicEventsSortedByViews(t *testing.T) {
	api := newAPI(t)
	owner := api.createUser(t, "Sort Owner")
	cat := api.createCategory(t, "Sorting")
	var ids []int64
	for i := 0; i < 3; i++ {
		ev := api.createEvent(t, owner, cat, 0, false)
		api.publish(t, ev.ID)
		ids = append(ids, ev.ID)
	}

	resp, body := api.do(t, http.MethodGet, "/events?sort=views&size=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var page []eventResponseBody
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page, 2)
	// Equal view counts keep id order.
	assert.Equal(t, ids[0], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)
	assert.Equal(t, int64(5), page[0].Views)

	resp, body = api.do(t, http.MethodGet, "/events?sort=EVENT_DATE", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page, 3)
}

type ratingBody struct {
	ID      int64
	UserID  int64
	EventID int64
	IsLike  bool
	Created string
}

func TestRatingsOverHTTP(t *testing.T) {
	api := newAPI(t)
	author := api.createUser(t, "Rita Author")
	fan := api.createUser(t, "Fred Fan")
	critic := api.createUser(t, "Cora Critic")
	cat := api.createCategory(t, "Rated")
	draft := api.createEvent(t, author, cat, 0, false)
	ev := api.createEvent(t, author, cat, 0, false)
	api.publish(t, ev.ID)

	rate := func(userID, eventID int64, like bool) (*http.Response, []byte) {
		return api.do(t, http.MethodPost, fmt.Sprintf("/users/%d/ratings/events/%d", userID, eventID), map[string]bool{"isLike": like})
	}

	resp, body := rate(fan, draft.ID, true)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))
	resp, body = rate(author, ev.ID, true)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, body = rate(fan, ev.ID, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created ratingBody
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, fan, created.UserID)
	assert.True(t, created.IsLike)
	_, err := time.Parse(dateTimeLayout, created.Created)
	assert.NoError(t, err)

	resp, _ = rate(fan, ev.ID, false)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = rate(critic, ev.ID, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	resp, body = api.do(t, http.MethodPatch, fmt.Sprintf("/users/%d/ratings/events/%d", critic, ev.ID), map[string]bool{"isLike": false})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = api.do(t, http.MethodGet, fmt.Sprintf("/ratings/events/%d", ev.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, fmt.Sprintf(`{"eventId":%d,"eventTitle":"Go meetup","authorId":%d,"authorName":"Rita Author","likes":1,"dislikes":1,"rating":0}`, ev.ID, author), string(body))

	resp, body = api.do(t, http.MethodGet, "/ratings/events/top?size=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var top []struct{ EventID int64 }
	require.NoError(t, json.Unmarshal(body, &top))
	require.Len(t, top, 1)
	assert.Equal(t, ev.ID, top[0].EventID)

	resp, body = api.do(t, http.MethodDelete, fmt.Sprintf("/users/%d/ratings/events/%d", critic, ev.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	resp, body = api.do(t, http.MethodGet, "/ratings/users/top", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, fmt.Sprintf(`[{"authorId":%d,"authorName":"Rita Author","rating":1}]`, author), string(body))

	resp, body = api.do(t, http.MethodGet, fmt.Sprintf("/users/%d/ratings", fan), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var mine []ratingBody
	require.NoError(t, json.Unmarshal(body, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, ev.ID, mine[0].EventID)

	resp, _ = api.do(t, http.MethodGet, fmt.Sprintf("/users/%d/ratings/events/%d", critic, ev.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type compilationBody struct {
	ID     int64
	Title  string
	Pinned bool
	Events []eventResponseBody
}

func TestCompilationsOverHTTP(t *testing.T) {
	api := newAPI(t)
	owner := api.createUser(t, "Curator Owner")
	cat := api.createCategory(t, "Curated")
	first := api.createEvent(t, owner, cat, 0, false)
	second := api.createEvent(t, owner, cat, 0, false)

	resp, body := api.do(t, http.MethodPost, "/admin/compilations", map[string]interface{}{
		"title":  "Best of the month",
		"events": []int64{second.ID, first.ID, 9999},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created compilationBody
	require.NoError(t, json.Unmarshal(body, &created))
	assert.False(t, created.Pinned)
	require.Len(t, created.Events, 2)
	assert.Equal(t, second.ID, created.Events[0].ID)
	assert.Equal(t, "Curated", created.Events[0].Category.Name)
	assert.Equal(t, "Curator Owner", created.Events[0].Initiator.Name)

	resp, body = api.do(t, http.MethodPatch, fmt.Sprintf("/admin/compilations/%d", created.ID), map[string]interface{}{"pinned": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated compilationBody
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.True(t, updated.Pinned)
	assert.Len(t, updated.Events, 2)

	resp, body = api.do(t, http.MethodPost, "/admin/compilations", map[string]interface{}{"title": "Empty"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = api.do(t, http.MethodGet, "/compilations?pinned=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var pinned []compilationBody
	require.NoError(t, json.Unmarshal(body, &pinned))
	require.Len(t, pinned, 1)
	assert.Equal(t, created.ID, pinned[0].ID)

	resp, body = api.do(t, http.MethodGet, "/compilations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var all []compilationBody
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all, 2)

	resp, _ = api.do(t, http.MethodDelete, fmt.Sprintf("/admin/compilations/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = api.do(t, http.MethodGet, fmt.Sprintf("/compilations/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
