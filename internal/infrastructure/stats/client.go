package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	appName    = "ewm-main-service"
)

// ViewStats is one row of the stats service response.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// EndpointHit is a single page view sent to the stats service.
type EndpointHit struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

// Client talks to the statistics service. A zero BaseURL disables it:
// views are reported as 0 and hits are dropped.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
	now     func() time.Time
}

func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "stats_client").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Stats queries GET /stats for the given uris.
func (c *Client) Stats(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]ViewStats, error) {
	q := url.Values{}
	q.Set("start", start.Format(timeLayout))
	q.Set("end", end.Format(timeLayout))
	q.Set("unique", strconv.FormatBool(unique))
	if len(uris) > 0 {
		q.Set("uris", strings.Join(uris, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats service returned %d", resp.StatusCode)
	}
	var out []ViewStats
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode stats response: %w", err)
	}
	return out, nil
}

// EventViews returns unique views of /events/{id} for every id over the
// last year, fetched in one request. Failures are logged and the result
// is empty; ids without hits are absent from the map.
func (c *Client) EventViews(ctx context.Context, eventIDs []int64) map[int64]int64 {
	views := make(map[int64]int64, len(eventIDs))
	if c.baseURL == "" || len(eventIDs) == 0 {
		return views
	}
	byURI := make(map[string]int64, len(eventIDs))
	uris := make([]string, 0, len(eventIDs))
	for _, id := range eventIDs {
		uri := eventURI(id)
		if _, ok := byURI[uri]; ok {
			continue
		}
		byURI[uri] = id
		uris = append(uris, uri)
	}

	now := c.now()
	rows, err := c.Stats(ctx, now.AddDate(-1, 0, 0), now.Add(time.Hour), uris, true)
	if err != nil {
		c.logger.Warn().Err(err).Int("events", len(uris)).Msg("failed to fetch event views")
		return views
	}
	for _, row := range rows {
		if id, ok := byURI[row.URI]; ok {
			views[id] += row.Hits
		}
	}
	return views
}

func eventURI(eventID int64) string {
	return "/events/" + strconv.FormatInt(eventID, 10)
}

// RecordHit posts a page view in the background.
func (c *Client) RecordHit(uri, ip string) {
	if c.baseURL == "" {
		return
	}
	hit := EndpointHit{App: appName, URI: uri, IP: ip, Timestamp: c.now().Format(timeLayout)}
	go func() {
		if err := c.saveHit(context.Background(), hit); err != nil {
			c.logger.Warn().Err(err).Str("uri", uri).Msg("failed to record hit")
		}
	}()
}

func (c *Client) saveHit(ctx context.Context, hit EndpointHit) error {
	body, err := json.Marshal(hit)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("stats service returned %d", resp.StatusCode)
	}
	return nil
}
