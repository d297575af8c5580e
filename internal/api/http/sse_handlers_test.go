package httpapi

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDeliversRequestNotifications(t *testing.T) {
	api := newAPI(t)
	owner := api.createUser(t, "Stream Owner")
	guest := api.createUser(t, "Stream Guest")
	cat := api.createCategory(t, "Streams")
	ev := api.createEvent(t, owner, cat, 5, true)
	resp, _ := api.do(t, http.MethodPatch, fmt.Sprintf("/admin/events/%d", ev.ID), map[string]string{"stateAction": "PUBLISH_EVENT"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/users/%d/stream", api.ts.URL, owner), nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	reader := bufio.NewReader(stream.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	resp, body := api.do(t, http.MethodPost, fmt.Sprintf("/users/%d/requests?eventId=%d", guest, ev.ID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var eventLine, dataLine string
	for dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimPrefix(line, "data: ")
		}
	}
	assert.Equal(t, "request.status", eventLine)
	assert.Contains(t, dataLine, `"status":"PENDING"`)
	assert.Contains(t, dataLine, fmt.Sprintf(`"eventId":%d`, ev.ID))
}

func TestStreamUnknownUser(t *testing.T) {
	api := newAPI(t)
	resp, body := api.do(t, http.MethodGet, "/users/404/stream", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, body)["error"])
}
