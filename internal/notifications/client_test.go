package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"touch_daily/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path    string
	title   string
	tags    string
	prio    string
	message string
}

func newServer(t *testing.T, statuses ...int) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var got []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		n := len(got)
		got = append(got, captured{
			path:    r.URL.Path,
			title:   r.Header.Get("Title"),
			tags:    r.Header.Get("Tags"),
			prio:    r.Header.Get("Priority"),
			message: string(body),
		})
		mu.Unlock()
		if n < len(statuses) {
			w.WriteHeader(statuses[n])
		}
	}))
	t.Cleanup(server.Close)
	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), got...)
	}
}

func TestNotifyRunSendsSummary(t *testing.T) {
	server, calls := newServer(t)
	c := NewClient(server.URL+"/", "daily", "high", true, retry.Config{})

	c.NotifyRun(context.Background(), RunSummary{
		Date:     time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		Stores:   3,
		Rows:     120,
		Workbook: "Daily_2025-02-15.xlsx",
	})

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, "/daily", got[0].path)
	assert.Equal(t, "Daily ready", got[0].title)
	assert.Equal(t, "high", got[0].prio)
	assert.Equal(t, "Daily 2025-02-15\nStores: 3\nRows: 120\nFile: Daily_2025-02-15.xlsx", got[0].message)
}

func TestNotifyRunReportsFailure(t *testing.T) {
	server, calls := newServer(t)
	c := NewClient(server.URL, "daily", "", true, retry.Config{})

	c.NotifyRun(context.Background(), RunSummary{Err: errors.New("sheet not found")})

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, "Daily failed", got[0].title)
	assert.Equal(t, "warning", got[0].tags)
	assert.Contains(t, got[0].message, "Error: sheet not found")
}

func TestSendNotificationRetriesServerErrors(t *testing.T) {
	server, calls := newServer(t, http.StatusServiceUnavailable, http.StatusOK)
	c := NewClient(server.URL, "daily", "", true, retry.Config{MaxRetries: 2})

	require.NoError(t, c.SendNotification(context.Background(), "t", "m"))
	assert.Len(t, calls(), 2)
}

func TestSendNotificationStopsOnClientErrors(t *testing.T) {
	server, calls := newServer(t, http.StatusForbidden, http.StatusOK)
	c := NewClient(server.URL, "daily", "", true, retry.Config{MaxRetries: 2})

	err := c.SendNotification(context.Background(), "t", "m")
	var ne *NotificationError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "auth", ne.Type)
	assert.Len(t, calls(), 1)
}

func TestDisabledClientSendsNothing(t *testing.T) {
	server, calls := newServer(t)
	c := NewClient(server.URL, "daily", "", false, retry.Config{})

	require.NoError(t, c.SendNotification(context.Background(), "t", "m"))
	c.NotifyRun(context.Background(), RunSummary{})
	assert.Empty(t, calls())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}
