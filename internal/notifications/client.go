package notifications

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"touch_daily/internal/retry"

	"github.com/rs/zerolog/log"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	priority   string
	retry      retry.Config
}

// RunSummary is what a daily run reports when it finishes.
type RunSummary struct {
	Date     time.Time
	Stores   int
	Rows     int
	Workbook string
	Elapsed  time.Duration
	Err      error
}

type NotificationError struct {
	Type       string
	StatusCode int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s]: %v", e.Type, e.Underlying)
}

func (e *NotificationError) IsRetryable() bool {
	switch e.Type {
	case "network", "server", "rate_limit":
		return true
	default:
		return false
	}
}

func NewClient(baseURL, topic, priority string, enabled bool, retryConfig retry.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		topic:    topic,
		enabled:  enabled,
		priority: priority,
		retry:    retryConfig,
	}
}

func (c *Client) Enabled() bool { return c != nil && c.enabled }

// SendNotification posts message to the topic, retrying transient failures.
func (c *Client) SendNotification(ctx context.Context, title, message string, tags ...string) error {
	if !c.Enabled() {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	_, err := retry.WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		err := c.send(ctx, title, message, tags)
		if ne, ok := err.(*NotificationError); ok && !ne.IsRetryable() {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	})
	return err
}

func (c *Client) send(ctx context.Context, title, message string, tags []string) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	log.Debug().
		Str("url", url).
		Str("title", title).
		Msg("Sending notification")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return &NotificationError{Type: "client", Underlying: err}
	}

	req.Header.Set("Content-Type", "text/plain")
	if title != "" {
		req.Header.Set("Title", title)
	}
	if c.priority != "" {
		req.Header.Set("Priority", c.priority)
	}
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{Type: "network", Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			Type:       categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	log.Debug().Int("status_code", resp.StatusCode).Msg("Notification sent successfully")
	return nil
}

// NotifyRun sends the run summary. Failures are logged and never returned.
func (c *Client) NotifyRun(ctx context.Context, s RunSummary) {
	if !c.Enabled() {
		return
	}

	title, tags := "Daily ready", []string{"white_check_mark"}
	if s.Err != nil {
		title, tags = "Daily failed", []string{"warning"}
	}

	if err := c.SendNotification(ctx, title, FormatRunMessage(s), tags...); err != nil {
		log.Warn().Err(err).Msg("Run notification failed")
		return
	}
	log.Info().Str("topic", c.topic).Msg("Run notification sent")
}

// FormatRunMessage renders the plain-text body of a run notification.
func FormatRunMessage(s RunSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Daily %s\n", s.Date.Format("2006-01-02"))
	if s.Err != nil {
		fmt.Fprintf(&sb, "Error: %v\n", s.Err)
	}
	fmt.Fprintf(&sb, "Stores: %d\n", s.Stores)
	fmt.Fprintf(&sb, "Rows: %d\n", s.Rows)
	if s.Workbook != "" {
		fmt.Fprintf(&sb, "File: %s\n", s.Workbook)
	}
	if s.Elapsed > 0 {
		fmt.Fprintf(&sb, "Elapsed: %s\n", s.Elapsed.Round(time.Second))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}
