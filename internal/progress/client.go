package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client posts resource-completed events to a remote aggregate-progress
// endpoint over JSON/HTTP.
type Client struct {
	url    string       // e.g. "http://progress.internal:9090"
	client *http.Client // reused across calls
}

// Compile-time check: *Client satisfies the Reporter interface.
var _ Reporter = (*Client)(nil)

// NewClient creates a reporter for the given endpoint. timeout bounds
// each call; the rollup is a denormalization that can be repaired later,
// so the budget is deliberately short.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// ResourceCompleted posts the event. A non-2xx response or transport
// error is wrapped in a ReportError.
func (c *Client) ResourceCompleted(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return &ReportError{Reason: "encoding event", Wrapped: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/progress/completed", bytes.NewReader(body))
	if err != nil {
		return &ReportError{Reason: "building request", Wrapped: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &ReportError{Reason: "calling progress endpoint", Wrapped: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ReportError{Reason: fmt.Sprintf("progress endpoint returned %d", resp.StatusCode)}
	}
	return nil
}

// Noop discards events. Used when no progress endpoint is configured.
type Noop struct{}

var _ Reporter = Noop{}

func (Noop) ResourceCompleted(context.Context, Event) error { return nil }
