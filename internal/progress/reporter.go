package progress

import (
	"context"
	"fmt"
)

// Event is a "resource completed" notification for the aggregate progress
// rollup: which kind of resource was finished, its id, and where it lives
// in the content catalogue.
type Event struct {
	ResourceType string `json:"resource_type"` // "exam" or "quiz"
	ResourceID   string `json:"resource_id"`
	UserID       string `json:"user_id"`
	Provider     string `json:"provider,omitempty"`
	Path         string `json:"path,omitempty"`
}

// Reporter posts resource-completed events to the aggregate progress
// endpoint. Implementations may call a remote service or record events
// in memory (for tests). Failures are best-effort from the caller's
// perspective: the detailed result is already durably saved.
type Reporter interface {
	ResourceCompleted(ctx context.Context, ev Event) error
}

// ReportError is returned when the rollup endpoint rejects or cannot be
// reached, so callers can distinguish it from local failures.
type ReportError struct {
	Reason  string
	Wrapped error
}

func (e *ReportError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("progress update failed: %s: %v", e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("progress update failed: %s", e.Reason)
}

func (e *ReportError) Unwrap() error {
	return e.Wrapped
}
