// Package notify delivers run completion summaries to external endpoints.
package notify

import (
	"context"

	"github.com/aokihara/listing-engine/internal/domain"
)

// Notifier is the outbound run summary port.
type Notifier interface {
	NotifyRunFinished(ctx context.Context, run domain.RunState) (*Response, error)
}

// Response stores notification call metadata for logging.
type Response struct {
	StatusCode int
	Body       string
	RequestID  string
}
