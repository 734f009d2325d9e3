// Package queue emits workflow events to RabbitMQ so downstream systems
// (inventory sync, reporting) can react to runs without polling the API.
package queue

import "context"

// Queue names consumed by downstream systems.
const (
	// OutcomeQueueName carries one event per attempted item.
	OutcomeQueueName = "listing.outcomes"
	// RunQueueName carries one event per finished run.
	RunQueueName = "listing.runs"
)

// Publisher emits workflow events to the broker.
type Publisher interface {
	PublishOutcome(ctx context.Context, event OutcomeEvent) error
	PublishRun(ctx context.Context, event RunEvent) error
	Close() error
}
