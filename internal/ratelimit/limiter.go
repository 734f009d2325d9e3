package ratelimit

import "context"

// Limiter paces operations against a named portal resource.
type Limiter interface {
	Allow(ctx context.Context, resource string) (bool, error)
	Wait(ctx context.Context, resource string) error
}
