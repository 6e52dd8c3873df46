package patterns

import (
	"context"
	"time"
)

// WithTimeout creates a context with timeout for fail-fast behavior.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

// DefaultTimeout is the default timeout for commerce API requests.
const DefaultTimeout = 3 * time.Second

// SlowBackendTimeout covers the hosted backend's cold starts.
const SlowBackendTimeout = 10 * time.Second
