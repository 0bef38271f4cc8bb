package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds store reads made while serving a request.
	DefaultTimeout = 10 * time.Second

	// ShortTimeout is for quick operations such as rate limit counters.
	ShortTimeout = 2 * time.Second
)

// WithTimeout creates a context with default timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithShortTimeout creates a context with short timeout for quick operations
func WithShortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ShortTimeout)
}
