// Package llm abstracts the chat completion backends used for outfit ranking.
package llm

import (
	"context"
	"errors"
)

// Predefined errors for LLM operations.
var (
	// ErrRateLimited is returned when the backend rejects the call for
	// quota reasons. Callers may retry with backoff.
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrTimeout is returned when the completion did not finish in time.
	// Callers may retry with backoff.
	ErrTimeout = errors.New("llm: request timed out")

	// ErrUnavailable is returned for other backend failures.
	ErrUnavailable = errors.New("llm: backend unavailable")
)

// Provider generates chat completions.
type Provider interface {
	// Complete sends a system/user message pair and returns the raw
	// completion text.
	Complete(ctx context.Context, system, user string) (string, error)

	// Name identifies the backend.
	Name() string
}
