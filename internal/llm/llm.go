// Package llm talks to chat-completion backends.
package llm

import "context"

// Request is a single-turn completion request.
type Request struct {
	System string
	User   string
	// JSON asks the backend for a JSON object response.
	JSON bool
}

// Client returns completion text for a request, or an error. Backends
// report rate limiting as an *Error with Kind RateLimited.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
