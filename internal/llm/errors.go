package llm

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies backend failures.
type Kind int

const (
	KindOther Kind = iota
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	default:
		return "other"
	}
}

// Error is a classified backend failure.
type Error struct {
	Kind Kind
	// RetryAfter is the backend's requested wait, zero when unknown.
	RetryAfter time.Duration
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("llm %s (retry after %s): %s", e.Kind, e.RetryAfter, msg)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrRetriesExhausted is returned when every attempt was rate limited.
var ErrRetriesExhausted = errors.New("llm rate limit retries exhausted")

// IsRateLimited reports whether err is a rate-limit failure and the wait
// the backend asked for.
func IsRateLimited(err error) (time.Duration, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRateLimited {
		return e.RetryAfter, true
	}
	return 0, false
}

// KindOf returns the Kind of err, KindOther for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}
