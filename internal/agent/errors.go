package agent

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/litbot/internal/bibliography"
	"github.com/matsen/litbot/internal/llm"
)

// User-facing messages that do not depend on the request.
const (
	RateLimitedMessage = "I'm currently rate limited by the language model. Please try again later."
	LLMFailureMessage  = "Sorry, I couldn't get a response from the language model. Please try again."
	InternalMessage    = "Sorry, something went wrong while processing your request. Please try again."
)

// InputError is a problem with what the user asked for. Its message is
// shown as the reply.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func inputErrorf(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// ActionError is a valid request that failed to complete, typically a
// store write. Message is shown; Err is logged.
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func paperNotFound(raw string) error {
	return inputErrorf("Paper %s not found. Use !papers to see available papers.", raw)
}

// Render turns an operation error into the reply text, logging anything
// that is not the user's fault.
func (a *Agent) Render(err error) string {
	return a.render(a.logger, err)
}

func (a *Agent) render(logger *zap.Logger, err error) string {
	var inputErr *InputError
	var actionErr *ActionError
	var indexErr *bibliography.IndexError

	switch {
	case errors.As(err, &inputErr):
		return inputErr.Message
	case errors.Is(err, bibliography.ErrNoPapers):
		return bibliography.EmptyMessage
	case errors.As(err, &indexErr):
		return paperNotFound(indexErr.Raw).Error()
	case errors.As(err, &actionErr):
		logger.Error("action failed", zap.String("reply", actionErr.Message), zap.Error(actionErr.Err))
		return actionErr.Message
	case errors.Is(err, llm.ErrRetriesExhausted):
		logger.Warn("llm retries exhausted", zap.Error(err))
		return RateLimitedMessage
	}

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		a.metrics.LLMError(llmErr.Kind.String())
		logger.Error("llm call failed", zap.Error(err))
		return LLMFailureMessage
	}
	logger.Error("request failed", zap.Error(err))
	return InternalMessage
}
