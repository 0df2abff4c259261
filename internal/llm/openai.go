package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// MistralBaseURL is Mistral's OpenAI-compatible endpoint.
	MistralBaseURL = "https://api.mistral.ai/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "mistral-large-latest"

	// DefaultTimeout bounds one completion call.
	DefaultTimeout = 60 * time.Second
)

// OpenAIConfig configures an OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// OpenAIClient is a Client for any OpenAI-compatible chat API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIClient builds a client from cfg, defaulting to Mistral.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &http.Client{Transport: retryAfterTransport{base: http.DefaultTransport}}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}, nil
}

// Complete sends a system + user message pair.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	hint := &retryHint{}
	ctx = context.WithValue(ctx, retryHintKey{}, hint)

	creq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSON {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		cerr := classify(err, hint.after)
		c.logger.Debug("chat completion failed",
			zap.String("model", c.model),
			zap.Stringer("kind", cerr.Kind),
			zap.Error(err))
		return "", cerr
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindOther, Message: "backend returned no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps go-openai errors onto Error.
func classify(err error, retryAfter time.Duration) *Error {
	status := 0
	msg := err.Error()

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		msg = apiErr.Message
		if apiErr.Type == "rate_limit_exceeded" || apiErr.Code == "rate_limit_exceeded" {
			status = http.StatusTooManyRequests
		}
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	kind := KindOther
	if status == http.StatusTooManyRequests || strings.Contains(strings.ToLower(msg), "rate limit") {
		kind = KindRateLimited
	}
	return &Error{Kind: kind, RetryAfter: retryAfter, Message: msg, Err: err}
}

type retryHintKey struct{}

type retryHint struct {
	after time.Duration
}

// retryAfterTransport records the Retry-After header of 429 responses on
// the request's retryHint, which go-openai's errors do not carry.
type retryAfterTransport struct {
	base http.RoundTripper
}

func (t retryAfterTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusTooManyRequests {
		return resp, err
	}
	if hint, ok := req.Context().Value(retryHintKey{}).(*retryHint); ok {
		hint.after = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return resp, nil
}

// parseRetryAfter accepts delay-seconds; HTTP dates are ignored.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// String implements fmt.Stringer for logging.
func (c *OpenAIClient) String() string {
	return fmt.Sprintf("openai-compatible(%s)", c.model)
}
