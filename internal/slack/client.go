// Package slack connects the bot to a Slack workspace: a Web API client
// for posting replies and an Events API server for receiving messages.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("slack bot token not set; required for Slack API access")

// Poster sends messages to a channel.
type Poster interface {
	// PostMessage posts text to channel, as a thread reply when threadTS is set.
	PostMessage(ctx context.Context, channel, text, threadTS string) error
}

// Client is a minimal Slack Web API client.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root (tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a Client for a bot token.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// slackAPIResponse is a generic Slack API response wrapper.
type slackAPIResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// slackAuthTestResponse is the response from auth.test API.
type slackAuthTestResponse struct {
	slackAPIResponse
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
}

type postMessageRequest struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

// PostMessage posts text via chat.postMessage.
func (c *Client) PostMessage(ctx context.Context, channel, text, threadTS string) error {
	var result slackAPIResponse
	body := postMessageRequest{Channel: channel, Text: text, ThreadTS: threadTS}
	if err := c.call(ctx, "chat.postMessage", body, &result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("Slack API error: %s", result.Error)
	}
	return nil
}

// AuthTest returns the bot's own user ID, used to strip self-mentions.
func (c *Client) AuthTest(ctx context.Context) (string, error) {
	var result slackAuthTestResponse
	if err := c.call(ctx, "auth.test", struct{}{}, &result); err != nil {
		return "", err
	}
	if !result.OK {
		return "", fmt.Errorf("Slack API error: %s", result.Error)
	}
	return result.UserID, nil
}

func (c *Client) call(ctx context.Context, method string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s response: %w", method, err)
	}
	return nil
}
