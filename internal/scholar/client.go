// Package scholar queries academic search providers and normalizes their
// results into reference.Paper records.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/litbot/internal/reference"
)

// DefaultHTTPTimeout bounds a single provider request.
const DefaultHTTPTimeout = 30 * time.Second

// userAgent identifies the bot to providers.
const userAgent = "litbot/1.0 (+https://github.com/matsen/litbot)"

// Provider is one academic search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]reference.Paper, error)
}

// httpClient is the rate-limited transport shared by the provider clients.
type httpClient struct {
	provider string
	client   *http.Client
	limiter  *rate.Limiter
	headers  map[string]string
}

func newHTTPClient(provider string, rps float64) *httpClient {
	return &httpClient{
		provider: provider,
		client:   &http.Client{Timeout: DefaultHTTPTimeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		headers:  map[string]string{"User-Agent": userAgent},
	}
}

// getJSON performs a rate-limited GET and decodes the JSON body into out.
func (c *httpClient) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(c.provider, resp); err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
