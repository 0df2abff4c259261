package scholar

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/litbot/internal/metrics"
	"github.com/matsen/litbot/internal/reference"
)

const (
	// DefaultTimeout bounds each provider attempt.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxResults is the number of papers fetched per research query.
	DefaultMaxResults = 3
)

// Searcher is what the dispatcher needs from the gateway.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []reference.Paper
}

// Gateway tries providers in order until one returns papers.
type Gateway struct {
	providers []Provider
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout bounds each provider attempt.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithMetrics records per-provider outcomes.
func WithMetrics(m *metrics.Metrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// NewGateway creates a gateway over providers, primary first.
func NewGateway(providers []Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		providers: providers,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Search returns the first non-empty result set, trying each provider
// under its own timeout. When every provider fails or finds nothing the
// result is empty; it never fabricates records.
func (g *Gateway) Search(ctx context.Context, query string, maxResults int) []reference.Paper {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	for _, p := range g.providers {
		papers, err := g.try(ctx, p, query, maxResults)
		switch {
		case err != nil:
			g.metrics.Search(p.Name(), "error")
			g.logger.Warn("search provider failed",
				zap.String("provider", p.Name()),
				zap.String("query", query),
				zap.Error(err))
		case len(papers) == 0:
			g.metrics.Search(p.Name(), "empty")
			g.logger.Info("search provider returned no results",
				zap.String("provider", p.Name()),
				zap.String("query", query))
		default:
			g.metrics.Search(p.Name(), "ok")
			if len(papers) > maxResults {
				papers = papers[:maxResults]
			}
			return papers
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil
}

func (g *Gateway) try(ctx context.Context, p Provider, query string, limit int) ([]reference.Paper, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return p.Search(ctx, query, limit)
}
