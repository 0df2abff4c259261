package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/matsen/litbot/internal/agent"
	"github.com/matsen/litbot/internal/bot"
	"github.com/matsen/litbot/internal/llm"
	"github.com/matsen/litbot/internal/metrics"
	"github.com/matsen/litbot/internal/scholar"
	"github.com/matsen/litbot/internal/storage"
)

// app holds the components shared by serve and chat.
type app struct {
	backend  storage.Backend
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	gateway  *scholar.Gateway
	bot      *bot.Bot
}

// newGateway builds the Semantic Scholar then OpenAlex search chain.
func newGateway(m *metrics.Metrics) *scholar.Gateway {
	s2Opts := []scholar.S2Option{}
	if cfg.Search.S2APIKey != "" {
		s2Opts = append(s2Opts, scholar.WithS2APIKey(cfg.Search.S2APIKey))
	}
	providers := []scholar.Provider{
		scholar.NewSemanticScholar(s2Opts...),
		scholar.NewOpenAlex(scholar.WithMailto(cfg.Search.Mailto)),
	}
	return scholar.NewGateway(providers,
		scholar.WithTimeout(cfg.Search.Timeout),
		scholar.WithLogger(logger.Named("search")),
		scholar.WithMetrics(m))
}

// newApp opens storage and wires the bot. Callers must call close.
func newApp(ctx context.Context) (*app, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.Storage.Backend,
		Dir:         cfg.Storage.Dir,
		PostgresURL: cfg.Storage.PostgresURL,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	stores, err := agent.NewStores(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
		Logger:  logger.Named("llm"),
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gateway := newGateway(m)
	a := agent.New(stores, client, gateway,
		agent.WithLogger(logger.Named("agent")),
		agent.WithMetrics(m),
		agent.WithMaxResults(cfg.Search.MaxResults))

	logger.Info("litbot ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("model", cfg.LLM.Model),
		zap.String("llm_base_url", cfg.LLM.BaseURL))

	return &app{
		backend:  backend,
		registry: reg,
		metrics:  m,
		gateway:  gateway,
		bot:      bot.New(a, bot.WithLogger(logger.Named("bot"))),
	}, nil
}

func (a *app) close() {
	if err := a.backend.Close(); err != nil {
		logger.Error("closing storage", zap.Error(err))
	}
}
