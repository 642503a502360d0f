package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/marketintel/config"
	"github.com/mohammad-safakhou/marketintel/internal/capability"
	"github.com/mohammad-safakhou/marketintel/internal/logger"
	"github.com/mohammad-safakhou/marketintel/internal/metrics"
	"github.com/mohammad-safakhou/marketintel/internal/pipeline"
	"github.com/mohammad-safakhou/marketintel/provider"
	"github.com/mohammad-safakhou/marketintel/tools/market"
	"github.com/mohammad-safakhou/marketintel/tools/web_fetch"
	"github.com/mohammad-safakhou/marketintel/tools/web_search"
	"github.com/sirupsen/logrus"
)

// app is the dependency graph shared by every command.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	metrics   *metrics.Metrics
	generator provider.Generator
	registry  *capability.Registry
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.General.LogLevel, cfg.General.LogFile)
	if err != nil {
		return nil, err
	}
	m := metrics.New()

	gen, err := provider.NewProvider(ctx, cfg.LLM)
	if errors.Is(err, provider.ErrNoBackend) {
		log.Warn("no generation backend configured, every model-backed tool will use its fallback")
		gen = nil
	} else if err != nil {
		return nil, err
	}

	searcher, err := web_search.NewWebSearcher(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("search backend: %w", err)
	}

	toolset := market.NewToolset(
		market.WithGenerator(gen),
		market.WithSearcher(searcher),
		market.WithFetcher(web_fetch.NewWebFetcher(cfg.Fetch.Timeout, cfg.Fetch.MaxChars)),
		market.WithParams(generationParams(cfg.LLM)),
		market.WithMaxResults(cfg.Search.MaxResults),
		market.WithLogger(log),
		market.WithMetrics(m),
	)
	reg := capability.NewRegistry(log, m)
	if err := toolset.Register(reg); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, metrics: m, generator: gen, registry: reg}, nil
}

func generationParams(cfg config.LLMConfig) market.GenerationParams {
	return market.GenerationParams{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens, TopP: cfg.TopP}
}

// invoker dispatches in-process unless tools.remote_url points at a tool server.
func (a *app) invoker() capability.Invoker {
	if a.cfg.Tools.RemoteURL != "" {
		a.log.WithField("remote_url", a.cfg.Tools.RemoteURL).Info("dispatching tools remotely")
		return capability.NewClient(a.cfg.Tools.RemoteURL, a.cfg.Tools.Timeout, a.log)
	}
	return a.registry
}

func (a *app) orchestrator() *pipeline.Orchestrator {
	return pipeline.New(a.invoker(),
		pipeline.WithGenerator(a.generator),
		pipeline.WithParams(generationParams(a.cfg.LLM)),
		pipeline.WithConfig(a.cfg.Pipeline),
		pipeline.WithLogger(a.log),
		pipeline.WithMetrics(a.metrics),
	)
}
