package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/23Serhii/avesint-platform/internal/backend"
	"github.com/23Serhii/avesint-platform/internal/classify"
	"github.com/23Serhii/avesint-platform/internal/pipeline"
	"github.com/23Serhii/avesint-platform/internal/platform/config"
	"github.com/23Serhii/avesint-platform/internal/platform/observability"
	"github.com/23Serhii/avesint-platform/internal/platform/worker"
	"github.com/23Serhii/avesint-platform/internal/source"
	"github.com/23Serhii/avesint-platform/internal/telegramreader"
)

// App wires the worker: backend client, source registry, membership
// manager, classifier, processor and the live Telegram reader.
type App struct {
	cfg    *config.Config
	logger *zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Run starts the refresh loop and the live connection and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	backendClient := backend.New(
		a.cfg.BackendURL,
		a.cfg.BackendAPIKey,
		a.cfg.SourcesTimeout,
		a.cfg.IngestTimeout,
		a.logger,
	)

	registry := source.NewRegistry(a.cfg.CategoryOverrides(), backendClient, a.logger)
	classifier := classify.New(a.cfg.OllamaURL, a.cfg.LLMModel, a.cfg.LLMTimeout, a.logger)
	processor := pipeline.NewProcessor(a.cfg.MaxConcurrency, classifier, backendClient, registry, a.logger)
	reader := telegramreader.New(a.cfg, processor.HandleMessage, a.logger)
	membership := source.NewMembership(a.cfg.Channels, backendClient, reader, a.logger)

	registry.Refresh(ctx)

	go func() {
		_ = worker.TickerLoop(ctx, worker.TickerConfig{
			Name:       "source-refresh",
			Interval:   a.cfg.RefreshInterval(),
			RunOnStart: true,
			OnTick: func(ctx context.Context) {
				registry.Refresh(ctx)
				membership.Reconcile(ctx)
			},
			Logger: a.logger,
		})
	}()

	return reader.Run(ctx)
}

// StartHealthServer serves /healthz and /metrics until the context is
// canceled.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.cfg.HealthPort, a.logger).Start(ctx)
}
