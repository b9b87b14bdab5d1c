package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/andinanews/pipeline/alerts"
	"github.com/andinanews/pipeline/config"
	"github.com/andinanews/pipeline/controller"
	"github.com/andinanews/pipeline/datastore"
	"github.com/andinanews/pipeline/httpapi"
	"github.com/andinanews/pipeline/internal/breaker"
	"github.com/andinanews/pipeline/internal/retry"
	"github.com/andinanews/pipeline/jobs"
	"github.com/andinanews/pipeline/llm"
	_ "github.com/andinanews/pipeline/llm/providers"
	"github.com/andinanews/pipeline/metrics"
)

// drainPeriod bounds how long Shutdown waits for in-flight requests to
// finish before forcing the HTTP server closed.
const drainPeriod = 30 * time.Second

// App wires every component explicitly rather than relying on package-
// level singletons, per the redesign away from get-or-create globals.
type App struct {
	cfg *config.Config

	registry *metrics.Registry
	tracker  *jobs.Tracker
	alerts   *alerts.Manager
	ctrl     *controller.Controller
	server   *http.Server

	logger *slog.Logger
}

// NewApp constructs an App from configuration without starting any
// background work; call Start to bring it up.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := metrics.NewRegistry()
	tracker := jobs.NewTracker(cfg.Jobs.RetentionPeriod)
	alertManager := alerts.NewManager(registry, alerts.DefaultRules())

	llmClient, err := buildLLMChain(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build llm chain: %w", err)
	}

	store := datastore.NewClient(cfg.Datastore.BaseURL, cfg.Datastore.MaxConnections,
		datastore.WithLogger(logger),
		datastore.WithBreakerConfig(breaker.Config{FailureThreshold: cfg.Datastore.BreakerThreshold, OpenDuration: cfg.Datastore.BreakerOpenPeriod}),
	)

	ctrl := controller.New(llmClient, store, store)

	srv := httpapi.NewServer(ctrl, tracker, registry, alertManager, logger,
		httpapi.WithSyncThresholds(cfg.HTTP.SyncMaxBytesArticle, cfg.HTTP.SyncMaxBytesFragment),
		httpapi.WithHealthCheckers(llmClient, store),
	)

	return &App{
		cfg:      cfg,
		registry: registry,
		tracker:  tracker,
		alerts:   alertManager,
		ctrl:     ctrl,
		server:   &http.Server{Addr: cfg.HTTP.ListenAddr, Handler: srv},
		logger:   logger,
	}, nil
}

// buildLLMChain constructs the primary provider, falling back to a
// secondary provider/model when configured.
func buildLLMChain(cfg *config.Config, logger *slog.Logger) (*llm.FallbackChain, error) {
	primaryProvider, err := llm.GetProvider(cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}
	primary := llm.NewClient(primaryProvider, cfg.LLM.Endpoint, cfg.LLM.Model,
		llm.WithLogger(logger),
		llm.WithRetryPolicy(retry.Policy{MaxAttempts: 3, BackoffBase: time.Second, BackoffMultiplier: 2, MaxBackoff: 60 * time.Second}),
		llm.WithBreakerConfig(breaker.Config{FailureThreshold: cfg.LLM.BreakerThreshold, OpenDuration: cfg.LLM.BreakerOpenPeriod}),
		llm.WithHTTPClient(&http.Client{Timeout: cfg.LLM.Timeout}),
	)

	clients := []*llm.Client{primary}

	if cfg.LLM.FallbackProvider != "" {
		fallbackProvider, err := llm.GetProvider(cfg.LLM.FallbackProvider)
		if err != nil {
			return nil, err
		}
		fallback := llm.NewClient(fallbackProvider, cfg.LLM.FallbackEndpoint, cfg.LLM.FallbackModel,
			llm.WithLogger(logger),
			llm.WithBreakerConfig(breaker.Config{FailureThreshold: cfg.LLM.BreakerThreshold, OpenDuration: cfg.LLM.BreakerOpenPeriod}),
		)
		clients = append(clients, fallback)
	}

	return llm.NewFallbackChain(clients...), nil
}

// Start runs background loops (job sweeper, alert evaluation) and
// blocks serving HTTP until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	a.tracker.RunSweeper(a.cfg.Jobs.SweepInterval)
	a.alerts.Run(a.cfg.Alerts.EvaluationInterval)

	a.logger.Info("pipeline listening", slog.String("addr", a.cfg.HTTP.ListenAddr))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown()
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// Shutdown drains in-flight HTTP requests and stops background loops.
func (a *App) Shutdown() error {
	a.logger.Info("pipeline shutting down", slog.Duration("drain_period", drainPeriod))

	ctx, cancel := context.WithTimeout(context.Background(), drainPeriod)
	defer cancel()

	err := a.server.Shutdown(ctx)

	a.tracker.Stop()
	a.alerts.Stop()

	return err
}
