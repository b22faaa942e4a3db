package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/reco/internal/adapters/dataset"
	"github.com/okian/reco/internal/adapters/explain"
	"github.com/okian/reco/internal/adapters/http/api"
	"github.com/okian/reco/internal/adapters/http/site"
	"github.com/okian/reco/internal/adapters/http/swagger"
	app "github.com/okian/reco/internal/app"
	"github.com/okian/reco/internal/config"
	"github.com/okian/reco/internal/domain/catalog"
	"github.com/okian/reco/internal/domain/popularity"
	"github.com/okian/reco/internal/domain/ranking"
	"github.com/okian/reco/pkg/logger"
	"github.com/okian/reco/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Default Go collectors live on the default registry; ours is custom.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	snap, err := dataset.LoadFiles(ctx, dataset.Paths{
		Products:    cfg.ProductsPath,
		Ingredients: cfg.IngredientsPath,
		Sales:       cfg.SalesPath,
	})
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	explainer, closeExplainer, err := buildExplainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build explainer: %w", err)
	}
	defer closeExplainer()

	svc, err := buildService(cfg, snap, explainer)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.LLMTimeout() + readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildExplainer wires client -> guard -> cache. Without an API key every
// explanation uses its fallback. The returned func releases cache resources.
func buildExplainer(ctx context.Context, cfg *config.Config) (explain.Explainer, func(), error) {
	noop := func() {}
	if cfg.LLMAPIKey == "" {
		logger.Get().Warn(ctx, "no language model API key configured; explanations use fallbacks")
		return explain.Disabled{}, noop, nil
	}

	client, err := explain.NewChatClient(cfg.LLMAPIKey,
		explain.WithBaseURL(cfg.LLMBaseURL),
		explain.WithModel(cfg.LLMModel),
		explain.WithMaxTokens(cfg.LLMMaxTokens),
		explain.WithTemperature(cfg.LLMTemperature),
		explain.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout()}),
	)
	if err != nil {
		return nil, noop, err
	}
	guarded := explain.NewGuarded(client, explain.WithRequestsPerMinute(cfg.LLMRequestsPerMinute))

	ttl := cfg.ExplainCacheTTL()
	if ttl <= 0 {
		return guarded, noop, nil
	}
	if cfg.RedisAddr != "" {
		rdb, err := explain.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		return explain.NewCached(guarded, explain.NewRedisCache(rdb, ttl), explain.WithCallTimeout(cfg.LLMTimeout())), func() { _ = rdb.Close() }, nil
	}
	mem := explain.NewMemoryCache(ttl)
	return explain.NewCached(guarded, mem, explain.WithCallTimeout(cfg.LLMTimeout())), func() { _ = mem.Close() }, nil
}

func buildService(cfg *config.Config, snap *catalog.Snapshot, explainer explain.Explainer) (*app.Service, error) {
	scorer, err := popularity.NewScorer(popularity.WithTrendWindow(cfg.TrendWindowStart, cfg.TrendWindowEnd))
	if err != nil {
		return nil, err
	}
	ranker, err := ranking.New(
		ranking.WithWeights(cfg.SimilarityWeight, cfg.PopularityWeight),
		ranking.WithPopularityScorer(scorer),
	)
	if err != nil {
		return nil, err
	}

	opts := []app.Option{
		app.WithLogger(logger.Get()),
		app.WithRanker(ranker),
		app.WithExplainer(explainer),
		app.WithTopK(cfg.TopK, cfg.MaxTopK),
		app.WithExplainConcurrency(cfg.ExplainConcurrency),
		app.WithExplainTimeout(cfg.LLMTimeout()),
		// Keeps the whole fan-out inside the server WriteTimeout.
		app.WithExplainDeadline(cfg.LLMTimeout()),
		app.WithFallback(cfg.ExplainFallback),
	}
	// Warming fallbacks is pointless when no model is configured.
	if _, disabled := explainer.(explain.Disabled); cfg.WarmupEnabled && !disabled {
		opts = append(opts, app.WithWarmup(cfg.WarmupWorkers, cfg.WarmupQueueSize))
	}
	return app.New(snap, opts...)
}

// newHandler assembles the router: middleware, business API, docs and the
// landing page.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	r := api.NewRouter(ctx, api.NewServer(svc, svc),
		api.WithAllowedOrigins(cfg.AllowedOrigins()),
		api.WithRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow()),
	)
	registerDocs(ctx, r)
	return r
}

func registerDocs(ctx context.Context, r chi.Router) {
	swagger.Register(ctx, r)
	site.Register(ctx, r)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
