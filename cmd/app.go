package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"ecomdash/backend/internal/cache"
	"ecomdash/backend/internal/config"
	apperrors "ecomdash/backend/internal/errors"
	"ecomdash/backend/internal/metrics"
	"ecomdash/backend/internal/report"
	"ecomdash/backend/internal/service"
)

// app is everything a command needs once the database is reachable.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	registry   *prometheus.Registry
	metrics    metrics.Collector
	provider   *service.Provider
	dispatcher *report.Dispatcher
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = metrics.NewPrometheusCollector(a.registry)
	} else {
		a.metrics = metrics.NewNoOpCollector()
	}

	creds, err := config.LoadCredentials(cfg.SecretsFile)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConnectionFailed, connectionMessage(cfg))
	}

	resultCache, err := cache.New(cfg.CacheConfig(), cache.NewStatsCollector())
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	if rc, ok := resultCache.(*cache.RedisCache); ok {
		if err := rc.Ping(ctx); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Cache.Redis.Addr).Msg("Redis cache unreachable, queries will hit the database")
		}
	}

	client, err := service.NewClient(cfg.Database.Driver, cfg.PoolOptions())
	if err != nil {
		resultCache.Close()
		return nil, err
	}

	logger.Info().
		Str("driver", client.Driver()).
		Str("dsn", creds.Redacted(cfg.Database)).
		Str("cache", cfg.Cache.Backend).
		Msg("Connecting to database")

	connectCtx := ctx
	if cfg.Database.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
	}
	provider, err := service.Open(connectCtx, client, creds.DSN(cfg.Database), service.Options{
		Cache:        resultCache,
		Metrics:      a.metrics,
		Logger:       logger.With().Str("component", "provider").Logger(),
		QueryTimeout: cfg.Database.QueryTimeout,
	})
	if err != nil {
		resultCache.Close()
		logger.Error().Err(err).Msg("Database connection failed")
		return nil, apperrors.Wrap(err, apperrors.CodeConnectionFailed, connectionMessage(cfg))
	}
	a.provider = provider

	a.dispatcher = report.NewDispatcher(provider, report.Default(), report.Options{
		TTL:      cfg.Cache.TTL,
		Parallel: cfg.Dashboard.ParallelPanels,
		Metrics:  a.metrics,
		Logger:   logger.With().Str("component", "dispatcher").Logger(),
	})
	return a, nil
}

func connectionMessage(cfg *config.Config) string {
	return "Unable to connect to database. Please check your connection settings in " + cfg.SecretsFile
}

func (a *app) Close() error {
	if a.provider == nil {
		return nil
	}
	return a.provider.Close()
}
