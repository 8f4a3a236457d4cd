package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"ecomdash/backend/internal/cache"
	apperrors "ecomdash/backend/internal/errors"
	"ecomdash/backend/internal/metrics"
	"ecomdash/backend/internal/model"
)

type Options struct {
	Cache        cache.Cache
	Keys         cache.KeyGenerator
	Metrics      metrics.Collector
	Logger       zerolog.Logger
	QueryTimeout time.Duration
}

// ProviderStats counts what the provider did since it was opened.
type ProviderStats struct {
	Queries     uint64 `json:"queries"`
	Failures    uint64 `json:"failures"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
}

// Provider is the dashboard's single database handle: a connected client
// fronted by a result cache.
type Provider struct {
	client       DBClient
	cache        cache.Cache
	keys         cache.KeyGenerator
	metrics      metrics.Collector
	logger       zerolog.Logger
	queryTimeout time.Duration
	group        singleflight.Group

	queries  atomic.Uint64
	failures atomic.Uint64
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// Open connects client to dsn and returns a provider over it. Any failure
// is a connection failure; nothing is retried.
func Open(ctx context.Context, client DBClient, dsn string, opts Options) (*Provider, error) {
	if err := client.Connect(ctx, dsn); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConnectionFailed, "unable to connect to database")
	}
	return NewProvider(client, opts), nil
}

// NewProvider wraps an already connected client.
func NewProvider(client DBClient, opts Options) *Provider {
	if opts.Cache == nil {
		opts.Cache = cache.NoopCache{}
	}
	if opts.Keys == nil {
		opts.Keys = cache.DefaultKeyGenerator{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoOpCollector()
	}
	return &Provider{
		client:       client,
		cache:        opts.Cache,
		keys:         opts.Keys,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		queryTimeout: opts.QueryTimeout,
	}
}

// Query runs a read-only statement. A cached result younger than ttl is
// returned without touching the database; ttl <= 0 always queries.
func (p *Provider) Query(ctx context.Context, query string, ttl time.Duration) (*model.QueryResult, error) {
	if ttl <= 0 {
		return p.execute(ctx, query)
	}

	key := p.keys.GenerateKey(query)
	if result, ok := p.lookup(ctx, key, ttl); ok {
		return result, nil
	}

	// The shared statement belongs to every caller waiting on key, so it
	// runs detached from whichever caller started it. QueryTimeout still
	// bounds it.
	ch := p.group.DoChan(key, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		result, err := p.execute(detached, query)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Put(detached, key, result, ttl); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache query result")
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, wrapDBError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			p.logger.Debug().Str("key", key).Msg("Joined in-flight query")
		}
		return res.Val.(*model.QueryResult), nil
	}
}

func (p *Provider) lookup(ctx context.Context, key string, ttl time.Duration) (*model.QueryResult, bool) {
	result, ok, err := p.cache.Get(ctx, key, ttl)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("Cache lookup failed, querying database")
	}
	if ok {
		p.hits.Add(1)
		p.metrics.IncrementCounter(metrics.CacheHits)
		p.logger.Debug().Str("key", key).Msg("Cache hit")
		return result, true
	}
	p.misses.Add(1)
	p.metrics.IncrementCounter(metrics.CacheMisses)
	return nil, false
}

func (p *Provider) execute(ctx context.Context, query string) (*model.QueryResult, error) {
	if p.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.queryTimeout)
		defer cancel()
	}

	p.queries.Add(1)
	p.metrics.IncrementCounter(metrics.DBQueries)
	timer := p.metrics.StartTimer(metrics.DBQuerySeconds)

	result, err := p.client.ExecuteQuery(ctx, query)
	elapsed := timer.Stop()
	p.metrics.RecordHistogram(metrics.DBQuerySeconds, elapsed)

	if err != nil {
		wrapped := wrapDBError(err)
		if apperrors.IsCanceled(wrapped) {
			return nil, wrapped
		}
		p.failures.Add(1)
		p.metrics.IncrementCounter(metrics.DBQueryErrors, "code", apperrors.GetCode(wrapped))
		return nil, wrapped
	}

	p.logger.Debug().
		Int("rows", len(result.Rows)).
		Float64("seconds", elapsed).
		Msg("Executed query")
	return result, nil
}

func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.CodeConnectionFailed, "unable to connect to database")
	}
	return nil
}

func (p *Provider) Client() DBClient {
	return p.client
}

func (p *Provider) Stats() ProviderStats {
	return ProviderStats{
		Queries:     p.queries.Load(),
		Failures:    p.failures.Load(),
		CacheHits:   p.hits.Load(),
		CacheMisses: p.misses.Load(),
	}
}

// Close releases the cache and the connection pool.
func (p *Provider) Close() error {
	cacheErr := p.cache.Close()
	if err := p.client.Disconnect(); err != nil {
		return err
	}
	return cacheErr
}
