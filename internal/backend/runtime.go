package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"puntos/internal/adapters"
	"puntos/internal/amqp"
	"puntos/internal/cache"
	"puntos/internal/config"
	"puntos/internal/core"
	applog "puntos/internal/log"
	"puntos/internal/metrics"
	"puntos/internal/ports"
	"puntos/internal/services"
)

const catalogCachePrefix = "puntos:catalog:"

// Runtime is a fully assembled application: the backend behind the
// fail-open ledger and the cached catalog, optional ledger events, and the
// points service on top.
type Runtime struct {
	Service *services.PointsService
	Backend *BackendResult
	Metrics *metrics.Metrics
	Logger  *applog.Logger

	events       *amqp.Client
	redis        *redis.Client
	cacheManager *cache.Manager
}

// RuntimeOptions lets callers swap collaborators, mostly in tests.
type RuntimeOptions struct {
	Factory Factory
	Metrics *metrics.Metrics
	Logger  *applog.Logger
}

// NewRuntime builds a Runtime from validated application config.
func NewRuntime(ctx context.Context, cfg *config.Config, opts RuntimeOptions) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	factory := opts.Factory
	if factory == nil {
		factory = NewFactory(logger)
	}

	bcfg, err := FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Backend: res, Metrics: m, Logger: logger}

	var catalog ports.CatalogReader = res.Store
	if cfg.CatalogCacheTTL > 0 {
		var c cache.Cache[core.Catalog]
		if cfg.RedisURL != "" {
			rt.redis, err = cache.Connect(cfg.RedisURL)
			if err != nil {
				_ = rt.Close()
				return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
			}
			c = cache.NewRedisCache[core.Catalog](rt.redis, catalogCachePrefix, cfg.CatalogCacheTTL)
		} else {
			lru := cache.NewLRUCache[core.Catalog](4, cfg.CatalogCacheTTL)
			rt.cacheManager = cache.NewManager()
			rt.cacheManager.Register(lru)
			rt.cacheManager.StartCleanup(cfg.CatalogCacheTTL)
			c = lru
		}
		catalog = adapters.NewCachedCatalog(res.Store, c, logger, m)
	}

	var publisher ports.EventPublisher
	if cfg.AMQPURL != "" {
		rt.events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", applog.FieldError, err.Error())
			rt.events = nil
		} else {
			publisher = rt.events
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange)
		}
	}

	rt.Service, err = services.NewPointsService(services.Options{
		Catalog:   catalog,
		Ledger:    adapters.NewFailOpenLedger(res.Store, logger, m),
		Roster:    cfg.Roster(),
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
		Location:  cfg.Location(),
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// Importer returns the backend's catalog importer, or nil.
func (r *Runtime) Importer() ports.CatalogImporter {
	return r.Backend.Importer
}

// Ready checks the backend answers.
func (r *Runtime) Ready(ctx context.Context) error {
	if r.Backend == nil || r.Backend.Ping == nil {
		return nil
	}
	return r.Backend.Ping(ctx)
}

// Close releases everything NewRuntime opened.
func (r *Runtime) Close() error {
	var errs []error
	if r.cacheManager != nil {
		r.cacheManager.Stop()
	}
	if r.events != nil {
		if err := r.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := r.Backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	return errors.Join(errs...)
}
