package adapters

import (
	"context"

	"puntos/internal/cache"
	"puntos/internal/core"
	applog "puntos/internal/log"
	"puntos/internal/metrics"
	"puntos/internal/ports"
)

const (
	catalogKeyActivities = "activities"
	catalogKeyRewards    = "rewards"
)

var _ ports.CatalogReader = (*CachedCatalog)(nil)

// CachedCatalog serves the last catalog snapshot from a cache until it
// expires or Reload is called. Source errors are never cached.
type CachedCatalog struct {
	source  ports.CatalogReader
	cache   cache.Cache[core.Catalog]
	logger  *applog.Logger
	metrics *metrics.Metrics
}

func NewCachedCatalog(source ports.CatalogReader, c cache.Cache[core.Catalog], logger *applog.Logger, m *metrics.Metrics) *CachedCatalog {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &CachedCatalog{source: source, cache: c, logger: logger.WithComponent(applog.ComponentCatalog), metrics: m}
}

func (c *CachedCatalog) ListActivities(ctx context.Context) (core.Catalog, error) {
	return c.get(ctx, catalogKeyActivities, c.source.ListActivities)
}

func (c *CachedCatalog) ListRewards(ctx context.Context) (core.Catalog, error) {
	return c.get(ctx, catalogKeyRewards, c.source.ListRewards)
}

func (c *CachedCatalog) get(ctx context.Context, key string, load func(context.Context) (core.Catalog, error)) (core.Catalog, error) {
	cat, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "Catalog cache unavailable, reading source", applog.FieldError, err.Error())
	}
	if ok {
		c.hit()
		return cat.Clone(), nil
	}
	c.miss()

	cat, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, cat); err != nil {
		c.logger.WarnContext(ctx, "Catalog cache write failed", applog.FieldError, err.Error())
	}
	return cat.Clone(), nil
}

// Reload drops both snapshots and re-reads the source, so a broken source
// surfaces immediately instead of on the next page view.
func (c *CachedCatalog) Reload(ctx context.Context) error {
	for _, key := range []string{catalogKeyActivities, catalogKeyRewards} {
		if err := c.cache.Delete(ctx, key); err != nil {
			c.logger.WarnContext(ctx, "Catalog cache delete failed", applog.FieldError, err.Error())
		}
	}
	if c.metrics != nil {
		c.metrics.CatalogReloads.Inc()
	}
	if _, err := c.ListActivities(ctx); err != nil {
		return err
	}
	if _, err := c.ListRewards(ctx); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Catalog reloaded", applog.FieldOperation, applog.OpReload)
	return nil
}

func (c *CachedCatalog) hit() {
	if c.metrics != nil {
		c.metrics.CatalogCacheHits.Inc()
	}
}

func (c *CachedCatalog) miss() {
	if c.metrics != nil {
		c.metrics.CatalogCacheMisses.Inc()
	}
}
