package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/nutrition"
)

// Cache key prefixes.
const (
	FoodsCachePrefix    = "foods-"
	WorkoutsCachePrefix = "workouts-"
	StatsCachePrefix    = "stats-"
)

// CatalogKey is the key under which a whole catalog collection is cached.
const CatalogKey = "all"

// EngineCache holds the caches used by the engine.
type EngineCache struct {
	FoodsCache    *PrefixedCache[[]database.Food]
	WorkoutsCache *PrefixedCache[[]database.Workout]
	// StatsCache is keyed by username and date.
	StatsCache *PrefixedCache[nutrition.Stats]

	ttl time.Duration
}

func NewEngineCache(cfg *config.CacheConfig, ttl time.Duration) *EngineCache {
	return &EngineCache{
		FoodsCache: NewPrefixedCache[[]database.Food](
			newCacheInstanceByType(cfg),
			cfg.Type,
			FoodsCachePrefix,
		),
		WorkoutsCache: NewPrefixedCache[[]database.Workout](
			newCacheInstanceByType(cfg),
			cfg.Type,
			WorkoutsCachePrefix,
		),
		StatsCache: NewPrefixedCache[nutrition.Stats](
			newCacheInstanceByType(cfg),
			cfg.Type,
			StatsCachePrefix,
		),
		ttl: ttl,
	}
}

// Expiration returns the store option applying the configured TTL.
func (e *EngineCache) Expiration() store.Option {
	return store.WithExpiration(e.ttl)
}

// ClearAll empties every cache.
func (e *EngineCache) ClearAll(ctx context.Context) {
	errs := []error{
		e.FoodsCache.Clear(ctx),
		e.WorkoutsCache.Clear(ctx),
		e.StatsCache.Clear(ctx),
	}
	for _, err := range errs {
		if err != nil {
			log.Errorf("failed to clear cache: %v", err)
		}
	}
}

type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}

func (e *EngineCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     e.FoodsCache.GetStats(),
			CacheName: "foods",
		},
		{
			Stats:     e.WorkoutsCache.GetStats(),
			CacheName: "workouts",
		},
		{
			Stats:     e.StatsCache.GetStats(),
			CacheName: "stats",
		},
	}
}
