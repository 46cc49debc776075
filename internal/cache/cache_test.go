package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache() *EngineCache {
	return NewEngineCache(&config.CacheConfig{Type: config.CacheTypeMemory}, time.Minute)
}

func TestPrefixedCache_SetGet(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	foods := []database.Food{{CatalogItem: database.CatalogItem{Name: "Rice", Public: true}}}
	require.NoError(t, c.FoodsCache.Set(ctx, CatalogKey, foods, c.Expiration()))

	got, err := c.FoodsCache.Get(ctx, CatalogKey)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rice", got[0].Name)
	assert.True(t, got[0].Public)
	assert.Equal(t, config.CacheTypeMemory, c.FoodsCache.GetType())
}

func TestPrefixedCache_MissAndDelete(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	_, err := c.StatsCache.Get(ctx, "alice:2024-03-10")
	assert.Error(t, err)

	require.NoError(t, c.StatsCache.Set(ctx, "alice:2024-03-10", nutrition.Stats{Streak: 3}))
	got, err := c.StatsCache.Get(ctx, "alice:2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Streak)

	require.NoError(t, c.StatsCache.Delete(ctx, "alice:2024-03-10"))
	_, err = c.StatsCache.Get(ctx, "alice:2024-03-10")
	assert.Error(t, err)
}

func TestEngineCache_ClearAll(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	require.NoError(t, c.WorkoutsCache.Set(ctx, CatalogKey, []database.Workout{{}}))
	require.NoError(t, c.StatsCache.Set(ctx, "bob", nutrition.Stats{}))
	c.ClearAll(ctx)

	_, err := c.WorkoutsCache.Get(ctx, CatalogKey)
	assert.Error(t, err)
	_, err = c.StatsCache.Get(ctx, "bob")
	assert.Error(t, err)

	stats := c.GetStats()
	require.Len(t, stats, 3)
	assert.Equal(t, "foods", stats[0].CacheName)
}
