package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/logger"
)

func newCache(enabled bool) Cache {
	cfg := config.GetDefaultConfig()
	cfg.Cache = config.CacheConfig{Enabled: enabled, CustomerTTL: time.Minute}
	return NewInMemoryCache(cfg, logger.NewNopLogger())
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := newCache(true)
	key := GenerateKey(PrefixProviderCustomer, "maria@example.com")
	assert.Equal(t, "provider_customer:v1:maria@example.com", key)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, "cus_1", 0)
	v, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "cus_1", v)

	c.Delete(ctx, key)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, "cus_1", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok, "entry should expire")

	c.Set(ctx, "a", 1, 0)
	c.Set(ctx, "b", 2, 0)
	c.Flush(ctx)
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestInMemoryCacheDisabled(t *testing.T) {
	ctx := context.Background()
	c := newCache(false)

	c.Set(ctx, "k", "v", 0)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
