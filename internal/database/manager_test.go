package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, logrus.New()), mr
}

func TestCache_IncrementWindow(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := cache.IncrementWindow(ctx, "client-a", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))
}

func TestCache_GetCacheStats(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.IncrementWindow(ctx, "client-a", time.Hour)
	require.NoError(t, err)
	_, err = cache.IncrementWindow(ctx, "client-b", time.Hour)
	require.NoError(t, err)

	stats, err := cache.GetCacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats["keys"])
}

func TestCache_GetCacheStatsUnreachable(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	_, err := cache.GetCacheStats(context.Background())
	assert.Error(t, err)
}

func TestCache_ExtractStat(t *testing.T) {
	cache := &Cache{}
	info := "# Stats\r\nkeyspace_hits:12\r\nkeyspace_misses:3\r\n"

	assert.Equal(t, "12", cache.extractStat(info, "keyspace_hits"))
	assert.Equal(t, "3", cache.extractStat(info, "keyspace_misses"))
	assert.Equal(t, "0", cache.extractStat(info, "total_commands_processed"))
	assert.Equal(t, "7", cache.extractStat("connected_clients:7\n", "connected_clients"))
}
