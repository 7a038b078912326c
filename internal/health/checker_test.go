package health

import (
	"context"
	"errors"
	"testing"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func statusByName(h OverallHealth) map[string]string {
	out := make(map[string]string)
	for _, s := range h.Services {
		out[s.Name] = s.Status
	}
	return out
}

func TestCheckAll_NothingConfigured(t *testing.T) {
	checker := NewHealthChecker(&database.Manager{}, nil, logrus.New())

	health := checker.CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, health.Status)
	assert.Equal(t, map[string]string{
		"postgresql": StatusDisabled,
		"redis":      StatusDisabled,
		"chatgpt":    StatusDisabled,
	}, statusByName(health))
}

func TestCheckAll_RedisAndUpstream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	upstreamDown := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	checker := NewHealthChecker(&database.Manager{Redis: client}, upstreamDown, logrus.New())

	health := checker.CheckAll(context.Background())
	assert.Equal(t, StatusDegraded, health.Status)
	assert.Equal(t, StatusHealthy, statusByName(health)["redis"])
	assert.Equal(t, StatusDegraded, statusByName(health)["chatgpt"])

	mr.Close()
	health = checker.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, health.Status)
}

func TestCheckRedis_ReportsStats(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	require.NoError(t, mr.Set("ratelimit:a:1", "3"))
	require.NoError(t, mr.Set("ratelimit:b:1", "1"))

	checker := NewHealthChecker(&database.Manager{Redis: client}, nil, logrus.New())

	result := checker.CheckRedis(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	require.NotNil(t, result.Details)
	assert.Equal(t, int64(2), result.Details["keys"])
}

func TestCheckRedis_NoStatsWhenDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	checker := NewHealthChecker(&database.Manager{Redis: client}, nil, logrus.New())

	result := checker.CheckRedis(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Nil(t, result.Details)
}

func TestCheckCached(t *testing.T) {
	checker := NewHealthChecker(&database.Manager{}, pingFunc(func(context.Context) error { return nil }), logrus.New())

	_, ok := checker.CheckCached()
	assert.False(t, ok)

	checker.CheckAll(context.Background())
	cached, ok := checker.CheckCached()
	require.True(t, ok)
	assert.Equal(t, StatusHealthy, cached.Status)
	assert.Equal(t, StatusHealthy, statusByName(*cached)["chatgpt"])
}
