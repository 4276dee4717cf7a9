package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-dispatch-service/internal/ports"
)

func newRedisLegCache(t *testing.T) (*RedisLegCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLegCache(client, time.Hour), srv
}

func TestRedisLegCacheRoundTrip(t *testing.T) {
	c, _ := newRedisLegCache(t)
	ctx := context.Background()

	legs := map[string]ports.LegMetrics{
		"1 Oak St|2 Elm St":  {DistanceMeters: 4200, DurationSeconds: 380},
		"2 Elm St|3 Pine St": {DistanceMeters: 1800, DurationSeconds: 240},
	}
	require.NoError(t, c.PutMany(ctx, "driving-car", legs))

	got, err := c.GetMany(ctx, "driving-car", []string{
		"1 Oak St|2 Elm St",
		"2 Elm St|3 Pine St",
		"3 Pine St|9 Far Rd",
	})
	require.NoError(t, err)
	assert.Equal(t, legs, got)

	// Modes do not share entries.
	got, err = c.GetMany(ctx, "driving-hgv", []string{"1 Oak St|2 Elm St"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisLegCacheExpiry(t *testing.T) {
	c, srv := newRedisLegCache(t)
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, "driving-car", map[string]ports.LegMetrics{
		"a|b": {DistanceMeters: 100, DurationSeconds: 60},
	}))

	srv.FastForward(2 * time.Hour)

	got, err := c.GetMany(ctx, "driving-car", []string{"a|b"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisLegCacheValidation(t *testing.T) {
	c, _ := newRedisLegCache(t)
	ctx := context.Background()

	_, err := c.GetMany(ctx, "", []string{"a|b"})
	require.Error(t, err)

	got, err := c.GetMany(ctx, "driving-car", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.PutMany(ctx, "driving-car", nil))
}
