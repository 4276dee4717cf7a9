package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"field-dispatch-service/internal/platform/obs"
	"field-dispatch-service/internal/ports"
)

// RedisLegCache keeps per-leg route metrics in Redis so multiple instances
// share one cache. Entries expire after TTL; zero means no expiry.
type RedisLegCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisLegCache(client *redis.Client, ttl time.Duration) *RedisLegCache {
	return &RedisLegCache{Client: client, TTL: ttl}
}

func redisLegKey(mode, key string) string {
	return "leg:" + mode + ":" + key
}

// Fetch cached legs for one routing mode and multiple leg keys.
func (r *RedisLegCache) GetMany(
	ctx context.Context,
	mode string,
	keys []string,
) (_ map[string]ports.LegMetrics, err error) {
	defer obs.Time(ctx, "leg.cache.redis.GetMany")(&err)

	if r.Client == nil {
		return nil, errors.New("leg cache: redis client is nil")
	}

	if mode == "" {
		return nil, errors.New("get leg cache: mode must not be empty")
	}

	uniq := uniqueNonEmpty(keys)
	if len(uniq) == 0 {
		return map[string]ports.LegMetrics{}, nil
	}

	fields := make([]string, len(uniq))
	for i, k := range uniq {
		fields[i] = redisLegKey(mode, k)
	}

	vals, err := r.Client.MGet(ctx, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("get leg cache: redis mget: %w", err)
	}

	out := make(map[string]ports.LegMetrics, len(uniq))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Misses come back as nil.
			continue
		}
		var m ports.LegMetrics
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			// An unreadable entry counts as a miss and will be rewritten.
			continue
		}
		out[uniq[i]] = m
	}

	return out, nil
}

// Store many cached leg metrics for a single routing mode.
func (r *RedisLegCache) PutMany(ctx context.Context, mode string, legs map[string]ports.LegMetrics) error {
	if r.Client == nil {
		return errors.New("leg cache: redis client is nil")
	}

	if mode == "" {
		return errors.New("insert leg cache: mode must not be empty")
	}

	if len(legs) == 0 {
		return nil
	}

	pipe := r.Client.TxPipeline()
	for key, m := range legs {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("insert leg cache: empty leg key")
		}

		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("insert leg cache key=%q: marshal: %w", key, err)
		}
		pipe.Set(ctx, redisLegKey(mode, key), data, r.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert leg cache: redis pipeline: %w", err)
	}

	return nil
}
