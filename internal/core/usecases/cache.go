package usecases

import (
	"context"
	"encoding/json"

	"github.com/hewliyang/waze-traffic-api/internal/core/ports"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/metrics"
)

// cached serves key from cache when possible, otherwise calls load and stores
// its result for ttl seconds. A nil cache always loads.
func cached[T any](ctx context.Context, cache ports.CacheService, op, key string, ttl int, load func() (T, error)) (T, error) {
	if cache != nil {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				metrics.CacheHits.WithLabelValues(op).Inc()
				return v, nil
			}
		}
		metrics.CacheMisses.WithLabelValues(op).Inc()
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if cache != nil {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, ttl)
		}
	}
	return v, nil
}
