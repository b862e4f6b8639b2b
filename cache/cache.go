package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	jsoniter "github.com/json-iterator/go"

	"feedback-moderation-server/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache is a byte-oriented key/value store with per-entry expiry.
// A miss is reported as found=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key derives the cache key for an analysis of text
func Key(analysis, text string) string {
	sum := sha256.Sum256([]byte(text))
	return analysis + ":" + hex.EncodeToString(sum[:])
}

// Remember is a read-through lookup. On a miss fn is called and its result is
// written back with ttl, but only when fn succeeds. Cache faults count as
// misses. Concurrent misses for the same key may both call fn.
func Remember[T any](ctx context.Context, c Cache, analysis, text string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	key := Key(analysis, text)

	if raw, found, err := c.Get(ctx, key); err != nil {
		metrics.CacheLookups.WithLabelValues(analysis, "error").Inc()
	} else if found {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.CacheLookups.WithLabelValues(analysis, "hit").Inc()
			return v, nil
		}
		metrics.CacheLookups.WithLabelValues(analysis, "error").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues(analysis, "miss").Inc()
	}

	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		if err := c.Set(ctx, key, raw, ttl); err != nil {
			metrics.CacheLookups.WithLabelValues(analysis, "error").Inc()
		}
	}
	return v, nil
}
