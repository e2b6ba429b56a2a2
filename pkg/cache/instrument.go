package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/flowscope/pkg/observability"
)

// InstrumentedCache wraps a Cache and reports hits, misses, and writes
// through the observability hooks.
type InstrumentedCache struct {
	inner Cache
}

// Instrumented wraps a cache with hook reporting.
func Instrumented(inner Cache) Cache {
	if inner == nil {
		inner = NewNullCache()
	}
	return &InstrumentedCache{inner: inner}
}

// Get retrieves a value and records the hit or miss.
func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.inner.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

// Set stores a value and records the write.
func (c *InstrumentedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

// Delete removes a value.
func (c *InstrumentedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// Close closes the wrapped cache.
func (c *InstrumentedCache) Close() error {
	return c.inner.Close()
}

// keyType extracts the key's prefix ("layout", "frame") for metrics.
// Scoped prefixes may precede it, so the type is the segment right
// before the hash.
func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}

// Ensure InstrumentedCache implements Cache.
var _ Cache = (*InstrumentedCache)(nil)
