package cache

import (
	"context"
	"time"
)

// Cache stores small opaque values with a time-to-live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key joins a namespace and parts into a cache key.
func Key(namespace string, parts ...string) string {
	k := namespace
	for _, p := range parts {
		k += ":" + p
	}
	return k
}
