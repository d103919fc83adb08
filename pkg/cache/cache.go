// Package cache provides the TTL key/value store injected into services.
// Schema maps, translations and insights are cached read-through with
// expiry; there is no explicit invalidation API.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store is a key/value cache with per-entry TTL. Implementations must be
// safe for concurrent use. Misses and backend failures both surface as a
// miss; callers recompute on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// GetJSON reads a cached value and unmarshals it into T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool) {
	var zero T
	raw, ok := s.Get(ctx, key)
	if !ok {
		return zero, false
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false
	}
	return value, true
}

// SetJSON marshals a value and stores it with the given TTL.
// Marshal failures drop the write; the cache is best-effort.
func SetJSON[T any](ctx context.Context, s Store, key string, value T, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.Set(ctx, key, raw, ttl)
}

// Disabled is a Store that never caches. Used by tests that need
// deterministic recomputation.
type Disabled struct{}

func (Disabled) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Disabled) Set(context.Context, string, []byte, time.Duration) {}

func (Disabled) Delete(context.Context, string) {}
