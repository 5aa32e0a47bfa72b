// Package cache implements the keyed LLM response cache: deterministic
// request hashing, deduplication of concurrent identical-key fetches, and
// pluggable storage backends with TTL and count-based eviction.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// Producer computes the value for a cache miss.
type Producer func(ctx context.Context) (string, error)

// Store is the storage backend contract. Implementations evict by entry
// count and age; Get must not return expired entries.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Contains(ctx context.Context, key string) (bool, error)
}

// Cache deduplicates and memoizes producer calls keyed by a deterministic
// request hash. Failed producer calls are never cached.
type Cache struct {
	store  Store
	group  singleflight.Group
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a structured logger for cache activity.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cache over the given store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key derives the deterministic cache key for a request: canonical JSON
// (object keys sorted) hashed with SHA-256. Identical requests always map
// to the same key regardless of map iteration order.
func Key(request any) (string, error) {
	// encoding/json marshals map keys in sorted order, which gives us the
	// normalization for free; struct fields serialize in declaration order.
	raw, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("cache: request not hashable: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Fetch returns the cached value for request, or runs produce on a miss.
// Concurrent fetches of the same key share a single producer call.
func (c *Cache) Fetch(ctx context.Context, request any, produce Producer) (string, error) {
	key, err := Key(request)
	if err != nil {
		return "", err
	}
	return c.FetchKey(ctx, key, produce)
}

// FetchKey is Fetch for callers that already hold a derived key.
func (c *Cache) FetchKey(ctx context.Context, key string, produce Producer) (string, error) {
	if value, ok, err := c.store.Get(ctx, key); err != nil {
		return "", fmt.Errorf("cache: get %s: %w", key, err)
	} else if ok {
		c.logger.Debug("cache hit", "key", key)
		return value, nil
	}

	value, err, shared := c.group.Do(key, func() (any, error) {
		// Another goroutine may have filled the entry while we queued.
		if v, ok, err := c.store.Get(ctx, key); err != nil {
			return "", err
		} else if ok {
			return v, nil
		}
		v, err := produce(ctx)
		if err != nil {
			return "", err
		}
		if err := c.store.Set(ctx, key, v); err != nil {
			return "", fmt.Errorf("cache: set %s: %w", key, err)
		}
		return v, nil
	})
	if err != nil {
		return "", err
	}
	c.logger.Debug("cache fill", "key", key, "shared", shared)
	return value.(string), nil
}

// Contains reports whether a non-expired entry exists for key.
func (c *Cache) Contains(ctx context.Context, key string) (bool, error) {
	return c.store.Contains(ctx, key)
}
