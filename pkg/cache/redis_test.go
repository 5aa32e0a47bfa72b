package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/groundswell-ai/groundswell/pkg/cache"
)

func newRedisStore(t *testing.T, opts ...cache.RedisOption) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return cache.NewRedisStore(client, opts...), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v, want miss without error", ok, err)
	}

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("Get = %q, %v, %v; want v, true, nil", v, ok, err)
	}

	present, err := store.Contains(ctx, "k")
	if err != nil || !present {
		t.Fatalf("Contains = %v, %v; want true, nil", present, err)
	}
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, cache.WithRedisTTL(time.Minute))

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Errorf("expired key: ok=%v err=%v, want miss without error", ok, err)
	}
	if present, _ := store.Contains(ctx, "k"); present {
		t.Error("Contains must not report expired keys")
	}
}

func TestRedisStore_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, cache.WithPrefix("svc-a:"))

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if !mr.Exists("svc-a:k") {
		t.Error("key should be stored under the configured prefix")
	}
	if mr.Exists("k") {
		t.Error("unprefixed key must not exist")
	}
}
