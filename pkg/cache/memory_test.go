package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_LRUEviction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithMaxEntries(2))

	if err := s.Set(ctx, "a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "b", "2"); err != nil {
		t.Fatal(err)
	}

	// Touch "a" so "b" becomes least recently used.
	if _, ok, _ := s.Get(ctx, "a"); !ok {
		t.Fatal("a should be present")
	}

	if err := s.Set(ctx, "c", "3"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	if _, ok, _ := s.Get(ctx, "a"); !ok {
		t.Error("a should survive the eviction")
	}
	if _, ok, _ := s.Get(ctx, "c"); !ok {
		t.Error("c should be present")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestMemoryStore_UpdateDoesNotGrow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithMaxEntries(2))

	s.Set(ctx, "a", "1")
	s.Set(ctx, "b", "2")
	s.Set(ctx, "a", "1-updated")

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	v, ok, _ := s.Get(ctx, "a")
	if !ok || v != "1-updated" {
		t.Errorf("Get(a) = %q, %v; want updated value", v, ok)
	}
	// The update also refreshed recency; "b" is now the LRU.
	s.Set(ctx, "c", "3")
	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithTTL(time.Minute))
	s.now = func() time.Time { return clock }

	s.Set(ctx, "a", "1")

	if ok, _ := s.Contains(ctx, "a"); !ok {
		t.Fatal("fresh entry should be present")
	}

	clock = clock.Add(2 * time.Minute)

	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("expired entry must be a miss")
	}
	if ok, _ := s.Contains(ctx, "a"); ok {
		t.Error("Contains must not report expired entries")
	}
	if s.Len() != 0 {
		t.Errorf("expired entry should have been collected, Len = %d", s.Len())
	}
}

func TestMemoryStore_ContainsDoesNotPromote(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithMaxEntries(2))

	s.Set(ctx, "a", "1")
	s.Set(ctx, "b", "2")

	// A presence probe on "a" must not save it from eviction.
	if ok, _ := s.Contains(ctx, "a"); !ok {
		t.Fatal("a should be present")
	}
	s.Set(ctx, "c", "3")

	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Error("a should have been evicted despite the Contains probe")
	}
}
