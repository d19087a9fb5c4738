package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreExpiry(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	clock := newFakeClock()
	store.now = clock.Now

	if err := store.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	clock.Advance(2 * time.Second)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("expected miss after ttl elapsed")
	}

	// The expired row is pruned, so a fresh write wins cleanly.
	if err := store.Set(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("re-set failed: %v", err)
	}
	value, ok, _ := store.Get(ctx, "k")
	if !ok || string(value) != "v2" {
		t.Errorf("expected fresh value, got ok=%v value=%q", ok, value)
	}
}

func TestSQLiteStoreUpsert(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("first"), 0)
	_ = store.Set(ctx, "k", []byte("second"), 0)

	value, ok, _ := store.Get(ctx, "k")
	if !ok || string(value) != "second" {
		t.Errorf("expected overwrite, got ok=%v value=%q", ok, value)
	}
}

func TestSQLiteStoreClearAndDelete(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "a", []byte("1"), 0)
	_ = store.Set(ctx, "b", []byte("2"), 0)

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Error("expected miss after delete")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "b"); ok {
		t.Error("expected miss after clear")
	}
}
