package cache

import (
	"context"
	"time"
)

// NoopStore always misses. It disables caching without touching call sites.
type NoopStore struct{}

// NewNoopStore returns the disabled cache backend.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

// Get implements Store; it always misses.
func (*NoopStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set implements Store; the write is discarded.
func (*NoopStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// Delete implements Store.
func (*NoopStore) Delete(context.Context, string) error {
	return nil
}

// Clear implements Store.
func (*NoopStore) Clear(context.Context) error {
	return nil
}

// Exists implements Store; nothing ever exists.
func (*NoopStore) Exists(context.Context, string) (bool, error) {
	return false, nil
}

// Close implements Store.
func (*NoopStore) Close() error {
	return nil
}
