// Package cache provides the keyed cache store contract used by the agent
// executor, with networked (redis), file-backed (sqlite), in-process
// (memory), and disabled (noop) backends behind one interface.
//
// Cache failures are never execution failures: callers treat a Get error as
// a miss and a Set error as a skipped write. Backends log their own I/O
// failures so degraded operation is visible.
package cache

import (
	"context"
	"time"
)

// Store is the keyed cache contract. All implementations are safe for
// concurrent use by multiple simultaneous requests.
type Store interface {
	// Get returns the value for key. ok is false on a miss, including
	// expired entries.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set writes value under key. A non-positive ttl stores the entry
	// without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries owned by this store.
	Clear(ctx context.Context) error

	// Exists reports whether key holds an unexpired entry.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases backend resources. The store is unusable afterwards.
	Close() error
}
