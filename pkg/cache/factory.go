package cache

import (
	"fmt"
	"time"
)

// Backend identifiers accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Options configure store construction.
type Options struct {
	Redis         RedisConfig
	SQLitePath    string
	SweepInterval time.Duration // memory backend only
}

// NewStore constructs the configured cache backend. Stores are plain
// values injected into the coordinator; there is no package-level default.
func NewStore(backend string, opts Options) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(opts.SweepInterval), nil
	case BackendRedis:
		store, err := NewRedisStore(opts.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		return store, nil
	case BackendSQLite:
		store, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
		return store, nil
	case BackendNone:
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
