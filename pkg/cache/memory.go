package cache

import (
	"context"
	"sync"
	"time"

	"ideascope/pkg/logx"
)

// memoryEntry holds one cached value. A zero expiresAt means no expiry.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store backed by a map with a periodic
// expiry sweep. The entry count is maintained lazily: expired entries are
// dropped on access and during sweeps, not at their exact deadline.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	now    func() time.Time
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *logx.Logger
}

// MemoryOption customizes MemoryStore construction.
type MemoryOption func(*MemoryStore)

// WithClock injects a time source, used by tests to simulate expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an in-process store sweeping expired entries
// every sweepInterval. A non-positive interval disables the sweeper;
// expired entries are then only dropped lazily on access.
func NewMemoryStore(sweepInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
		logger:  logx.NewLogger("cache-memory"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if sweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop(sweepInterval)
	}
	return s
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			removed := s.sweep()
			if removed > 0 {
				s.logger.Debug("swept %d expired entries", removed)
			}
		}
	}
}

// sweep removes expired entries and returns how many were dropped.
func (s *MemoryStore) sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}

	// Copy so callers cannot mutate the cached value.
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

// Exists implements Store.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, _ := s.Get(ctx, key)
	return ok, nil
}

// Len returns the current entry count after lazily pruning expired entries.
func (s *MemoryStore) Len() int {
	s.sweep()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the sweeper. The store remains readable but no longer prunes
// in the background.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopCh:
		// Already closed.
	default:
		close(s.stopCh)
	}
	s.wg.Wait()
	return nil
}
