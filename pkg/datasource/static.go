package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// StaticSource serves fixture data keyed by query. Used by tests and as a
// hermetic fallback when no external provider is configured.
type StaticSource struct {
	mu       sync.RWMutex
	fixtures map[string]json.RawMessage
	fetches  int
}

// NewStaticSource creates a fixture-backed data source.
func NewStaticSource(fixtures map[string]json.RawMessage) *StaticSource {
	if fixtures == nil {
		fixtures = make(map[string]json.RawMessage)
	}
	return &StaticSource{fixtures: fixtures}
}

// Add registers a fixture for a query.
func (s *StaticSource) Add(query string, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures[query] = data
}

// FetchData implements Source. Unknown queries return a minimal empty
// document rather than an error so tasks degrade instead of failing.
func (s *StaticSource) FetchData(_ context.Context, query string) (Result, error) {
	s.mu.Lock()
	s.fetches++
	data, ok := s.fixtures[query]
	s.mu.Unlock()

	if !ok {
		data = json.RawMessage(fmt.Sprintf(`{"query":%q,"results":[]}`, query))
	}

	return Result{
		Data: data,
		Metadata: Metadata{
			Source:    "static",
			Timestamp: time.Now().UTC(),
			Cached:    false,
		},
	}, nil
}

// Fetches returns how many lookups have been served.
func (s *StaticSource) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}
