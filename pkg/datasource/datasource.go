// Package datasource provides the external data lookup abstraction used by
// analysis tasks, with an HTTP backend and a fixture backend for tests.
package datasource

import (
	"context"
	"encoding/json"
	"time"
)

// Metadata describes where and when a lookup result came from.
type Metadata struct {
	Source    string     `json:"source"`
	Timestamp time.Time  `json:"timestamp"`
	Cached    bool       `json:"cached"`
	RateLimit *RateLimit `json:"rateLimit,omitempty"`
}

// RateLimit reports the provider's remaining quota, when advertised.
type RateLimit struct {
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// Result is one lookup response.
type Result struct {
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
}

// Source is the external data lookup contract.
type Source interface {
	// FetchData resolves a query against the backing provider.
	FetchData(ctx context.Context, query string) (Result, error)
}
