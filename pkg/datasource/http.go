package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ideascope/pkg/logx"
)

// HTTPSource fetches JSON documents from a query endpoint. Recent lookups
// are memoized in an expirable LRU so repeated queries within one request
// burst do not consume provider quota.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	memo    *expirable.LRU[string, Result]
	logger  *logx.Logger
}

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MemoEntries int
	MemoTTL     time.Duration
}

// NewHTTPSource creates an HTTP-backed data source.
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MemoEntries <= 0 {
		cfg.MemoEntries = 256
	}
	if cfg.MemoTTL <= 0 {
		cfg.MemoTTL = 5 * time.Minute
	}

	return &HTTPSource{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		memo:    expirable.NewLRU[string, Result](cfg.MemoEntries, nil, cfg.MemoTTL),
		logger:  logx.NewLogger("datasource-http"),
	}
}

// FetchData implements Source.
func (s *HTTPSource) FetchData(ctx context.Context, query string) (Result, error) {
	if cached, ok := s.memo.Get(query); ok {
		cached.Metadata.Cached = true
		return cached, nil
	}

	reqURL := fmt.Sprintf("%s?q=%s", s.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("data source request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("data source returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if !json.Valid(body) {
		return Result{}, fmt.Errorf("data source returned invalid JSON")
	}

	result := Result{
		Data: json.RawMessage(body),
		Metadata: Metadata{
			Source:    s.baseURL,
			Timestamp: time.Now().UTC(),
			Cached:    false,
			RateLimit: rateLimitFromHeaders(resp.Header),
		},
	}
	s.memo.Add(query, result)
	s.logger.Debug("fetched %q (%d bytes)", query, len(body))
	return result, nil
}

// rateLimitFromHeaders reads the conventional X-RateLimit headers, when set.
func rateLimitFromHeaders(h http.Header) *RateLimit {
	remaining := h.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}
	n, err := strconv.Atoi(remaining)
	if err != nil {
		return nil
	}

	rl := &RateLimit{Remaining: n}
	if reset := h.Get("X-RateLimit-Reset"); reset != "" {
		if unix, err := strconv.ParseInt(reset, 10, 64); err == nil {
			rl.ResetAt = time.Unix(unix, 0).UTC()
		}
	}
	return rl
}
