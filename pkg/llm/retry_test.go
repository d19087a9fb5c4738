package llm

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	mock := &MockGenerator{
		GenerateFunc: func(_ context.Context, _ Request) (Response, error) {
			if attempts.Add(1) < 3 {
				return Response{}, NewError(ErrorTypeTransient, "503 service unavailable")
			}
			return Response{Text: "ok", TokensUsed: 5}, nil
		},
	}

	g := WithRetry(mock, fastRetryConfig(5))
	resp, err := g.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("unexpected response %q", resp.Text)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	var attempts atomic.Int32
	mock := &MockGenerator{
		GenerateFunc: func(_ context.Context, _ Request) (Response, error) {
			attempts.Add(1)
			return Response{}, NewError(ErrorTypeAuth, "401 unauthorized")
		},
	}

	g := WithRetry(mock, fastRetryConfig(5))
	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("auth errors must not be retried, got %d attempts", got)
	}
	if TypeOf(err) != ErrorTypeAuth {
		t.Errorf("expected auth classification through the wrap, got %s", TypeOf(err))
	}
	// The terminal error reports how many attempts actually ran, not the
	// configured budget.
	if !strings.Contains(err.Error(), "after 1 attempt") {
		t.Errorf("expected actual attempt count in error, got %q", err.Error())
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	var attempts atomic.Int32
	mock := &MockGenerator{
		GenerateFunc: func(_ context.Context, _ Request) (Response, error) {
			attempts.Add(1)
			return Response{}, NewError(ErrorTypeRateLimit, "429 rate limited")
		},
	}

	g := WithRetry(mock, fastRetryConfig(2))
	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected initial attempt plus 2 retries, got %d", got)
	}
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	mock := &MockGenerator{
		GenerateFunc: func(_ context.Context, _ Request) (Response, error) {
			return Response{}, NewError(ErrorTypeTransient, "connection reset")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := WithRetry(mock, RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Hour, // would hang without cancellation
		MaxDelay:      time.Hour,
		BackoffFactor: 2.0,
	})
	_, err := g.Generate(ctx, Request{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestDelayForCapsAtMaxDelay(t *testing.T) {
	r := &retryGenerator{config: RetryConfig{
		InitialDelay:  time.Second,
		MaxDelay:      4 * time.Second,
		BackoffFactor: 2.0,
	}}

	if d := r.delayFor(1); d != time.Second {
		t.Errorf("attempt 1: expected 1s, got %v", d)
	}
	if d := r.delayFor(2); d != 2*time.Second {
		t.Errorf("attempt 2: expected 2s, got %v", d)
	}
	if d := r.delayFor(10); d != 4*time.Second {
		t.Errorf("attempt 10: expected cap of 4s, got %v", d)
	}
}
