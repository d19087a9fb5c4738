package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"ideascope/pkg/logx"
)

// RetryConfig defines bounded exponential backoff for provider calls.
// wait = InitialDelay × BackoffFactor^attempt, capped at MaxDelay, for at
// most MaxRetries retries after the initial attempt.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// DefaultRetryConfig provides reasonable defaults for retry behavior.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:    3,
	InitialDelay:  500 * time.Millisecond,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// retryGenerator wraps a TextGenerator with classified retry logic.
type retryGenerator struct {
	underlying TextGenerator
	config     RetryConfig
	logger     *logx.Logger
}

// WithRetry wraps a generator with the given retry policy. A zero
// MaxRetries yields single-attempt behavior with no extra allocation cost
// on the happy path.
func WithRetry(g TextGenerator, cfg RetryConfig) TextGenerator {
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = DefaultRetryConfig.BackoffFactor
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultRetryConfig.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultRetryConfig.MaxDelay
	}
	return &retryGenerator{
		underlying: g,
		config:     cfg,
		logger:     logx.NewLogger("llm-retry"),
	}
}

// Generate implements TextGenerator with retries on retryable error types.
func (r *retryGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.delayFor(attempt)
			r.logger.Debug("retrying %s after %v (attempt %d/%d)",
				r.underlying.Model(), delay, attempt, r.config.MaxRetries)

			select {
			case <-ctx.Done():
				return Response{}, WrapError(ErrorTypeTimeout, "retry wait cancelled", ctx.Err())
			case <-time.After(delay):
			}
		}

		attempts++
		resp, err := r.underlying.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = Classify(err)
		if !TypeOf(lastErr).Retryable() {
			break
		}
	}

	return Response{}, fmt.Errorf("generation failed after %d attempt(s): %w", attempts, lastErr)
}

// Model returns the underlying model identifier.
func (r *retryGenerator) Model() string {
	return r.underlying.Model()
}

// delayFor computes the backoff delay for the given retry attempt.
func (r *retryGenerator) delayFor(attempt int) time.Duration {
	delay := time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1)))
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter {
		// Up to ±10% to avoid thundering herds on shared rate limits.
		jitter := time.Duration((rand.Float64()*0.2 - 0.1) * float64(delay))
		delay += jitter
		if delay < 0 {
			delay = r.config.InitialDelay
		}
	}
	return delay
}
