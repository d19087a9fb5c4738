// Package telemetry tracks per-task execution history, derives windowed
// aggregates and health status, and exports Prometheus metrics.
package telemetry

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultBufferSize bounds the event history kept per collector.
const DefaultBufferSize = 1000

// ExecutionEvent is one completed task execution.
type ExecutionEvent struct {
	Timestamp    time.Time
	Duration     time.Duration
	TokensUsed   int
	QualityScore float64
	CacheHit     bool
	Success      bool
}

// ErrorEvent is one failed task execution.
type ErrorEvent struct {
	Timestamp time.Time
	Code      string
	Message   string
}

// Aggregate summarizes all executions inside one time window.
type Aggregate struct {
	TaskID          string        `json:"taskId"`
	Window          time.Duration `json:"window"`
	TotalExecutions int           `json:"totalExecutions"`
	TotalErrors     int           `json:"totalErrors"`
	SuccessRate     float64       `json:"successRate"`
	AvgDuration     time.Duration `json:"avgDuration"`
	AvgTokens       float64       `json:"avgTokens"`
	AvgQuality      float64       `json:"avgQuality"`
	CacheHitRate    float64       `json:"cacheHitRate"`
	P50Duration     time.Duration `json:"p50Duration"`
	P95Duration     time.Duration `json:"p95Duration"`
	P99Duration     time.Duration `json:"p99Duration"`
}

// Collector keeps a bounded event history for one task type. Writes are
// serialized internally; it is safe to share across goroutines.
type Collector struct {
	taskID string

	mu         sync.Mutex
	executions *ring[ExecutionEvent]
	errors     *ring[ErrorEvent]

	now func() time.Time
}

// NewCollector creates a collector for one task type. bufferSize <= 0
// selects DefaultBufferSize.
func NewCollector(taskID string, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Collector{
		taskID:     taskID,
		executions: newRing[ExecutionEvent](bufferSize),
		errors:     newRing[ErrorEvent](bufferSize),
		now:        time.Now,
	}
}

// TaskID returns the task type this collector observes.
func (c *Collector) TaskID() string { return c.taskID }

// RecordExecution appends one execution event. The oldest event is evicted
// once the buffer is full.
func (c *Collector) RecordExecution(event ExecutionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	c.mu.Lock()
	c.executions.push(event)
	c.mu.Unlock()
}

// RecordError appends one error event.
func (c *Collector) RecordError(event ErrorEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	c.mu.Lock()
	c.errors.push(event)
	c.mu.Unlock()
}

// Aggregate computes windowed statistics over events newer than the cutoff.
func (c *Collector) Aggregate(window time.Duration) Aggregate {
	cutoff := c.now().Add(-window)

	c.mu.Lock()
	executions := c.executions.snapshot()
	errors := c.errors.snapshot()
	c.mu.Unlock()

	agg := Aggregate{TaskID: c.taskID, Window: window}

	var (
		durations  []time.Duration
		successes  int
		cacheHits  int
		sumTokens  int
		sumQuality float64
		sumDur     time.Duration
	)

	for _, e := range executions {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		agg.TotalExecutions++
		durations = append(durations, e.Duration)
		sumDur += e.Duration
		sumTokens += e.TokensUsed
		sumQuality += e.QualityScore
		if e.Success {
			successes++
		}
		if e.CacheHit {
			cacheHits++
		}
	}
	for _, e := range errors {
		if !e.Timestamp.Before(cutoff) {
			agg.TotalErrors++
		}
	}

	if agg.TotalExecutions > 0 {
		n := agg.TotalExecutions
		agg.SuccessRate = float64(successes) / float64(n)
		agg.AvgDuration = sumDur / time.Duration(n)
		agg.AvgTokens = float64(sumTokens) / float64(n)
		agg.AvgQuality = sumQuality / float64(n)
		agg.CacheHitRate = float64(cacheHits) / float64(n)

		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		agg.P50Duration = percentile(durations, 50)
		agg.P95Duration = percentile(durations, 95)
		agg.P99Duration = percentile(durations, 99)
	}

	return agg
}

// percentile indexes a sorted slice at ceil(p/100 * n) - 1, clamped.
func percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// ring is a fixed-capacity append buffer that overwrites the oldest entry
// when full.
type ring[T any] struct {
	buf   []T
	head  int
	count int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// snapshot returns entries oldest-first.
func (r *ring[T]) snapshot() []T {
	out := make([]T, 0, r.count)
	start := r.head - r.count
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}
