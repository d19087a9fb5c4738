package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordDurations(c *Collector, durations ...time.Duration) {
	for _, d := range durations {
		c.RecordExecution(ExecutionEvent{
			Duration:     d,
			Success:      true,
			QualityScore: 80,
		})
	}
}

func TestAggregatePercentiles(t *testing.T) {
	c := NewCollector("market-research", 0)
	recordDurations(c,
		10*time.Millisecond,
		20*time.Millisecond,
		30*time.Millisecond,
		40*time.Millisecond,
		50*time.Millisecond,
	)

	agg := c.Aggregate(time.Hour)
	require.Equal(t, 5, agg.TotalExecutions)
	assert.Equal(t, 30*time.Millisecond, agg.P50Duration)
	assert.Equal(t, 50*time.Millisecond, agg.P95Duration)
	assert.Equal(t, 50*time.Millisecond, agg.P99Duration)
}

func TestAggregateRates(t *testing.T) {
	c := NewCollector("market-research", 0)

	c.RecordExecution(ExecutionEvent{Duration: time.Second, Success: true, CacheHit: true, QualityScore: 90, TokensUsed: 100})
	c.RecordExecution(ExecutionEvent{Duration: 3 * time.Second, Success: true, QualityScore: 70, TokensUsed: 300})
	c.RecordExecution(ExecutionEvent{Duration: 2 * time.Second, Success: false, QualityScore: 0})
	c.RecordError(ErrorEvent{Code: "PROVIDER_ERROR", Message: "rate limited"})

	agg := c.Aggregate(time.Hour)
	assert.Equal(t, 3, agg.TotalExecutions)
	assert.Equal(t, 1, agg.TotalErrors)
	assert.InDelta(t, 2.0/3.0, agg.SuccessRate, 1e-9)
	assert.InDelta(t, 1.0/3.0, agg.CacheHitRate, 1e-9)
	assert.Equal(t, 2*time.Second, agg.AvgDuration)
	assert.InDelta(t, 400.0/3.0, agg.AvgTokens, 1e-9)
}

func TestAggregateWindowExcludesOldEvents(t *testing.T) {
	c := NewCollector("market-research", 0)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.RecordExecution(ExecutionEvent{Timestamp: base.Add(-3 * time.Hour), Duration: time.Second, Success: true})
	c.RecordExecution(ExecutionEvent{Timestamp: base.Add(-10 * time.Minute), Duration: time.Second, Success: true})
	c.RecordError(ErrorEvent{Timestamp: base.Add(-2 * time.Hour), Code: "OLD"})

	agg := c.Aggregate(time.Hour)
	assert.Equal(t, 1, agg.TotalExecutions)
	assert.Equal(t, 0, agg.TotalErrors)
}

func TestRingBufferEvictsOldest(t *testing.T) {
	c := NewCollector("market-research", 3)
	for i := 1; i <= 5; i++ {
		c.RecordExecution(ExecutionEvent{Duration: time.Duration(i) * time.Second, Success: true})
	}

	agg := c.Aggregate(time.Hour)
	require.Equal(t, 3, agg.TotalExecutions)
	// Only the last three (3s, 4s, 5s) survive.
	assert.Equal(t, 4*time.Second, agg.AvgDuration)
	assert.Equal(t, 3*time.Second, agg.P50Duration)
}

func TestAggregateEmptyWindow(t *testing.T) {
	c := NewCollector("market-research", 0)
	agg := c.Aggregate(time.Hour)
	assert.Zero(t, agg.TotalExecutions)
	assert.Zero(t, agg.SuccessRate)
	assert.Zero(t, agg.P99Duration)
}

func TestPercentileClamping(t *testing.T) {
	sorted := []time.Duration{7 * time.Millisecond}
	assert.Equal(t, 7*time.Millisecond, percentile(sorted, 1))
	assert.Equal(t, 7*time.Millisecond, percentile(sorted, 99))
	assert.Equal(t, time.Duration(0), percentile(nil, 50))
}

func TestConcurrentRecording(t *testing.T) {
	c := NewCollector("market-research", 100)
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				c.RecordExecution(ExecutionEvent{Duration: time.Millisecond, Success: true})
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	agg := c.Aggregate(time.Hour)
	assert.Equal(t, 100, agg.TotalExecutions)
}
