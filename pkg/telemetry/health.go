package telemetry

import "time"

// HealthStatus classifies a task type's recent behavior.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// Severity orders statuses for worst-of comparison.
func (h HealthStatus) Severity() int {
	switch h {
	case HealthCritical:
		return 2
	case HealthWarning:
		return 1
	default:
		return 0
	}
}

// Classification thresholds. Error rate is a fraction of the window's
// executions; quality is on the 0-100 scale.
const (
	errorRateCritical = 0.20
	errorRateWarning  = 0.05

	latencyCritical = 30 * time.Second
	latencyWarning  = 10 * time.Second

	qualityCritical = 50.0
	qualityWarning  = 70.0
)

// HealthReport carries the overall status and the per-check breakdown.
type HealthReport struct {
	TaskID  string                  `json:"taskId"`
	Status  HealthStatus            `json:"status"`
	Checks  map[string]HealthStatus `json:"checks"`
	Details Aggregate               `json:"details"`
}

// Health classifies the collector's last-hour window. The overall status is
// the worst of the error-rate, latency, and quality checks.
func (c *Collector) Health() HealthReport {
	return c.HealthFor(time.Hour)
}

// HealthFor classifies an arbitrary window.
func (c *Collector) HealthFor(window time.Duration) HealthReport {
	agg := c.Aggregate(window)

	checks := map[string]HealthStatus{
		"errorRate": classifyErrorRate(agg),
		"latency":   classifyLatency(agg),
		"quality":   classifyQuality(agg),
	}

	overall := HealthHealthy
	for _, status := range checks {
		if status.Severity() > overall.Severity() {
			overall = status
		}
	}

	return HealthReport{
		TaskID:  c.taskID,
		Status:  overall,
		Checks:  checks,
		Details: agg,
	}
}

// classifyErrorRate divides errors by executions only: failed executions
// are recorded into both buffers, so adding the two would double-count
// failures and understate the rate.
func classifyErrorRate(agg Aggregate) HealthStatus {
	if agg.TotalExecutions == 0 {
		if agg.TotalErrors > 0 {
			return HealthCritical
		}
		return HealthHealthy
	}
	rate := float64(agg.TotalErrors) / float64(agg.TotalExecutions)
	switch {
	case rate > errorRateCritical:
		return HealthCritical
	case rate > errorRateWarning:
		return HealthWarning
	default:
		return HealthHealthy
	}
}

func classifyLatency(agg Aggregate) HealthStatus {
	switch {
	case agg.AvgDuration > latencyCritical:
		return HealthCritical
	case agg.AvgDuration > latencyWarning:
		return HealthWarning
	default:
		return HealthHealthy
	}
}

func classifyQuality(agg Aggregate) HealthStatus {
	if agg.TotalExecutions == 0 {
		return HealthHealthy
	}
	switch {
	case agg.AvgQuality < qualityCritical:
		return HealthCritical
	case agg.AvgQuality < qualityWarning:
		return HealthWarning
	default:
		return HealthHealthy
	}
}
