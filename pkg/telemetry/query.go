package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// TaskUsage is the aggregated usage for one task type as reported by a
// Prometheus server scraping this process.
type TaskUsage struct {
	Task        string  `json:"task"`
	Executions  int64   `json:"executions"`
	Errors      int64   `json:"errors"`
	TotalTokens int64   `json:"total_tokens"`
	CacheHits   int64   `json:"cache_hits"`
	CacheMisses int64   `json:"cache_misses"`
	AvgQuality  float64 `json:"avg_quality"`
}

// QueryService reads aggregated usage back from a Prometheus server. It
// complements the in-process collectors with cross-restart history.
type QueryService struct {
	queryAPI v1.API
}

// NewQueryService creates a query service against the given Prometheus URL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{Address: prometheusURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &QueryService{queryAPI: v1.NewAPI(client)}, nil
}

// GetTaskUsage retrieves aggregated execution and token metrics for one task
// type across all recorded executions.
func (q *QueryService) GetTaskUsage(ctx context.Context, task string) (*TaskUsage, error) {
	usage := &TaskUsage{Task: task}

	queries := []struct {
		expr string
		dst  *int64
	}{
		{fmt.Sprintf(`sum(analysis_executions_total{task=%q})`, task), &usage.Executions},
		{fmt.Sprintf(`sum(analysis_executions_total{task=%q, status="error"})`, task), &usage.Errors},
		{fmt.Sprintf(`sum(analysis_tokens_total{task=%q})`, task), &usage.TotalTokens},
		{fmt.Sprintf(`sum(analysis_cache_lookups_total{task=%q, outcome="hit"})`, task), &usage.CacheHits},
		{fmt.Sprintf(`sum(analysis_cache_lookups_total{task=%q, outcome="miss"})`, task), &usage.CacheMisses},
	}

	for _, query := range queries {
		value, err := q.scalar(ctx, query.expr)
		if err != nil {
			return nil, err
		}
		*query.dst = int64(value)
	}

	qualityExpr := fmt.Sprintf(
		`sum(analysis_quality_score_sum{task=%q}) / sum(analysis_quality_score_count{task=%q})`,
		task, task,
	)
	if avg, err := q.scalar(ctx, qualityExpr); err == nil {
		usage.AvgQuality = avg
	}

	return usage, nil
}

// ListTasks returns the task types Prometheus has execution data for.
func (q *QueryService) ListTasks(ctx context.Context) ([]string, error) {
	result, _, err := q.queryAPI.Query(ctx, `group by (task) (analysis_executions_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query task list: %w", err)
	}

	var tasks []string
	if vector, ok := result.(model.Vector); ok {
		for _, sample := range vector {
			if name, ok := sample.Metric["task"]; ok {
				tasks = append(tasks, string(name))
			}
		}
	}
	return tasks, nil
}

func (q *QueryService) scalar(ctx context.Context, expr string) (float64, error) {
	result, _, err := q.queryAPI.Query(ctx, expr, time.Now())
	if err != nil {
		return 0, fmt.Errorf("prometheus query failed: %w", err)
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return float64(vector[0].Value), nil
	}
	return 0, nil
}
