package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePrometheus answers /api/v1/query with canned vectors keyed by the
// exact query expression. Unknown expressions get an empty vector.
func fakePrometheus(t *testing.T, values map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, r.ParseForm())

		w.Header().Set("Content-Type", "application/json")
		value, ok := values[r.Form.Get("query")]
		if !ok {
			fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
			return
		}
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":[{"metric":{"task":"market-research"},"value":[1756300000,%q]}]}}`, value)
	}))
}

func TestGetTaskUsage(t *testing.T) {
	server := fakePrometheus(t, map[string]string{
		`sum(analysis_executions_total{task="market-research"})`:                      "42",
		`sum(analysis_executions_total{task="market-research", status="error"})`:      "3",
		`sum(analysis_tokens_total{task="market-research"})`:                          "9000",
		`sum(analysis_cache_lookups_total{task="market-research", outcome="hit"})`:    "5",
		`sum(analysis_cache_lookups_total{task="market-research", outcome="miss"})`:   "37",
		`sum(analysis_quality_score_sum{task="market-research"}) / sum(analysis_quality_score_count{task="market-research"})`: "82.5",
	})
	defer server.Close()

	service, err := NewQueryService(server.URL)
	require.NoError(t, err)

	usage, err := service.GetTaskUsage(context.Background(), "market-research")
	require.NoError(t, err)

	assert.Equal(t, "market-research", usage.Task)
	assert.Equal(t, int64(42), usage.Executions)
	assert.Equal(t, int64(3), usage.Errors)
	assert.Equal(t, int64(9000), usage.TotalTokens)
	assert.Equal(t, int64(5), usage.CacheHits)
	assert.Equal(t, int64(37), usage.CacheMisses)
	assert.InDelta(t, 82.5, usage.AvgQuality, 0.001)
}

func TestGetTaskUsageEmptySeries(t *testing.T) {
	server := fakePrometheus(t, nil)
	defer server.Close()

	service, err := NewQueryService(server.URL)
	require.NoError(t, err)

	usage, err := service.GetTaskUsage(context.Background(), "financial-projection")
	require.NoError(t, err)
	assert.Equal(t, int64(0), usage.Executions)
	assert.Equal(t, int64(0), usage.TotalTokens)
}

func TestListTasks(t *testing.T) {
	server := fakePrometheus(t, map[string]string{
		`group by (task) (analysis_executions_total)`: "1",
	})
	defer server.Close()

	service, err := NewQueryService(server.URL)
	require.NoError(t, err)

	names, err := service.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"market-research"}, names)
}

func TestGetTaskUsageSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	service, err := NewQueryService(server.URL)
	require.NoError(t, err)

	_, err = service.GetTaskUsage(context.Background(), "market-research")
	require.Error(t, err)
}
