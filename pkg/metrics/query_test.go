package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePrometheus answers /api/v1/query with canned vectors keyed by the
// exact PromQL expression.
func fakePrometheus(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		body, ok := results[r.Form.Get("query")]
		if !ok {
			body = "[]"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":%s}}`, body)
	}))
}

func TestGetPipelineStats(t *testing.T) {
	server := fakePrometheus(t, map[string]string{
		`sum by (intent) (assistant_turns_total)`: `[
			{"metric":{"intent":"direct"},"value":[1756600000,"12"]},
			{"metric":{"intent":"tool"},"value":[1756600000,"7"]}]`,
		`sum(assistant_turns_total{status="degraded"})`: `[
			{"metric":{},"value":[1756600000,"3"]}]`,
		`sum by (status) (assistant_tool_executions_total)`: `[
			{"metric":{"status":"success"},"value":[1756600000,"6"]},
			{"metric":{"status":"error"},"value":[1756600000,"1"]}]`,
	})
	defer server.Close()

	svc, err := NewQueryService(server.URL)
	require.NoError(t, err)

	stats, err := svc.GetPipelineStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(12), stats.TurnsByIntent["direct"])
	assert.Equal(t, int64(7), stats.TurnsByIntent["tool"])
	assert.Equal(t, int64(3), stats.DegradedTurns)
	assert.Equal(t, int64(6), stats.ToolSuccesses)
	assert.Equal(t, int64(1), stats.ToolFailures)
}

func TestGetPipelineStatsEmptyServer(t *testing.T) {
	server := fakePrometheus(t, nil)
	defer server.Close()

	svc, err := NewQueryService(server.URL)
	require.NoError(t, err)

	stats, err := svc.GetPipelineStats(context.Background())
	require.NoError(t, err)

	assert.Empty(t, stats.TurnsByIntent)
	assert.Zero(t, stats.DegradedTurns)
	assert.Zero(t, stats.ToolSuccesses)
	assert.Zero(t, stats.ToolFailures)
}

func TestGetNodeLatency(t *testing.T) {
	query := `histogram_quantile(0.95, sum by (le) (rate(assistant_node_duration_seconds_bucket{node="router"}[1h])))`
	server := fakePrometheus(t, map[string]string{
		query: `[{"metric":{},"value":[1756600000,"0.25"]}]`,
	})
	defer server.Close()

	svc, err := NewQueryService(server.URL)
	require.NoError(t, err)

	p95, err := svc.GetNodeLatency(context.Background(), "router", time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, p95, 1e-9)
}
