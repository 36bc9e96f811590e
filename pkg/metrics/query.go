package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// PipelineStats aggregates the assistant's turn pipeline over the scrape
// window: volume per intent, degradation rate and tool outcomes.
type PipelineStats struct {
	TurnsByIntent map[string]int64 `json:"turns_by_intent"`
	DegradedTurns int64            `json:"degraded_turns"`
	ToolSuccesses int64            `json:"tool_successes"`
	ToolFailures  int64            `json:"tool_failures"`
}

// QueryService reads aggregated pipeline metrics back from a Prometheus
// server scraping this process.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a query service against the given Prometheus URL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetPipelineStats returns current aggregate turn and tool counters.
func (q *QueryService) GetPipelineStats(ctx context.Context) (*PipelineStats, error) {
	stats := &PipelineStats{
		TurnsByIntent: make(map[string]int64),
	}

	intentResult, _, err := q.queryAPI.Query(ctx,
		`sum by (intent) (assistant_turns_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query turn volume: %w", err)
	}
	if vector, ok := intentResult.(model.Vector); ok {
		for _, sample := range vector {
			if in, ok := sample.Metric["intent"]; ok {
				stats.TurnsByIntent[string(in)] = int64(sample.Value)
			}
		}
	}

	degradedResult, _, err := q.queryAPI.Query(ctx,
		`sum(assistant_turns_total{status="degraded"})`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query degraded turns: %w", err)
	}
	if vector, ok := degradedResult.(model.Vector); ok && len(vector) > 0 {
		stats.DegradedTurns = int64(vector[0].Value)
	}

	toolResult, _, err := q.queryAPI.Query(ctx,
		`sum by (status) (assistant_tool_executions_total)`, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query tool executions: %w", err)
	}
	if vector, ok := toolResult.(model.Vector); ok {
		for _, sample := range vector {
			switch sample.Metric["status"] {
			case "success":
				stats.ToolSuccesses = int64(sample.Value)
			case "error":
				stats.ToolFailures = int64(sample.Value)
			}
		}
	}

	return stats, nil
}

// GetNodeLatency returns the p95 latency in seconds for one graph node
// over the given range.
func (q *QueryService) GetNodeLatency(ctx context.Context, node string, window time.Duration) (float64, error) {
	query := fmt.Sprintf(
		`histogram_quantile(0.95, sum by (le) (rate(assistant_node_duration_seconds_bucket{node=%q}[%s])))`,
		node, model.Duration(window).String())

	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to query node latency: %w", err)
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return float64(vector[0].Value), nil
	}
	return 0, nil
}
