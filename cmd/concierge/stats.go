package main

import (
	"context"
	"fmt"
	"time"

	"concierge/pkg/config"
	"concierge/pkg/metrics"
	"concierge/pkg/proto"
)

// runStats queries the Prometheus server scraping this deployment and
// prints the aggregate pipeline counters.
func runStats(ctx context.Context, cfg *config.Config) error {
	if cfg.Metrics.QueryURL == "" {
		return fmt.Errorf("metrics.query_url is not configured")
	}

	svc, err := metrics.NewQueryService(cfg.Metrics.QueryURL)
	if err != nil {
		return err
	}

	stats, err := svc.GetPipelineStats(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Turns by intent:")
	if len(stats.TurnsByIntent) == 0 {
		fmt.Println("  (none recorded)")
	}
	for in, count := range stats.TurnsByIntent {
		fmt.Printf("  %-10s %d\n", in, count)
	}
	fmt.Printf("Degraded turns: %d\n", stats.DegradedTurns)
	fmt.Printf("Tool executions: %d ok, %d failed\n", stats.ToolSuccesses, stats.ToolFailures)

	fmt.Println("Node latency p95 (last hour):")
	for _, node := range []proto.NodeName{
		proto.NodeRouter,
		proto.NodeRAG,
		proto.NodeToolExecutor,
		proto.NodeConfirmation,
		proto.NodeResponseGenerator,
	} {
		p95, err := svc.GetNodeLatency(ctx, string(node), time.Hour)
		if err != nil {
			return fmt.Errorf("node %s: %w", node, err)
		}
		fmt.Printf("  %-20s %.3fs\n", node, p95)
	}
	return nil
}
