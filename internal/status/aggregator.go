// Package status assembles the per-request StatusSnapshot from host metrics
// and the search service liveness probe.
package status

import (
	"context"
	"fmt"
	"log/slog"

	"hoststatus/internal/hostmetrics"
	"hoststatus/internal/models"
	"hoststatus/internal/probe"
)

// Aggregator builds status snapshots. It holds no per-request state and is
// safe for concurrent use as long as its collector and prober are.
type Aggregator struct {
	collector hostmetrics.Collector
	prober    probe.Prober
}

// NewAggregator creates an aggregator over the given collector and prober.
func NewAggregator(collector hostmetrics.Collector, prober probe.Prober) *Aggregator {
	return &Aggregator{
		collector: collector,
		prober:    prober,
	}
}

// Build collects host metrics, then probes the service, and returns a fresh
// snapshot. Collection errors are returned; probe failures only clear
// ElasticsearchUp.
func (a *Aggregator) Build(ctx context.Context) (*models.StatusSnapshot, error) {
	metrics, err := a.collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect host metrics: %w", err)
	}

	result := a.prober.Probe(ctx)
	if failed, ok := result.Failed(); ok {
		slog.DebugContext(ctx, "Liveness probe failed",
			"address", failed.Address,
			"latency", failed.Latency,
			"error", failed.Err)
	}

	return NewSnapshot(metrics, result.Up()), nil
}

// NewSnapshot selects the wire fields from a full collection.
func NewSnapshot(metrics *hostmetrics.HostMetrics, serviceUp bool) *models.StatusSnapshot {
	snapshot := &models.StatusSnapshot{
		CPU:             metrics.CPUPercent,
		ElasticsearchUp: serviceUp,
	}
	if metrics.VirtualMemory != nil {
		snapshot.VirtualMemory = metrics.VirtualMemory.UsedPercent
	}
	if metrics.SwapMemory != nil {
		snapshot.SwapMemory = metrics.SwapMemory.UsedPercent
	}
	if metrics.DiskUsage != nil {
		snapshot.DiskUsage = metrics.DiskUsage.UsedPercent
	}
	return snapshot
}
