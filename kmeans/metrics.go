package kmeans

import (
	"sync/atomic"
	"time"
)

// IterationStats describes one assignment pass of one restart.
type IterationStats struct {
	Restart    int
	Iteration  int
	Distortion float32
	// Changed is the number of points that moved to another cluster.
	Changed int
	// Evaluated is the number of point-to-center distances computed.
	Evaluated int
	// Pruned is the number of point-to-center distances skipped by the bound.
	Pruned int
	// Empty is the number of clusters left without members.
	Empty int
}

// MetricsCollector defines an interface for collecting clustering metrics.
// Implementations must be safe for concurrent use; restarts may report from
// several goroutines.
type MetricsCollector interface {
	// RecordIteration is called after every assignment pass.
	RecordIteration(stats IterationStats)

	// RecordRestart is called when a restart stops, either converged or capped.
	RecordRestart(restart, iterations int, distortion float32, converged bool, duration time.Duration)

	// RecordCluster is called once per Cluster call.
	// err is nil if the call succeeded.
	RecordCluster(points, k, restarts int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIteration(IterationStats)                       {}
func (NoopMetricsCollector) RecordRestart(int, int, float32, bool, time.Duration) {}
func (NoopMetricsCollector) RecordCluster(int, int, int, time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	Iterations    atomic.Int64
	Evaluated     atomic.Int64
	Pruned        atomic.Int64
	Restarts      atomic.Int64
	Capped        atomic.Int64
	Clusters      atomic.Int64
	ClusterErrors atomic.Int64
	ClusterNanos  atomic.Int64
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(stats IterationStats) {
	b.Iterations.Add(1)
	b.Evaluated.Add(int64(stats.Evaluated))
	b.Pruned.Add(int64(stats.Pruned))
}

// RecordRestart implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestart(_, _ int, _ float32, converged bool, _ time.Duration) {
	b.Restarts.Add(1)
	if !converged {
		b.Capped.Add(1)
	}
}

// RecordCluster implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCluster(_, _, _ int, duration time.Duration, err error) {
	b.Clusters.Add(1)
	b.ClusterNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ClusterErrors.Add(1)
	}
}

// PruneRatio returns the fraction of candidate distances skipped by pruning.
func (b *BasicMetricsCollector) PruneRatio() float64 {
	pruned := b.Pruned.Load()
	total := pruned + b.Evaluated.Load()
	if total == 0 {
		return 0
	}
	return float64(pruned) / float64(total)
}
