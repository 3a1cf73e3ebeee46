package abstraction

import "github.com/yugurt2005/poker-abstraction/kmeans"

// MetricsCollector receives clustering telemetry.
// Implement this interface to integrate with monitoring systems like
// Prometheus; see package promcollector.
type MetricsCollector = kmeans.MetricsCollector

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector = kmeans.NoopMetricsCollector

// BasicMetricsCollector counts iterations, pruning and runs with atomics.
type BasicMetricsCollector = kmeans.BasicMetricsCollector
