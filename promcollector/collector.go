// Package promcollector exports clustering telemetry as Prometheus metrics.
//
//	c, err := promcollector.New(prometheus.DefaultRegisterer, "abstraction")
//	b, _ := abstraction.New(store, abstraction.WithMetricsCollector(c))
//	http.Handle("/metrics", promhttp.Handler())
package promcollector

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yugurt2005/poker-abstraction/kmeans"
)

// Collector implements kmeans.MetricsCollector with Prometheus metrics.
type Collector struct {
	iterations      prometheus.Counter
	evaluated       prometheus.Counter
	pruned          prometheus.Counter
	emptyClusters   prometheus.Gauge
	restarts        *prometheus.CounterVec
	restartDuration prometheus.Histogram
	distortion      prometheus.Gauge
	clusterings     *prometheus.CounterVec
	clusterDuration prometheus.Histogram
}

var _ kmeans.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kmeans_iterations_total",
			Help:      "Assignment passes across all restarts.",
		}),
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kmeans_distances_evaluated_total",
			Help:      "Point to center distances computed.",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kmeans_distances_pruned_total",
			Help:      "Point to center distances skipped by the triangle inequality.",
		}),
		emptyClusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kmeans_empty_clusters",
			Help:      "Clusters without members after the latest assignment pass.",
		}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kmeans_restarts_total",
			Help:      "Finished restarts by convergence.",
		}, []string{"converged"}),
		restartDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kmeans_restart_duration_seconds",
			Help:      "Wall time of one restart.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		distortion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kmeans_restart_distortion",
			Help:      "Final distortion of the latest restart.",
		}),
		clusterings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kmeans_clusterings_total",
			Help:      "Cluster calls by result.",
		}, []string{"result"}),
		clusterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kmeans_cluster_duration_seconds",
			Help:      "Wall time of one Cluster call.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}

	for _, m := range []prometheus.Collector{
		c.iterations, c.evaluated, c.pruned, c.emptyClusters,
		c.restarts, c.restartDuration, c.distortion,
		c.clusterings, c.clusterDuration,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordIteration implements kmeans.MetricsCollector.
func (c *Collector) RecordIteration(stats kmeans.IterationStats) {
	c.iterations.Inc()
	c.evaluated.Add(float64(stats.Evaluated))
	c.pruned.Add(float64(stats.Pruned))
	c.emptyClusters.Set(float64(stats.Empty))
}

// RecordRestart implements kmeans.MetricsCollector.
func (c *Collector) RecordRestart(_, _ int, distortion float32, converged bool, d time.Duration) {
	c.restarts.WithLabelValues(strconv.FormatBool(converged)).Inc()
	c.restartDuration.Observe(d.Seconds())
	c.distortion.Set(float64(distortion))
}

// RecordCluster implements kmeans.MetricsCollector.
func (c *Collector) RecordCluster(_, _, _ int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.clusterings.WithLabelValues(result).Inc()
	c.clusterDuration.Observe(d.Seconds())
}
