// Package distance provides histogram distance calculations.
//
// # Supported Metrics
//
//   - MetricMSE: sum of squared differences of normalized bins
//   - MetricEMD: 1-D earth mover's distance over ordered bins
//
// Both metrics read normalized mass through histogram.Get and compare only the
// first min(a.Len(), b.Len()) bins. Mismatched bin counts are truncated
// silently; use Mismatch to detect them.
//
// # Usage
//
//	d := distance.EMD(a, b)
//	fn, err := distance.Provider(distance.MetricMSE)
package distance
