package distance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yugurt2005/poker-abstraction/histogram"
)

// ErrUnknownMetric is returned by Provider and ParseMetric for unsupported metrics.
var ErrUnknownMetric = errors.New("distance: unknown metric")

// MSE returns the sum of squared differences between the normalized bins of a and b.
//
// MSE is a squared distance and does not satisfy the triangle inequality.
// Pruned k-means needs MetricMSE.PruneFactor (4) with it; the default factor
// of 2 used for plain callbacks can skip the nearest center.
func MSE(a, b histogram.Histogram) float32 {
	n := min(a.Len(), b.Len())

	var d float32
	for i := 0; i < n; i++ {
		delta := a.Get(i) - b.Get(i)
		d += delta * delta
	}
	return d
}

// EMD returns the 1-D earth mover's distance between a and b, treating bins as
// ordered categories. It is the sum of the absolute running difference of
// cumulative normalized mass.
//
// Neither kernel checks mass. A zero-mass histogram reads as all zeros (see
// histogram.Histogram.Get), so its distances are finite but meaningless.
func EMD(a, b histogram.Histogram) float32 {
	n := min(a.Len(), b.Len())

	var d, cdf float32
	for i := 0; i < n; i++ {
		cdf += a.Get(i) - b.Get(i)
		if cdf < 0 {
			d -= cdf
		} else {
			d += cdf
		}
	}
	return d
}

// Mismatch reports whether a and b have different bin counts, in which case
// MSE and EMD compare only the shorter prefix.
func Mismatch(a, b histogram.Histogram) bool {
	return a.Len() != b.Len()
}

// Metric represents the distance metric used for histogram comparison.
type Metric int

const (
	MetricMSE Metric = iota
	MetricEMD
)

func (m Metric) String() string {
	switch m {
	case MetricMSE:
		return "MSE"
	case MetricEMD:
		return "EMD"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// PruneFactor returns the multiplier k for which "center distance >= k * point
// distance" proves a candidate center cannot be closer. It is 2 for a true
// metric and 4 for squared Euclidean distances.
func (m Metric) PruneFactor() float32 {
	if m == MetricMSE {
		return 4
	}
	return 2
}

// ParseMetric resolves a metric by its case-insensitive name.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mse", "l2":
		return MetricMSE, nil
	case "emd":
		return MetricEMD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b histogram.Histogram) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricMSE:
		return MSE, nil
	case MetricEMD:
		return EMD, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMetric, m)
	}
}
