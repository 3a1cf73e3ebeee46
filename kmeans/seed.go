package kmeans

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/yugurt2005/poker-abstraction/distance"
	"github.com/yugurt2005/poker-abstraction/histogram"
	"github.com/yugurt2005/poker-abstraction/internal/parallel"
)

// seedCenters picks k initial centers. The first is uniform; each further
// center is drawn with probability proportional to the distance from a point
// to its nearest already chosen center.
func seedCenters(ctx context.Context, k int, points []histogram.Histogram, dist distance.Func, rng *rand.Rand, workers int) ([]histogram.Histogram, error) {
	n := len(points)
	centers := make([]histogram.Histogram, 0, k)
	centers = append(centers, points[rng.IntN(n)].Clone())

	nearest := make([]float32, n)
	for i := range nearest {
		nearest[i] = math.MaxFloat32
	}

	for len(centers) < k {
		last := centers[len(centers)-1]
		err := parallel.For(ctx, n, workers, func(_ context.Context, lo, hi int) error {
			for i := lo; i < hi; i++ {
				if d := dist(last, points[i]); d < nearest[i] {
					nearest[i] = d
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		centers = append(centers, points[weightedSample(nearest, rng)].Clone())
	}
	return centers, nil
}

// weightedSample returns index i with probability weights[i]/sum(weights).
// When every weight is zero it falls back to a uniform draw.
func weightedSample(weights []float32, rng *rand.Rand) int {
	var total float64
	for _, w := range weights {
		total += float64(w)
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return rng.IntN(len(weights))
	}

	target := rng.Float64() * total
	var acc float64
	for i, w := range weights {
		acc += float64(w)
		if target < acc {
			return i
		}
	}
	// Rounding left target at the very end of the range.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return rng.IntN(len(weights))
}
