package kmeans

import (
	"context"

	"github.com/yugurt2005/poker-abstraction/combine"
	"github.com/yugurt2005/poker-abstraction/distance"
	"github.com/yugurt2005/poker-abstraction/histogram"
	"github.com/yugurt2005/poker-abstraction/internal/parallel"
)

// Distortion rebuilds the centers of an existing assignment with combineFn
// and returns the sum of point-to-center distances. It scores a stored
// assignment without clustering again.
func Distortion(
	ctx context.Context,
	points []histogram.Histogram,
	assignment []int,
	k int,
	combineFn combine.Func,
	dist distance.Func,
	optFns ...Option,
) (float32, error) {
	o := applyOptions(optFns)
	if err := validate(k, 1, points, combineFn, dist, o.logger); err != nil {
		return 0, err
	}
	if len(assignment) != len(points) {
		return 0, invalid("assignment", len(assignment), "length differs from the number of points")
	}
	for _, p := range assignment {
		if p < 0 || p >= k {
			return 0, invalid("assignment", p, "cluster id out of range")
		}
	}

	workers := parallel.Workers(o.parallelism)
	centers := make([]histogram.Histogram, k)
	if err := updateCenters(ctx, points, assignment, centers, combineFn, workers); err != nil {
		return 0, err
	}

	dists := make([]float32, len(points))
	err := parallel.For(ctx, len(points), workers, func(_ context.Context, lo, hi int) error {
		for i := lo; i < hi; i++ {
			dists[i] = dist(points[i], centers[assignment[i]])
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sum(dists), nil
}
