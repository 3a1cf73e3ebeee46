package kmeans

import (
	"context"
	"sync/atomic"

	"github.com/yugurt2005/poker-abstraction/distance"
	"github.com/yugurt2005/poker-abstraction/histogram"
	"github.com/yugurt2005/poker-abstraction/internal/parallel"
)

// centerDistances fills cd (row-major k*k) with the pairwise distances
// between centers. Task i owns row i right of the diagonal and its mirror,
// so no two tasks write the same cell.
func centerDistances(ctx context.Context, centers []histogram.Histogram, dist distance.Func, cd []float32, workers int) error {
	k := len(centers)
	return parallel.Each(ctx, k, workers, func(_ context.Context, i int) error {
		cd[i*k+i] = 0
		for j := i + 1; j < k; j++ {
			d := dist(centers[i], centers[j])
			cd[i*k+j] = d
			cd[j*k+i] = d
		}
		return nil
	})
}

type assignStats struct {
	changed   int
	evaluated int
	pruned    int
}

// assignPoints writes the nearest center of point i to next[i] and that
// distance to dists[i]. Search starts at prev[i]; candidate j is skipped
// when cd[best][j] >= factor*d, where best is the running nearest center and
// d its distance. Ties keep the earlier choice.
func assignPoints(
	ctx context.Context,
	points, centers []histogram.Histogram,
	cd []float32,
	prev, next []int,
	dists []float32,
	dist distance.Func,
	factor float32,
	workers int,
) (assignStats, error) {
	k := len(centers)
	var changed, evaluated, pruned atomic.Int64

	err := parallel.For(ctx, len(points), workers, func(ctx context.Context, lo, hi int) error {
		var ch, ev, pr int64
		for i := lo; i < hi; i++ {
			if i&1023 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			p := prev[i]
			best := p
			d := dist(points[i], centers[p])
			ev++
			for j := 0; j < k; j++ {
				if j == best {
					continue
				}
				if cd[best*k+j] >= factor*d {
					pr++
					continue
				}
				ev++
				if dj := dist(points[i], centers[j]); dj < d {
					d = dj
					best = j
				}
			}

			next[i] = best
			dists[i] = d
			if best != p {
				ch++
			}
		}
		changed.Add(ch)
		evaluated.Add(ev)
		pruned.Add(pr)
		return nil
	})
	if err != nil {
		return assignStats{}, err
	}
	return assignStats{
		changed:   int(changed.Load()),
		evaluated: int(evaluated.Load()),
		pruned:    int(pruned.Load()),
	}, nil
}

// sum reduces dists in index order so that the result is reproducible.
func sum(dists []float32) float32 {
	var s float32
	for _, d := range dists {
		s += d
	}
	return s
}
