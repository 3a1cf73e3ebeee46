package kmeans

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/yugurt2005/poker-abstraction/combine"
	"github.com/yugurt2005/poker-abstraction/histogram"
	"github.com/yugurt2005/poker-abstraction/internal/parallel"
)

// occupancy returns a bitset with bit p set when some label equals p.
func occupancy(labels []int, k int) *bitset.BitSet {
	occupied := bitset.New(uint(k))
	for _, p := range labels {
		occupied.Set(uint(p))
	}
	return occupied
}

// updateCenters replaces every non-empty center with the normalized combine
// of its members. Empty clusters keep their previous center.
func updateCenters(
	ctx context.Context,
	points []histogram.Histogram,
	labels []int,
	centers []histogram.Histogram,
	combineFn combine.Func,
	workers int,
) error {
	k := len(centers)

	counts := make([]int, k)
	for _, p := range labels {
		counts[p]++
	}
	members := make([][]histogram.Histogram, k)
	for p, c := range counts {
		if c > 0 {
			members[p] = make([]histogram.Histogram, 0, c)
		}
	}
	for i, p := range labels {
		members[p] = append(members[p], points[i])
	}

	return parallel.Each(ctx, k, workers, func(_ context.Context, p int) error {
		if len(members[p]) == 0 {
			return nil
		}
		c, err := combineFn(members[p])
		if err != nil {
			return fmt.Errorf("kmeans: combine cluster %d: %w", p, err)
		}
		if err := c.Norm(); err != nil {
			return fmt.Errorf("kmeans: center %d: %w", p, err)
		}
		centers[p] = c
		return nil
	})
}
