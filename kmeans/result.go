package kmeans

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/yugurt2005/poker-abstraction/histogram"
)

// Run summarizes one restart.
type Run struct {
	Restart    int
	Distortion float32
	Iterations int
	Converged  bool
}

// Result is the best clustering found across all restarts.
type Result struct {
	// Assignment maps point i to its cluster in [0, K).
	Assignment []int
	// Distortion is the sum over points of the distance to their center.
	Distortion float32
	// Restart is the index of the winning restart.
	Restart int
	// Iterations is the number of assignment passes of the winning restart.
	Iterations int
	// Converged is false when the winning restart hit the iteration cap.
	Converged bool
	// Centers are the centers that produced Assignment.
	Centers []histogram.Histogram
	// K is the requested number of clusters.
	K int
	// Runs holds one summary per restart, ordered by restart index.
	Runs []Run
}

// Sizes returns the number of points assigned to each cluster.
func (r *Result) Sizes() []int {
	sizes := make([]int, r.K)
	for _, p := range r.Assignment {
		sizes[p]++
	}
	return sizes
}

// Empty returns the number of clusters without members.
func (r *Result) Empty() int {
	n := 0
	for _, s := range r.Sizes() {
		if s == 0 {
			n++
		}
	}
	return n
}

// EffectiveK returns the number of clusters with at least one member.
func (r *Result) EffectiveK() int {
	return r.K - r.Empty()
}

// Members returns, per cluster, the set of point indices assigned to it.
func (r *Result) Members() []*roaring.Bitmap {
	out := make([]*roaring.Bitmap, r.K)
	for i := range out {
		out[i] = roaring.New()
	}
	for i, p := range r.Assignment {
		out[p].Add(uint32(i))
	}
	for _, bm := range out {
		bm.RunOptimize()
	}
	return out
}
