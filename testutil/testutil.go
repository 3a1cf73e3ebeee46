package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/yugurt2005/poker-abstraction/histogram"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformRows generates num rows of bins values in (0, 1].
// Uses a single backing array for efficiency.
func (r *RNG) UniformRows(num, bins int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*bins)
	rows := make([][]float32, num)
	for i := range num {
		row := data[i*bins : (i+1)*bins]
		for j := range row {
			// Shifted away from zero so that no row has zero mass.
			row[j] = 1 - r.rand.Float32()
		}
		rows[i] = row
	}
	return rows
}

// UniformHistograms returns num normalized histograms of uniform noise.
func (r *RNG) UniformHistograms(num, bins int) []histogram.Histogram {
	return histograms(r.UniformRows(num, bins))
}

// SpikeRows generates num rows of bins values. Each value is standard normal
// noise clamped at zero; row i additionally gets height added to bin
// i/(num/groups). Rows therefore form groups of num/groups well separated
// clusters.
func (r *RNG) SpikeRows(num, bins, groups int, height float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	per := num / groups
	rows := make([][]float32, num)
	for i := range num {
		row := make([]float32, bins)
		for j := range row {
			row[j] = float32(math.Max(0, r.rand.NormFloat64()))
		}
		row[(i/per)%bins] += height
		rows[i] = row
	}
	return rows
}

// SpikeHistograms returns SpikeRows as normalized histograms.
func (r *RNG) SpikeHistograms(num, bins, groups int, height float32) []histogram.Histogram {
	return histograms(r.SpikeRows(num, bins, groups, height))
}

// EightRows is a small fixture with three obvious groups: rows 0-2, rows 3-5
// and rows 6-7.
var EightRows = [][]float32{
	{1, 2, 3},
	{5, 7, 8},
	{1, 3, 3},
	{1, 9, 1},
	{1, 5, 2},
	{3, 9, 2},
	{9, 7, 2},
	{6, 7, 1},
}

// EightHistograms returns EightRows as normalized histograms.
func EightHistograms() []histogram.Histogram {
	return histograms(EightRows)
}

func histograms(rows [][]float32) []histogram.Histogram {
	out := make([]histogram.Histogram, len(rows))
	for i, row := range rows {
		out[i] = histogram.MustFrom(row)
	}
	return out
}

// SameGroups reports whether two labelings induce the same partition,
// regardless of which label each group received.
func SameGroups(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	ab := make(map[int]int)
	ba := make(map[int]int)
	for i := range a {
		if x, ok := ab[a[i]]; ok && x != b[i] {
			return false
		}
		if y, ok := ba[b[i]]; ok && y != a[i] {
			return false
		}
		ab[a[i]] = b[i]
		ba[b[i]] = a[i]
	}
	return true
}
