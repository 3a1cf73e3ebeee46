package histogram

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Epsilon is the per-bin tolerance used by Equal.
const Epsilon = 1e-5

// ErrDegenerate is returned when a histogram with zero total mass is
// normalized.
var ErrDegenerate = errors.New("histogram: zero total mass")

// Histogram is a discrete distribution over a fixed number of ordered bins.
//
// The zero value is an empty histogram with no bins. Copying a Histogram
// shares its bins; use Clone for an independent copy.
type Histogram struct {
	n int
	s float32
	x []float32
}

// New returns an all-zero histogram with n bins.
func New(n int) Histogram {
	if n < 0 {
		n = 0
	}
	return Histogram{n: n, x: make([]float32, n)}
}

// From returns a normalized histogram whose bins are proportional to values.
// The input slice is copied.
func From(values []float32) (Histogram, error) {
	h := Histogram{n: len(values), x: make([]float32, len(values))}
	copy(h.x, values)
	for _, v := range values {
		h.s += v
	}
	if err := h.Norm(); err != nil {
		return Histogram{}, err
	}
	return h, nil
}

// MustFrom is like From but panics on a degenerate input.
// Intended for fixtures and tests.
func MustFrom(values []float32) Histogram {
	h, err := From(values)
	if err != nil {
		panic(err)
	}
	return h
}

// Len returns the number of bins.
func (h Histogram) Len() int { return h.n }

// Mass returns the cached total mass of all bins.
func (h Histogram) Mass() float32 { return h.s }

// Put adds amount to bin i and to the total mass.
// Amount may be negative. Panics if i is out of range.
func (h *Histogram) Put(i int, amount float32) {
	h.x[i] += amount
	h.s += amount
}

// Get returns the normalized mass of bin i.
//
// A histogram with zero mass has no normalized form and reads as all zeros
// instead of failing. Callers that cannot rule this out check Mass first;
// kmeans rejects such points with ErrDegenerate before reading them.
func (h Histogram) Get(i int) float32 {
	if h.s == 0 {
		return 0
	}
	return h.x[i] / h.s
}

// Norm scales every bin so the total mass becomes 1.
// It returns ErrDegenerate and leaves h untouched if the mass is zero.
func (h *Histogram) Norm() error {
	if h.s == 0 || math.IsNaN(float64(h.s)) {
		return ErrDegenerate
	}
	s := h.s
	for i := range h.x {
		h.x[i] /= s
	}
	h.s = 1
	return nil
}

// Clone returns a deep copy of h.
func (h Histogram) Clone() Histogram {
	x := make([]float32, len(h.x))
	copy(x, h.x)
	return Histogram{n: h.n, s: h.s, x: x}
}

// Values returns a copy of the normalized bins.
func (h Histogram) Values() []float32 {
	out := make([]float32, h.n)
	for i := range out {
		out[i] = h.Get(i)
	}
	return out
}

// Raw returns a copy of the unnormalized bins.
func (h Histogram) Raw() []float32 {
	out := make([]float32, len(h.x))
	copy(out, h.x)
	return out
}

// String implements fmt.Stringer.
func (h Histogram) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < h.n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.4f", h.Get(i))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Equal reports whether a and b have the same bin count and every normalized
// bin differs by less than Epsilon.
func Equal(a, b Histogram) bool {
	if a.n != b.n {
		return false
	}
	for i := 0; i < a.n; i++ {
		if math.Abs(float64(a.Get(i)-b.Get(i))) >= Epsilon {
			return false
		}
	}
	return true
}
