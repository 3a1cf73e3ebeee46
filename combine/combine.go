// Package combine reduces a group of member histograms into one representative
// centroid histogram.
package combine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yugurt2005/poker-abstraction/histogram"
)

var (
	// ErrEmpty is returned when combining an empty member set.
	ErrEmpty = errors.New("combine: no members")

	// ErrUnknownStrategy is returned by Provider and ParseStrategy for unsupported strategies.
	ErrUnknownStrategy = errors.New("combine: unknown strategy")
)

// Func combines a non-empty set of histograms into a normalized centroid.
type Func func(members []histogram.Histogram) (histogram.Histogram, error)

// Average returns the arithmetic mean of the members' normalized
// distributions. Members are expected to share one bin count; the centroid has
// the bin count of the first member and extra bins of longer members are ignored.
func Average(members []histogram.Histogram) (histogram.Histogram, error) {
	if len(members) == 0 {
		return histogram.Histogram{}, ErrEmpty
	}

	n := members[0].Len()
	c := histogram.New(n)
	for _, m := range members {
		for i := 0; i < min(n, m.Len()); i++ {
			c.Put(i, m.Get(i))
		}
	}
	if err := c.Norm(); err != nil {
		return histogram.Histogram{}, err
	}
	return c, nil
}

// Strategy identifies a built-in combine strategy.
type Strategy int

const (
	StrategyAverage Strategy = iota
)

func (s Strategy) String() string {
	switch s {
	case StrategyAverage:
		return "Average"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// ParseStrategy resolves a strategy by its case-insensitive name.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "average", "avg", "mean":
		return StrategyAverage, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Provider returns the combine function for the given strategy.
func Provider(s Strategy) (Func, error) {
	switch s {
	case StrategyAverage:
		return Average, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}
}
