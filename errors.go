package abstraction

import (
	"errors"
	"fmt"

	"github.com/yugurt2005/poker-abstraction/blobstore"
	"github.com/yugurt2005/poker-abstraction/cache"
	"github.com/yugurt2005/poker-abstraction/combine"
	"github.com/yugurt2005/poker-abstraction/distance"
	"github.com/yugurt2005/poker-abstraction/histogram"
	"github.com/yugurt2005/poker-abstraction/kmeans"
	"github.com/yugurt2005/poker-abstraction/table"
)

var (
	// ErrInvalidArgument is returned for bad specs and clustering arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a stored artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt is returned when a stored artifact cannot be decoded.
	ErrCorrupt = errors.New("corrupt artifact")
)

// ErrDegenerateRow indicates a histogram row with no mass.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrDegenerateRow struct {
	Row   int
	cause error
}

func (e *ErrDegenerateRow) Error() string {
	return fmt.Sprintf("degenerate histogram at row %d", e.Row)
}

func (e *ErrDegenerateRow) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Already translated.
	var dr *ErrDegenerateRow
	if errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCorrupt) || errors.As(err, &dr) {
		return err
	}

	var pe *kmeans.PointError
	if errors.As(err, &pe) && errors.Is(pe.Err, histogram.ErrDegenerate) {
		return &ErrDegenerateRow{Row: pe.Index, cause: err}
	}

	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, cache.ErrCorrupt) || errors.Is(err, table.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if errors.Is(err, kmeans.ErrInvalidArgument) ||
		errors.Is(err, distance.ErrUnknownMetric) ||
		errors.Is(err, combine.ErrUnknownStrategy) ||
		errors.Is(err, table.ErrTooManyBuckets) {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return err
}
