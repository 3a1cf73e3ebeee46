package kmeans

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when Cluster is called with arguments that
// cannot produce a clustering.
var ErrInvalidArgument = errors.New("kmeans: invalid argument")

// ArgumentError describes which argument was rejected.
//
// It satisfies errors.Is(err, ErrInvalidArgument).
type ArgumentError struct {
	Name   string
	Value  any
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("kmeans: invalid argument %s=%v: %s", e.Name, e.Value, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

func invalid(name string, value any, reason string) error {
	return &ArgumentError{Name: name, Value: value, Reason: reason}
}

// PointError reports which input point was rejected.
type PointError struct {
	Index int
	Err   error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("kmeans: point %d: %v", e.Index, e.Err)
}

func (e *PointError) Unwrap() error { return e.Err }
