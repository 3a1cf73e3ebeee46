package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor_CoversEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 8, 1000} {
		n := 257
		hits := make([]int32, n)

		err := For(context.Background(), n, workers, func(_ context.Context, lo, hi int) error {
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
			return nil
		})
		require.NoError(t, err)

		for i, h := range hits {
			assert.Equal(t, int32(1), h, "index %d with %d workers", i, workers)
		}
	}
}

func TestFor_Empty(t *testing.T) {
	called := false
	err := For(context.Background(), 0, 4, func(context.Context, int, int) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestFor_Error(t *testing.T) {
	boom := errors.New("boom")
	err := For(context.Background(), 100, 4, func(_ context.Context, lo, _ int) error {
		if lo == 0 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestFor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := For(ctx, 10, 1, func(context.Context, int, int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEach(t *testing.T) {
	var sum atomic.Int64
	err := Each(context.Background(), 10, 3, func(_ context.Context, i int) error {
		sum.Add(int64(i))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(45), sum.Load())
}

func TestEach_Error(t *testing.T) {
	boom := errors.New("boom")
	err := Each(context.Background(), 10, 2, func(_ context.Context, i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 5, Workers(5))
	assert.Positive(t, Workers(0))
}
