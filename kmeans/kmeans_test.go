package kmeans

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugurt2005/poker-abstraction/combine"
	"github.com/yugurt2005/poker-abstraction/distance"
	"github.com/yugurt2005/poker-abstraction/histogram"
	"github.com/yugurt2005/poker-abstraction/testutil"
)

func TestCluster_EightPoints(t *testing.T) {
	want := []int{0, 0, 0, 1, 1, 1, 2, 2}

	for _, metric := range []distance.Metric{distance.MetricMSE, distance.MetricEMD} {
		t.Run(metric.String(), func(t *testing.T) {
			for seed := uint64(0); seed < 100; seed++ {
				res, err := ClusterWith(context.Background(), 3, 5, testutil.EightHistograms(),
					combine.StrategyAverage, metric, WithSeed(seed))
				require.NoError(t, err)

				assert.True(t, testutil.SameGroups(res.Assignment, want), "seed %d: assignment %v", seed, res.Assignment)
				assert.Equal(t, 3, res.EffectiveK(), "seed %d", seed)
				assert.True(t, res.Converged, "seed %d", seed)
			}
		})
	}
}

func TestCluster_EightPointsPlainCallbacks(t *testing.T) {
	res, err := Cluster(context.Background(), 3, 5, testutil.EightHistograms(), combine.Average, distance.EMD, WithSeed(7))
	require.NoError(t, err)
	assert.True(t, testutil.SameGroups(res.Assignment, []int{0, 0, 0, 1, 1, 1, 2, 2}), "assignment %v", res.Assignment)

	// MSE through plain callbacks needs the squared-distance factor.
	res, err = Cluster(context.Background(), 3, 5, testutil.EightHistograms(), combine.Average, distance.MSE,
		WithSeed(7), WithPruneFactor(distance.MetricMSE.PruneFactor()))
	require.NoError(t, err)
	assert.True(t, testutil.SameGroups(res.Assignment, []int{0, 0, 0, 1, 1, 1, 2, 2}), "assignment %v", res.Assignment)
}

func spikeGroups(n int) []int {
	want := make([]int, n)
	for i := range want {
		want[i] = i / 10
	}
	return want
}

// With one restart the linear seeding weights sometimes place two centers in
// the same spike group. Across seeds the grouping must still be found in the
// large majority of runs.
func TestCluster_SpikesSingleRestart(t *testing.T) {
	rng := testutil.NewRNG(4711)
	points := rng.SpikeHistograms(100, 10, 10, 20)
	want := spikeGroups(len(points))

	const seeds = 100
	found := 0
	for seed := uint64(0); seed < seeds; seed++ {
		res, err := ClusterWith(context.Background(), 10, 1, points, combine.StrategyAverage, distance.MetricMSE, WithSeed(seed))
		require.NoError(t, err)
		require.Len(t, res.Assignment, len(points))
		if testutil.SameGroups(res.Assignment, want) {
			found++
		}
	}
	assert.GreaterOrEqual(t, found, 70, "found the spike groups for %d of %d seeds", found, seeds)
}

func TestCluster_Spikes(t *testing.T) {
	rng := testutil.NewRNG(4711)
	points := rng.SpikeHistograms(100, 10, 10, 20)
	want := spikeGroups(len(points))

	for seed := uint64(0); seed < 20; seed++ {
		res, err := ClusterWith(context.Background(), 10, 5, points, combine.StrategyAverage, distance.MetricMSE, WithSeed(seed))
		require.NoError(t, err)

		assert.True(t, testutil.SameGroups(res.Assignment, want), "seed %d: assignment %v", seed, res.Assignment)
		for _, s := range res.Sizes() {
			assert.Equal(t, 10, s, "seed %d", seed)
		}
	}
}

func TestCluster_AssignmentInRange(t *testing.T) {
	rng := testutil.NewRNG(42)
	points := rng.UniformHistograms(300, 20)

	for _, k := range []int{1, 2, 7, 50} {
		res, err := Cluster(context.Background(), k, 2, points, combine.Average, distance.EMD, WithSeed(3))
		require.NoError(t, err)
		require.Len(t, res.Assignment, len(points))
		for _, p := range res.Assignment {
			assert.GreaterOrEqual(t, p, 0)
			assert.Less(t, p, k)
		}
		assert.Len(t, res.Centers, k)
		assert.Equal(t, k, res.K)
	}
}

func TestCluster_KEqualsN(t *testing.T) {
	points := testutil.EightHistograms()

	res, err := Cluster(context.Background(), len(points), 1, points, combine.Average, distance.MSE, WithSeed(5))
	require.NoError(t, err)

	assert.Equal(t, len(points), res.EffectiveK())
	assert.InDelta(t, 0, res.Distortion, 1e-9)
}

func TestCluster_SingleCluster(t *testing.T) {
	points := testutil.EightHistograms()

	res, err := Cluster(context.Background(), 1, 1, points, combine.Average, distance.MSE)
	require.NoError(t, err)

	for _, p := range res.Assignment {
		assert.Equal(t, 0, p)
	}
	assert.Equal(t, []int{len(points)}, res.Sizes())
}

func TestCluster_BestOfRestarts(t *testing.T) {
	rng := testutil.NewRNG(11)
	points := rng.UniformHistograms(200, 10)

	res, err := Cluster(context.Background(), 8, 6, points, combine.Average, distance.EMD, WithSeed(99))
	require.NoError(t, err)
	require.Len(t, res.Runs, 6)

	for _, run := range res.Runs {
		assert.LessOrEqual(t, res.Distortion, run.Distortion)
	}
	assert.Equal(t, res.Distortion, res.Runs[res.Restart].Distortion)

	// Restart 0 of a seeded call is the same run as a single-restart call.
	single, err := Cluster(context.Background(), 8, 1, points, combine.Average, distance.EMD, WithSeed(99))
	require.NoError(t, err)
	assert.Equal(t, res.Runs[0].Distortion, single.Distortion)
}

func TestCluster_Deterministic(t *testing.T) {
	rng := testutil.NewRNG(5)
	points := rng.UniformHistograms(500, 16)

	base, err := Cluster(context.Background(), 12, 4, points, combine.Average, distance.EMD,
		WithSeed(8), WithParallelism(1), WithRestartParallelism(1))
	require.NoError(t, err)

	other, err := Cluster(context.Background(), 12, 4, points, combine.Average, distance.EMD,
		WithSeed(8), WithParallelism(8), WithRestartParallelism(4))
	require.NoError(t, err)

	assert.Equal(t, base.Assignment, other.Assignment)
	assert.Equal(t, base.Distortion, other.Distortion)
	assert.Equal(t, base.Restart, other.Restart)
}

type recordingCollector struct {
	NoopMetricsCollector
	mu          sync.Mutex
	distortions map[int][]float32
}

func (r *recordingCollector) RecordIteration(s IterationStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.distortions == nil {
		r.distortions = make(map[int][]float32)
	}
	r.distortions[s.Restart] = append(r.distortions[s.Restart], s.Distortion)
}

func TestCluster_DistortionNonIncreasingForMSE(t *testing.T) {
	rng := testutil.NewRNG(21)
	points := rng.UniformHistograms(400, 12)
	rec := &recordingCollector{}

	_, err := ClusterWith(context.Background(), 10, 3, points, combine.StrategyAverage, distance.MetricMSE,
		WithSeed(4), WithMetricsCollector(rec))
	require.NoError(t, err)

	require.Len(t, rec.distortions, 3)
	for restart, ds := range rec.distortions {
		for i := 1; i < len(ds); i++ {
			slack := 1e-5 * float64(ds[i-1])
			assert.LessOrEqual(t, float64(ds[i]), float64(ds[i-1])+slack, "restart %d iteration %d", restart, i+1)
		}
	}
}

func TestCluster_IterationCap(t *testing.T) {
	rng := testutil.NewRNG(2)
	points := rng.UniformHistograms(200, 8)
	mc := &BasicMetricsCollector{}

	res, err := Cluster(context.Background(), 5, 1, points, combine.Average, distance.MSE,
		WithSeed(1), WithMaxIterations(1), WithMetricsCollector(mc))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Converged)
	assert.Equal(t, int64(1), mc.Capped.Load())
	assert.Equal(t, int64(1), mc.Clusters.Load())
	assert.Equal(t, int64(1), mc.Iterations.Load())
}

func TestCluster_Tolerance(t *testing.T) {
	rng := testutil.NewRNG(9)
	points := rng.UniformHistograms(300, 10)

	exact, err := Cluster(context.Background(), 6, 1, points, combine.Average, distance.MSE, WithSeed(6))
	require.NoError(t, err)

	loose, err := Cluster(context.Background(), 6, 1, points, combine.Average, distance.MSE, WithSeed(6), WithTolerance(0.5))
	require.NoError(t, err)

	assert.True(t, loose.Converged)
	assert.LessOrEqual(t, loose.Iterations, exact.Iterations)
}

func TestCluster_InvalidArguments(t *testing.T) {
	points := testutil.EightHistograms()
	ctx := context.Background()

	tests := []struct {
		name     string
		k        int
		restarts int
		points   []histogram.Histogram
		combine  combine.Func
		dist     distance.Func
		arg      string
	}{
		{"zero k", 0, 1, points, combine.Average, distance.MSE, "k"},
		{"k above n", 9, 1, points, combine.Average, distance.MSE, "k"},
		{"zero restarts", 2, 0, points, combine.Average, distance.MSE, "restarts"},
		{"no points", 1, 1, nil, combine.Average, distance.MSE, "points"},
		{"nil combine", 2, 1, points, nil, distance.MSE, "combine"},
		{"nil distance", 2, 1, points, combine.Average, nil, "distance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Cluster(ctx, tt.k, tt.restarts, tt.points, tt.combine, tt.dist)
			require.ErrorIs(t, err, ErrInvalidArgument)

			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.arg, argErr.Name)
		})
	}
}

func TestCluster_DegeneratePoint(t *testing.T) {
	points := testutil.EightHistograms()
	points = append(points, histogram.New(3))

	_, err := Cluster(context.Background(), 2, 1, points, combine.Average, distance.MSE)
	require.ErrorIs(t, err, histogram.ErrDegenerate)

	var pe *PointError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 8, pe.Index)
}

func TestCluster_DegenerateCenter(t *testing.T) {
	zero := func(members []histogram.Histogram) (histogram.Histogram, error) {
		return histogram.New(members[0].Len()), nil
	}

	_, err := Cluster(context.Background(), 2, 2, testutil.EightHistograms(), zero, distance.MSE, WithSeed(1))
	assert.ErrorIs(t, err, histogram.ErrDegenerate)
}

func TestCluster_BinCountMismatch(t *testing.T) {
	points := testutil.EightHistograms()
	points = append(points, histogram.MustFrom([]float32{1, 1, 1, 1}))

	res, err := Cluster(context.Background(), 3, 2, points, combine.Average, distance.EMD, WithSeed(1))
	require.NoError(t, err)
	assert.Len(t, res.Assignment, len(points))
}

func TestCluster_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rng := testutil.NewRNG(1)
	points := rng.UniformHistograms(1000, 8)

	_, err := Cluster(ctx, 10, 2, points, combine.Average, distance.MSE)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssign(t *testing.T) {
	a, err := Assign(context.Background(), 3, 5, testutil.EightHistograms(), combine.Average, distance.EMD, WithSeed(7))
	require.NoError(t, err)
	assert.Len(t, a, 8)
}

func TestClusterWith_UnknownMetric(t *testing.T) {
	_, err := ClusterWith(context.Background(), 2, 1, testutil.EightHistograms(), combine.StrategyAverage, distance.Metric(99))
	assert.ErrorIs(t, err, distance.ErrUnknownMetric)
}

func TestResult_Members(t *testing.T) {
	res := &Result{K: 3, Assignment: []int{0, 2, 2, 0, 2}}

	members := res.Members()
	require.Len(t, members, 3)
	assert.Equal(t, []uint32{0, 3}, members[0].ToArray())
	assert.True(t, members[1].IsEmpty())
	assert.Equal(t, []uint32{1, 2, 4}, members[2].ToArray())

	assert.Equal(t, []int{2, 0, 3}, res.Sizes())
	assert.Equal(t, 1, res.Empty())
	assert.Equal(t, 2, res.EffectiveK())
}

func TestAssignPoints_PruningMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(17)
	points := rng.UniformHistograms(400, 12)
	centers := rng.UniformHistograms(16, 12)
	k := len(centers)

	for _, metric := range []distance.Metric{distance.MetricMSE, distance.MetricEMD} {
		dist, err := distance.Provider(metric)
		require.NoError(t, err)

		cd := make([]float32, k*k)
		require.NoError(t, centerDistances(context.Background(), centers, dist, cd, 4))

		prev := make([]int, len(points))
		for i := range prev {
			prev[i] = rng.Intn(k)
		}
		next := make([]int, len(points))
		dists := make([]float32, len(points))

		st, err := assignPoints(context.Background(), points, centers, cd, prev, next, dists, dist, metric.PruneFactor(), 4)
		require.NoError(t, err)
		assert.Equal(t, len(points)*k, st.evaluated+st.pruned)

		for i, p := range points {
			best := float32(math.MaxFloat32)
			for _, c := range centers {
				best = min(best, dist(p, c))
			}
			assert.Equal(t, best, dists[i], "%s point %d", metric, i)
			assert.Equal(t, dists[i], dist(p, centers[next[i]]))
		}
	}
}

func TestCenterDistances_Symmetric(t *testing.T) {
	centers := testutil.EightHistograms()
	k := len(centers)
	cd := make([]float32, k*k)

	require.NoError(t, centerDistances(context.Background(), centers, distance.EMD, cd, 3))
	for i := 0; i < k; i++ {
		assert.Equal(t, float32(0), cd[i*k+i])
		for j := 0; j < k; j++ {
			assert.Equal(t, cd[i*k+j], cd[j*k+i])
		}
	}
}

func TestWeightedSample(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for range 100 {
		assert.Equal(t, 2, weightedSample([]float32{0, 0, 3, 0}, rng))
	}

	for range 100 {
		i := weightedSample([]float32{0, 0, 0}, rng)
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 3)
	}

	counts := make([]int, 2)
	for range 10000 {
		counts[weightedSample([]float32{1, 3}, rng)]++
	}
	assert.InDelta(t, 0.75, float64(counts[1])/10000, 0.05)
}

func TestSeedCenters_Distinct(t *testing.T) {
	points := testutil.EightHistograms()
	rng := rand.New(rand.NewPCG(3, 0))

	centers, err := seedCenters(context.Background(), len(points), points, distance.MSE, rng, 2)
	require.NoError(t, err)
	require.Len(t, centers, len(points))

	for i := range centers {
		for j := i + 1; j < len(centers); j++ {
			assert.False(t, histogram.Equal(centers[i], centers[j]), "centers %d and %d", i, j)
		}
	}
}

func TestBestCell_TieBreak(t *testing.T) {
	var b bestCell
	assert.True(t, b.offer(&Result{Restart: 3, Distortion: 1}))
	assert.False(t, b.offer(&Result{Restart: 4, Distortion: 1}))
	assert.True(t, b.offer(&Result{Restart: 1, Distortion: 1}))
	assert.True(t, b.offer(&Result{Restart: 5, Distortion: 0.5}))
	assert.Equal(t, 5, b.res.Restart)
}

func TestBasicMetricsCollector(t *testing.T) {
	mc := &BasicMetricsCollector{}
	mc.RecordIteration(IterationStats{Evaluated: 30, Pruned: 10})
	mc.RecordRestart(0, 1, 1, true, time.Millisecond)
	mc.RecordCluster(10, 2, 1, time.Millisecond, nil)

	assert.Equal(t, int64(1), mc.Iterations.Load())
	assert.Equal(t, int64(0), mc.Capped.Load())
	assert.InDelta(t, 0.25, mc.PruneRatio(), 1e-9)
}

func BenchmarkCluster(b *testing.B) {
	rng := testutil.NewRNG(1)
	points := rng.UniformHistograms(1000, 100)

	for _, metric := range []distance.Metric{distance.MetricMSE, distance.MetricEMD} {
		b.Run(metric.String(), func(b *testing.B) {
			for b.Loop() {
				_, err := ClusterWith(context.Background(), 10, 1, points, combine.StrategyAverage, metric, WithSeed(1))
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func TestDistortion(t *testing.T) {
	ctx := context.Background()
	points := testutil.EightHistograms()

	res, err := Cluster(ctx, 3, 2, points, combine.Average, distance.EMD, WithSeed(3))
	require.NoError(t, err)
	require.True(t, res.Converged)

	d, err := Distortion(ctx, points, res.Assignment, 3, combine.Average, distance.EMD)
	require.NoError(t, err)
	assert.InDelta(t, res.Distortion, d, 1e-4)

	_, err = Distortion(ctx, points, res.Assignment[:3], 3, combine.Average, distance.EMD)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	bad := append([]int(nil), res.Assignment...)
	bad[0] = 3
	_, err = Distortion(ctx, points, bad, 3, combine.Average, distance.EMD)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
