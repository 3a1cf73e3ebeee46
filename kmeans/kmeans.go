package kmeans

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yugurt2005/poker-abstraction/combine"
	"github.com/yugurt2005/poker-abstraction/distance"
	"github.com/yugurt2005/poker-abstraction/histogram"
	"github.com/yugurt2005/poker-abstraction/internal/parallel"
)

// Cluster partitions points into k clusters and returns the best of
// restarts independent runs.
//
// combineFn builds a center from its members and dist measures a point
// against a center. Points must have non-zero mass; a degenerate point or
// center aborts the call with an error wrapping histogram.ErrDegenerate.
//
// Pruning uses DefaultPruneFactor unless WithPruneFactor is given. That
// factor is only sound for true metrics such as distance.EMD. With
// distance.MSE pass WithPruneFactor(distance.MetricMSE.PruneFactor()) or use
// ClusterWith; otherwise points may keep a center that is not their nearest.
func Cluster(
	ctx context.Context,
	k, restarts int,
	points []histogram.Histogram,
	combineFn combine.Func,
	dist distance.Func,
	optFns ...Option,
) (*Result, error) {
	o := applyOptions(optFns)
	start := time.Now()

	res, err := cluster(ctx, k, restarts, points, combineFn, dist, &o)

	o.metrics.RecordCluster(len(points), k, restarts, time.Since(start), err)
	return res, err
}

// ClusterWith resolves strategy and metric to functions and calls Cluster.
// The prune factor defaults to the one that is sound for metric.
func ClusterWith(
	ctx context.Context,
	k, restarts int,
	points []histogram.Histogram,
	strategy combine.Strategy,
	metric distance.Metric,
	optFns ...Option,
) (*Result, error) {
	combineFn, err := combine.Provider(strategy)
	if err != nil {
		return nil, err
	}
	dist, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}
	opts := append([]Option{WithPruneFactor(metric.PruneFactor())}, optFns...)
	return Cluster(ctx, k, restarts, points, combineFn, dist, opts...)
}

// Assign returns the cluster assignment of the best restart.
func Assign(
	ctx context.Context,
	k, restarts int,
	points []histogram.Histogram,
	combineFn combine.Func,
	dist distance.Func,
	optFns ...Option,
) ([]int, error) {
	res, err := Cluster(ctx, k, restarts, points, combineFn, dist, optFns...)
	if err != nil {
		return nil, err
	}
	return res.Assignment, nil
}

func cluster(
	ctx context.Context,
	k, restarts int,
	points []histogram.Histogram,
	combineFn combine.Func,
	dist distance.Func,
	o *options,
) (*Result, error) {
	if err := validate(k, restarts, points, combineFn, dist, o.logger); err != nil {
		return nil, err
	}

	o.logger.Info("clustering",
		slog.Int("points", len(points)),
		slog.Int("k", k),
		slog.Int("restarts", restarts),
		slog.Uint64("seed", o.seed),
	)

	e := &engine{
		k:         k,
		points:    points,
		combineFn: combineFn,
		dist:      dist,
		opts:      o,
		workers:   parallel.Workers(o.parallelism),
	}

	var best bestCell
	runs := make([]Run, restarts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.restartParallelism)
	for r := 0; r < restarts; r++ {
		g.Go(func() error {
			res, err := e.run(gctx, r)
			if err != nil {
				return err
			}
			runs[r] = Run{
				Restart:    r,
				Distortion: res.Distortion,
				Iterations: res.Iterations,
				Converged:  res.Converged,
			}
			if best.offer(res) {
				o.logger.Debug("new best restart",
					slog.Int("restart", r),
					slog.Float64("distortion", float64(res.Distortion)),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := best.res
	res.Runs = runs
	o.logger.Info("clustering done",
		slog.Int("restart", res.Restart),
		slog.Float64("distortion", float64(res.Distortion)),
		slog.Int("iterations", res.Iterations),
		slog.Int("empty", res.Empty()),
	)
	return res, nil
}

func validate(k, restarts int, points []histogram.Histogram, combineFn combine.Func, dist distance.Func, logger *slog.Logger) error {
	switch {
	case len(points) == 0:
		return invalid("points", 0, "no points to cluster")
	case k <= 0:
		return invalid("k", k, "must be positive")
	case k > len(points):
		return invalid("k", k, "exceeds the number of points")
	case restarts <= 0:
		return invalid("restarts", restarts, "must be positive")
	case combineFn == nil:
		return invalid("combine", nil, "must not be nil")
	case dist == nil:
		return invalid("distance", nil, "must not be nil")
	}

	mismatch := -1
	for i, p := range points {
		if m := p.Mass(); !(m > 0) || math.IsInf(float64(m), 0) {
			return &PointError{Index: i, Err: histogram.ErrDegenerate}
		}
		if mismatch < 0 && distance.Mismatch(points[0], p) {
			mismatch = i
		}
	}
	if mismatch >= 0 {
		logger.Warn("points have different bin counts; distances use the shorter length",
			slog.Int("index", mismatch),
			slog.Int("bins", points[mismatch].Len()),
			slog.Int("expected", points[0].Len()),
		)
	}
	return nil
}

type bestCell struct {
	mu  sync.Mutex
	res *Result
}

// offer keeps r if it has strictly lower distortion, or equal distortion and
// a lower restart index, so the winner does not depend on scheduling.
func (b *bestCell) offer(r *Result) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.res == nil ||
		r.Distortion < b.res.Distortion ||
		(r.Distortion == b.res.Distortion && r.Restart < b.res.Restart) {
		b.res = r
		return true
	}
	return false
}

type engine struct {
	k         int
	points    []histogram.Histogram
	combineFn combine.Func
	dist      distance.Func
	opts      *options
	workers   int
}

// run executes one restart.
func (e *engine) run(ctx context.Context, restart int) (*Result, error) {
	start := time.Now()
	o := e.opts
	n, k := len(e.points), e.k
	logger := o.logger.With(slog.Int("restart", restart))

	rng := rand.New(rand.NewPCG(o.seed, uint64(restart)))
	centers, err := seedCenters(ctx, k, e.points, e.dist, rng, e.workers)
	if err != nil {
		return nil, err
	}

	labels := make([]int, n)
	next := make([]int, n)
	dists := make([]float32, n)
	cd := make([]float32, k*k)
	progress := rate.Sometimes{First: 1, Interval: time.Second}

	prev := float32(math.MaxFloat32)
	var distortion float32
	converged := false
	iter := 0

	for iter < o.maxIterations {
		iter++

		if err := centerDistances(ctx, centers, e.dist, cd, e.workers); err != nil {
			return nil, err
		}
		st, err := assignPoints(ctx, e.points, centers, cd, labels, next, dists, e.dist, o.pruneFactor, e.workers)
		if err != nil {
			return nil, err
		}
		labels, next = next, labels
		distortion = sum(dists)
		empty := k - int(occupancy(labels, k).Count())

		o.metrics.RecordIteration(IterationStats{
			Restart:    restart,
			Iteration:  iter,
			Distortion: distortion,
			Changed:    st.changed,
			Evaluated:  st.evaluated,
			Pruned:     st.pruned,
			Empty:      empty,
		})
		progress.Do(func() {
			logger.Info("iteration",
				slog.Int("iteration", iter),
				slog.Float64("distortion", float64(distortion)),
				slog.Int("changed", st.changed),
			)
		})

		if e.done(iter, prev, distortion, st.changed) {
			converged = true
			break
		}

		if empty > 0 {
			logger.Debug("empty clusters keep their previous center", slog.Int("empty", empty))
		}
		if err := updateCenters(ctx, e.points, labels, centers, e.combineFn, e.workers); err != nil {
			if errors.Is(err, histogram.ErrDegenerate) {
				logger.Error("degenerate center", slog.Any("error", err))
			}
			return nil, err
		}
		prev = distortion
	}

	if !converged {
		logger.Warn("iteration cap reached before convergence",
			slog.Int("iterations", iter),
			slog.Float64("distortion", float64(distortion)),
		)
	}
	o.metrics.RecordRestart(restart, iter, distortion, converged, time.Since(start))

	return &Result{
		Assignment: labels,
		Distortion: distortion,
		Restart:    restart,
		Iterations: iter,
		Converged:  converged,
		Centers:    centers,
		K:          k,
	}, nil
}

// done reports whether a restart has reached a fixed point. The distortion
// repeating exactly, or no point moving after the first pass, both mean a
// further update would reproduce the same centers.
func (e *engine) done(iter int, prev, distortion float32, changed int) bool {
	if distortion == prev {
		return true
	}
	if iter > 1 && changed == 0 {
		return true
	}
	if tol := e.opts.tolerance; tol > 0 && iter > 1 {
		return math.Abs(float64(prev-distortion)) <= float64(tol)*math.Abs(float64(prev))
	}
	return false
}
