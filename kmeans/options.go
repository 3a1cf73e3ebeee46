package kmeans

import (
	"log/slog"
	"math/rand/v2"
)

// DefaultMaxIterations caps the assign/update loop of a single restart.
const DefaultMaxIterations = 500

// DefaultPruneFactor is the multiplier used by the pruning test
// "centerDistance >= factor * pointDistance". It is sound for metrics that
// satisfy the triangle inequality; squared distances need 4.
const DefaultPruneFactor = 2

type options struct {
	seed               uint64
	seeded             bool
	maxIterations      int
	tolerance          float32
	parallelism        int
	restartParallelism int
	pruneFactor        float32
	logger             *slog.Logger
	metrics            MetricsCollector
}

// Option configures a clustering call.
type Option func(*options)

// WithSeed fixes the random seed. Restart r draws from a generator seeded
// with (seed, r), so a seeded call is reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithMaxIterations caps the number of assignment passes per restart.
// Values <= 0 select DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithTolerance stops a restart once the relative change in distortion
// between two iterations is at most tol. Zero (the default) requires the
// distortion to repeat exactly or the assignment to stop changing.
func WithTolerance(tol float32) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

// WithParallelism bounds the goroutines used by each phase.
// Values <= 0 select GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithRestartParallelism bounds how many restarts run at once.
// Values <= 0 run restarts one after another.
func WithRestartParallelism(n int) Option {
	return func(o *options) {
		o.restartParallelism = n
	}
}

// WithPruneFactor sets the pruning multiplier. Use distance.Metric.PruneFactor
// to pick the sound value for a metric.
func WithPruneFactor(f float32) Option {
	return func(o *options) {
		if f > 0 {
			o.pruneFactor = f
		}
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsCollector configures a metrics collector. Pass nil to disable.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxIterations:      DefaultMaxIterations,
		restartParallelism: 1,
		pruneFactor:        DefaultPruneFactor,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.maxIterations <= 0 {
		o.maxIterations = DefaultMaxIterations
	}
	if o.restartParallelism <= 0 {
		o.restartParallelism = 1
	}
	if !o.seeded {
		o.seed = rand.Uint64()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}
	return o
}
