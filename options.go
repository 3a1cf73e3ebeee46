package abstraction

import (
	"log/slog"

	"github.com/yugurt2005/poker-abstraction/cache"
	"github.com/yugurt2005/poker-abstraction/codec"
	"github.com/yugurt2005/poker-abstraction/kmeans"
)

type options struct {
	codec              codec.Codec
	compression        cache.Compression
	memoryLimit        int64
	maxComputes        int
	metricsCollector   MetricsCollector
	logger             *Logger
	seed               *uint64
	parallelism        int
	restartParallelism int
	maxIterations      int
	tolerance          float32
}

// Option configures a Builder.
type Option func(*options)

// WithCodec configures the codec used for new artifacts.
//
// If nil is passed, codec.Default is used. Existing artifacts are always
// decoded with the codec that wrote them.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the block compression of new artifacts.
// Default: LZ4.
func WithCompression(t cache.Compression) Option {
	return func(o *options) {
		o.compression = t
	}
}

// WithCacheMemoryLimit keeps up to limit bytes of decoded artifacts in memory.
func WithCacheMemoryLimit(limit int64) Option {
	return func(o *options) {
		o.memoryLimit = limit
	}
}

// WithMaxConcurrentComputes bounds how many artifacts are computed at once.
// Clustering is already parallel internally, so the default is 1.
func WithMaxConcurrentComputes(n int) Option {
	return func(o *options) {
		o.maxComputes = n
	}
}

// WithMetricsCollector configures metrics collection for clustering runs.
//
// Example:
//
//	metrics := &abstraction.BasicMetricsCollector{}
//	b, _ := abstraction.New(store, abstraction.WithMetricsCollector(metrics))
//	// ... build tables ...
//	fmt.Printf("pruned: %.2f\n", metrics.PruneRatio())
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := abstraction.NewJSONLogger(slog.LevelInfo)
//	b, _ := abstraction.New(store, abstraction.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithSeed fixes the clustering seed so that tables are reproducible.
// If not set, every computed table uses a fresh random seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithParallelism bounds the goroutines used per clustering phase.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithRestartParallelism bounds how many restarts run at once.
func WithRestartParallelism(n int) Option {
	return func(o *options) {
		o.restartParallelism = n
	}
}

// WithMaxIterations caps the iterations of each restart.
// Default: kmeans.DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithTolerance stops a restart once the relative distortion change is at
// most tol.
func WithTolerance(tol float32) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      cache.CompressionLZ4,
		maxComputes:      1,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}

func (o *options) clusterOptions() []kmeans.Option {
	opts := []kmeans.Option{
		kmeans.WithParallelism(o.parallelism),
		kmeans.WithRestartParallelism(o.restartParallelism),
		kmeans.WithMaxIterations(o.maxIterations),
		kmeans.WithTolerance(o.tolerance),
		kmeans.WithLogger(o.logger.Logger),
		kmeans.WithMetricsCollector(o.metricsCollector),
	}
	if o.seed != nil {
		opts = append(opts, kmeans.WithSeed(*o.seed))
	}
	return opts
}
