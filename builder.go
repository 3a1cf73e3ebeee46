package abstraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yugurt2005/poker-abstraction/blobstore"
	"github.com/yugurt2005/poker-abstraction/cache"
	"github.com/yugurt2005/poker-abstraction/combine"
	"github.com/yugurt2005/poker-abstraction/distance"
	"github.com/yugurt2005/poker-abstraction/histogram"
	"github.com/yugurt2005/poker-abstraction/kmeans"
	"github.com/yugurt2005/poker-abstraction/table"
)

// Loader produces raw histogram rows. It is only called when the rows are
// not cached yet.
type Loader func(ctx context.Context) ([][]float32, error)

// BucketSpec describes one bucket table.
type BucketSpec struct {
	// Name identifies the histogram set, e.g. "flop".
	Name string
	// K is the number of buckets.
	K int
	// Restarts is the number of independent clustering runs.
	Restarts int
	Metric   distance.Metric
	Strategy combine.Strategy
}

// Key returns the artifact key of the table. Every field that changes the
// clustering is part of the key.
func (s BucketSpec) Key() string {
	return fmt.Sprintf("tables/%s-k%d-r%d-%s-%s",
		s.Name, s.K, s.Restarts,
		strings.ToLower(s.Metric.String()),
		strings.ToLower(s.Strategy.String()),
	)
}

func (s BucketSpec) validate() error {
	if err := validateName(s.Name); err != nil {
		return err
	}
	switch {
	case s.K <= 0:
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, s.K)
	case s.K > table.MaxBuckets:
		return fmt.Errorf("%w: k %d exceeds %d", ErrInvalidArgument, s.K, table.MaxBuckets)
	case s.Restarts <= 0:
		return fmt.Errorf("%w: restarts must be positive, got %d", ErrInvalidArgument, s.Restarts)
	}
	if _, err := distance.Provider(s.Metric); err != nil {
		return translateError(err)
	}
	if _, err := combine.Provider(s.Strategy); err != nil {
		return translateError(err)
	}
	return nil
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidArgument, name)
	}
	return nil
}

// HistogramsKey returns the artifact key of the rows named name.
func HistogramsKey(name string) string {
	return "histograms/" + name
}

// Builder memoizes histogram sets and bucket tables in a blob store.
//
// A Builder is safe for concurrent use.
type Builder struct {
	cache  *cache.Cache
	opts   options
	logger *Logger
}

// New creates a Builder over store.
func New(store blobstore.Store, optFns ...Option) (*Builder, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store must not be nil", ErrInvalidArgument)
	}
	opts := applyOptions(optFns)

	c := cache.New(store,
		cache.WithCodec(opts.codec),
		cache.WithCompression(opts.compression),
		cache.WithMemoryLimit(opts.memoryLimit),
		cache.WithMaxConcurrentComputes(opts.maxComputes),
		cache.WithLogger(opts.logger.Logger),
	)
	return &Builder{
		cache:  c,
		opts:   opts,
		logger: opts.logger,
	}, nil
}

// Cache returns the artifact cache.
func (b *Builder) Cache() *cache.Cache {
	return b.cache
}

// Rows returns the raw rows named name, calling load on a cache miss.
func (b *Builder) Rows(ctx context.Context, name string, load Loader) ([][]float32, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if load == nil {
		return nil, fmt.Errorf("%w: loader must not be nil", ErrInvalidArgument)
	}

	rows, err := cache.Get(ctx, b.cache, HistogramsKey(name), func(ctx context.Context) ([][]float32, error) {
		rows, err := load(ctx)
		bins := 0
		if len(rows) > 0 {
			bins = len(rows[0])
		}
		b.logger.WithName(name).LogLoad(ctx, len(rows), bins, err)
		return rows, err
	})
	return rows, translateError(err)
}

// Histograms returns the rows named name as normalized histograms.
func (b *Builder) Histograms(ctx context.Context, name string, load Loader) ([]histogram.Histogram, error) {
	rows, err := b.Rows(ctx, name, load)
	if err != nil {
		return nil, err
	}

	points := make([]histogram.Histogram, len(rows))
	for i, row := range rows {
		h, err := histogram.From(row)
		if err != nil {
			return nil, &ErrDegenerateRow{Row: i, cause: err}
		}
		points[i] = h
	}
	return points, nil
}

// Cluster clusters the histograms of spec.Name without memoizing the result.
func (b *Builder) Cluster(ctx context.Context, spec BucketSpec, load Loader) (*kmeans.Result, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	points, err := b.Histograms(ctx, spec.Name, load)
	if err != nil {
		return nil, err
	}
	return b.cluster(ctx, spec, points)
}

func (b *Builder) cluster(ctx context.Context, spec BucketSpec, points []histogram.Histogram) (*kmeans.Result, error) {
	logger := b.logger.WithName(spec.Name).WithK(spec.K)
	start := time.Now()
	res, err := kmeans.ClusterWith(ctx, spec.K, spec.Restarts, points, spec.Strategy, spec.Metric, b.opts.clusterOptions()...)
	if err != nil {
		logger.LogCluster(ctx, len(points), 0, 0, time.Since(start), err)
		return nil, translateError(err)
	}
	logger.LogCluster(ctx, len(points), res.Distortion, res.EffectiveK(), time.Since(start), nil)
	return res, nil
}

// errNoPoints is returned by the table compute step when the table went
// missing after the histograms were skipped.
var errNoPoints = errors.New("histograms not loaded")

// Buckets returns the bucket table of spec, clustering only when the table
// is not stored yet.
//
// Histograms are loaded before the table computation starts, so the cache
// never runs a nested computation while holding a compute slot.
func (b *Builder) Buckets(ctx context.Context, spec BucketSpec, load Loader) (*table.Table, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	stored, err := b.cache.Contains(ctx, spec.Key())
	if err != nil {
		return nil, translateError(err)
	}

	var points []histogram.Histogram
	if !stored {
		if points, err = b.Histograms(ctx, spec.Name, load); err != nil {
			return nil, err
		}
	}

	data, err := b.tableBytes(ctx, spec, points)
	if errors.Is(err, errNoPoints) {
		if points, err = b.Histograms(ctx, spec.Name, load); err != nil {
			return nil, err
		}
		data, err = b.tableBytes(ctx, spec, points)
	}
	if err != nil {
		return nil, translateError(err)
	}
	return b.decodeTable(spec, data)
}

func (b *Builder) tableBytes(ctx context.Context, spec BucketSpec, points []histogram.Histogram) ([]byte, error) {
	return b.cache.Bytes(ctx, spec.Key(), func(ctx context.Context) ([]byte, error) {
		if points == nil {
			return nil, errNoPoints
		}
		res, err := b.cluster(ctx, spec, points)
		if err != nil {
			return nil, err
		}
		tbl, err := table.New(res.Assignment, spec.K)
		if err != nil {
			return nil, err
		}
		return tbl.MarshalBinary()
	})
}

func (b *Builder) decodeTable(spec BucketSpec, data []byte) (*table.Table, error) {
	tbl := new(table.Table)
	if err := tbl.UnmarshalBinary(data); err != nil {
		return nil, translateError(err)
	}
	if tbl.K() != spec.K {
		return nil, fmt.Errorf("%w: %s holds k=%d", ErrCorrupt, spec.Key(), tbl.K())
	}
	return tbl, nil
}

// Table returns the stored table of spec without computing it.
func (b *Builder) Table(ctx context.Context, spec BucketSpec) (*table.Table, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	ok, err := b.cache.Contains(ctx, spec.Key())
	if err != nil {
		return nil, translateError(err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, spec.Key())
	}
	data, err := b.tableBytes(ctx, spec, nil)
	if errors.Is(err, errNoPoints) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, spec.Key())
	}
	if err != nil {
		return nil, translateError(err)
	}
	return b.decodeTable(spec, data)
}

// Quality summarizes how well a table fits its histograms.
type Quality struct {
	Distortion float32
	EffectiveK int
	Sizes      []int
}

// Evaluate scores tbl against the histograms of spec.Name.
func (b *Builder) Evaluate(ctx context.Context, spec BucketSpec, tbl *table.Table, load Loader) (Quality, error) {
	if err := spec.validate(); err != nil {
		return Quality{}, err
	}
	points, err := b.Histograms(ctx, spec.Name, load)
	if err != nil {
		return Quality{}, err
	}
	if tbl.Len() != len(points) {
		return Quality{}, fmt.Errorf("%w: table has %d rows, histograms have %d", ErrInvalidArgument, tbl.Len(), len(points))
	}

	assignment := make([]int, tbl.Len())
	for i, id := range tbl.IDs() {
		assignment[i] = int(id)
	}
	combineFn, _ := combine.Provider(spec.Strategy)
	dist, _ := distance.Provider(spec.Metric)

	d, err := kmeans.Distortion(ctx, points, assignment, tbl.K(), combineFn, dist,
		kmeans.WithParallelism(b.opts.parallelism),
		kmeans.WithLogger(b.logger.Logger),
	)
	if err != nil {
		return Quality{}, translateError(err)
	}

	sizes := tbl.Sizes()
	effective := 0
	for _, s := range sizes {
		if s > 0 {
			effective++
		}
	}
	return Quality{Distortion: d, EffectiveK: effective, Sizes: sizes}, nil
}
