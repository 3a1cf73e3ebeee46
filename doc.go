// Package abstraction builds bucket tables by clustering probability
// histograms.
//
// The clustering core lives in package kmeans. This package wires it to a
// persistent artifact cache so that each expensive step runs once per key
// and is reused by every later run that shares the blob store.
//
// # Quick Start
//
//	store := blobstore.NewLocalStore("./artifacts")
//	b, _ := abstraction.New(store, abstraction.WithSeed(42))
//
//	tbl, _ := b.Buckets(ctx, abstraction.BucketSpec{
//	    Name:     "flop",
//	    K:        2197,
//	    Restarts: 20,
//	    Metric:   distance.MetricEMD,
//	}, loadFlopRows)
//
//	bucket := tbl.Lookup(row)
//
// Rows are raw histogram values; the loader is only called when the rows
// are not yet cached, and clustering only runs when the table is missing.
//
// # Artifacts
//
//	histograms/<name>                            encoded rows
//	tables/<name>-k<K>-r<R>-<metric>-<strategy>  encoded bucket table
//
// # Cloud Storage
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("abstraction/"))
//	local := blobstore.NewLocalStore("/fast/nvme")
//	b, _ := abstraction.New(blobstore.NewCachingStore(s3Store, local))
//
// # Logging and Metrics
//
//	logger := abstraction.NewJSONLogger(slog.LevelInfo)
//	metrics := &abstraction.BasicMetricsCollector{}
//	b, _ := abstraction.New(store,
//	    abstraction.WithLogger(logger),
//	    abstraction.WithMetricsCollector(metrics),
//	)
package abstraction
