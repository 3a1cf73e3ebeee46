// Package cache memoizes expensive computations as artifacts in a blob store.
//
// An artifact is stored under a key as a small header followed by a
// compressed payload. The header records the codec that encoded the payload,
// so artifacts written with one codec stay readable after the default changes.
//
//	c := cache.New(store, cache.WithCompression(cache.CompressionZSTD))
//	rows, err := cache.Get(ctx, c, "histograms/flop", loadRows)
//
// The first call for a key runs compute and stores the result; later calls,
// from this process or any other sharing the store, decode the stored
// artifact. Concurrent calls for the same key share one computation.
//
// # Memory Tier
//
// WithMemoryLimit keeps recently used payloads in an in-process LRU bounded
// by bytes, which saves a store round trip and decompression on repeated
// lookups.
package cache
