// Package testutil provides testing utilities for the clustering packages.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for histogram datasets and helpers for
// comparing partitions.
//
// # Random Histograms
//
//	rng := testutil.NewRNG(seed)
//	points := rng.UniformHistograms(1000, 50)
//	spikes := rng.SpikeHistograms(100, 10, 10, 20)
//
// # Partition Comparison
//
//	ok := testutil.SameGroups(got, want)
package testutil
