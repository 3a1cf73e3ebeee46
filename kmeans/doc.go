// Package kmeans clusters histograms with a parallel, multi-restart Lloyd's
// algorithm.
//
// Each restart seeds k centers with k-means++ style sampling, then alternates
// an assignment phase and a centroid update phase until the total distortion
// stops changing. The assignment phase starts every point at its previous
// cluster and skips a candidate center whenever the center-to-center distance
// proves it cannot be closer (triangle-inequality pruning). The restart with
// the lowest distortion wins.
//
// # Usage
//
//	res, err := kmeans.Cluster(ctx, 3, 5, points, combine.Average, distance.EMD,
//	    kmeans.WithSeed(42),
//	)
//	if err != nil { ... }
//	fmt.Println(res.Assignment, res.Distortion)
//
// # Concurrency
//
// Both phases fan out over goroutines and end with a barrier. Points are
// never mutated and are shared by every restart; centers and assignments are
// restart-local. The distortion is reduced sequentially in point order, so
// results do not depend on the number of workers.
package kmeans
