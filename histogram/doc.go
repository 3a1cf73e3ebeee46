// Package histogram provides the normalized discrete distribution used as the
// unit of comparison during clustering.
//
// A Histogram has a fixed number of ordered bins. Bins accumulate raw mass
// through Put and are read back normalized through Get:
//
//	h := histogram.New(3)
//	h.Put(0, 2)
//	h.Put(2, 6)
//	_ = h.Norm() // bins are now 0.25, 0, 0.75
//
// From builds an already normalized histogram from raw values:
//
//	h, err := histogram.From([]float32{1, 2, 3})
//
// A histogram with zero total mass cannot be normalized. Norm and From return
// ErrDegenerate in that case instead of producing NaN bins.
package histogram
