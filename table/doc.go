// Package table stores cluster assignments as dense bucket-id tables.
//
// A Table maps a row index to the bucket it was clustered into. Ids are
// uint16, so a table holds at most 65536 buckets.
//
// # Binary Layout
//
//	offset  size  field
//	0       4     magic "PATB"
//	4       2     version (little-endian)
//	6       2     k (little-endian, 0 means 65536)
//	8       4     n (little-endian)
//	12      2n    ids (little-endian uint16)
//
// Open reads a table from a blob store without copying when the blob is
// memory mapped.
package table
