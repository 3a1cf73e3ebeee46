// Package blobstore provides storage for cached artifacts and cluster tables.
//
// Store is the interface for reading and writing immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with atomic writes and mmap reads
//   - MemoryStore: in-process map, for tests and throwaway runs
//   - CachingStore: read-through local copy of a remote store
//   - s3.Store: Amazon S3 with multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//   - badger.Store: embedded BadgerDB
//
// # Custom Implementations
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs that can expose their content without copying implement Mappable.
package blobstore
