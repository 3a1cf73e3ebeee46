// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("abstraction/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	b, err := abstraction.New(store)
//
// # Features
//
//   - Multipart uploads for large artifacts
//   - Optional write-once puts (If-None-Match) for shared caches
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
