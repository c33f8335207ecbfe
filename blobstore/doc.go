// Package blobstore provides read access to detector error models and shot
// files wherever they live.
//
// Store is the interface for opening immutable blobs by name. Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap support
//   - MemoryStore: in-memory blobs for tests
//   - s3.Store: Amazon S3 with range reads and parallel downloads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Locations
//
// ParseURI splits a location into a scheme and a name:
//
//	s3://bucket/path/model.dem       -> s3, bucket "bucket", key "path/model.dem"
//	minio://host:9000/bucket/shots   -> minio, host "host:9000", bucket "bucket"
//	./model.dem                      -> file
package blobstore
