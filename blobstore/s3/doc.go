// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("experiments/"),
//	    s3.WithRegion("us-east-1"),
//	)
//	data, err := blobstore.ReadAll(ctx, store, "surface_d5.dem")
//
// # Features
//
//   - Range reads for partial fetches
//   - Parallel part downloads for whole-object reads
//   - Custom endpoints for S3-compatible services
package s3
