// Package minio provides a blobstore.Store backed by the MinIO client.
//
// It works with MinIO and other S3-compatible services such as Ceph, Garage
// and SeaweedFS without pulling in the AWS SDK.
//
// # Basic Usage
//
//	store, err := minio.New("localhost:9000", "qec",
//	    minio.WithStaticCredentials("minioadmin", "minioadmin"),
//	    minio.WithInsecure(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data, err := blobstore.ReadAll(ctx, store, "surface_d5.dem")
//
// Without explicit credentials the MINIO_ACCESS_KEY and MINIO_SECRET_KEY
// environment variables are used.
package minio
