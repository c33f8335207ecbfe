package blobstore

import (
	"fmt"
	"strings"
)

// Scheme identifies the backend of a location.
type Scheme string

// Supported schemes.
const (
	SchemeFile  Scheme = "file"
	SchemeS3    Scheme = "s3"
	SchemeMinio Scheme = "minio"
)

// URI is a parsed blob location.
type URI struct {
	Scheme Scheme
	// Host is the MinIO endpoint. Empty for other schemes.
	Host   string
	Bucket string
	// Key is the object key, or the file path for SchemeFile.
	Key string
}

// String formats the URI back into its textual form.
func (u URI) String() string {
	switch u.Scheme {
	case SchemeS3:
		return "s3://" + u.Bucket + "/" + u.Key
	case SchemeMinio:
		return "minio://" + u.Host + "/" + u.Bucket + "/" + u.Key
	default:
		return u.Key
	}
}

// ParseURI splits a location into scheme, host, bucket and key.
// Strings without a recognised scheme, and file:// URIs, are local paths.
func ParseURI(s string) (URI, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return URI{Scheme: SchemeFile, Key: s}, nil
	}

	switch Scheme(strings.ToLower(scheme)) {
	case SchemeFile:
		return URI{Scheme: SchemeFile, Key: rest}, nil
	case SchemeS3:
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return URI{}, fmt.Errorf("blobstore: %q: want s3://bucket/key", s)
		}
		return URI{Scheme: SchemeS3, Bucket: bucket, Key: key}, nil
	case SchemeMinio:
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return URI{}, fmt.Errorf("blobstore: %q: want minio://host/bucket/key", s)
		}
		return URI{Scheme: SchemeMinio, Host: parts[0], Bucket: parts[1], Key: parts[2]}, nil
	default:
		return URI{}, fmt.Errorf("blobstore: %q: unsupported scheme %q", s, scheme)
	}
}
