package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/tesseract/blobstore"
	"github.com/hupe1980/tesseract/blobstore/minio"
	"github.com/hupe1980/tesseract/blobstore/s3"
	"github.com/hupe1980/tesseract/codec"
	"github.com/hupe1980/tesseract/dem"
	"github.com/hupe1980/tesseract/internal/resource"
	"github.com/hupe1980/tesseract/shots"
)

// input reads DEM and shot files from any supported location.
type input struct {
	ctrl *resource.Controller
}

func newInput(readBytesPerSec int64) *input {
	var ctrl *resource.Controller
	if readBytesPerSec > 0 {
		ctrl = resource.NewController(resource.Config{IOLimitBytesPerSec: readBytesPerSec})
	}
	return &input{ctrl: ctrl}
}

func openStore(ctx context.Context, u blobstore.URI) (blobstore.Store, error) {
	switch u.Scheme {
	case blobstore.SchemeS3:
		return s3.New(ctx, u.Bucket)
	case blobstore.SchemeMinio:
		return minio.New(u.Host, u.Bucket)
	default:
		return blobstore.NewLocalStore(""), nil
	}
}

// read returns the decompressed content of location.
func (in *input) read(ctx context.Context, location string) ([]byte, error) {
	u, err := blobstore.ParseURI(location)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}

	var data []byte
	if in.ctrl == nil {
		data, err = blobstore.ReadAll(ctx, store, u.Key)
	} else {
		data, err = in.readThrottled(ctx, store, u.Key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}

	out, err := codec.Decode(codec.ForPath(u.Key), data)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", location, err)
	}
	return out, nil
}

func (in *input) readThrottled(ctx context.Context, store blobstore.Store, name string) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	buf := bytes.NewBuffer(make([]byte, 0, blob.Size()))
	if _, err := io.Copy(buf, resource.NewRateLimitedReader(ctx, rc, in.ctrl)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (in *input) model(ctx context.Context, location string) (*dem.Model, error) {
	data, err := in.read(ctx, location)
	if err != nil {
		return nil, err
	}
	return dem.CompileReader(bytes.NewReader(data))
}

func (in *input) shots(ctx context.Context, location string, numDets, numObs int) ([]shots.Shot, error) {
	u, err := blobstore.ParseURI(location)
	if err != nil {
		return nil, err
	}
	format, err := shots.FormatForPath(u.Key)
	if err != nil {
		return nil, err
	}
	data, err := in.read(ctx, location)
	if err != nil {
		return nil, err
	}
	out, err := shots.NewReader(bytes.NewReader(data), format, numDets, numObs).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return out, nil
}
