package shots

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/tesseract/blobstore"
	"github.com/hupe1980/tesseract/codec"
)

// ReadFile loads every shot of the named blob. The format comes from the
// name's extension, and any compression suffix selects the codec.
func ReadFile(ctx context.Context, store blobstore.Store, name string, numDets, numObs int) ([]Shot, error) {
	format, err := FormatForPath(name)
	if err != nil {
		return nil, err
	}
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}
	rc, err := codec.ForPath(name).NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("shots: %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := NewReader(rc, format, numDets, numObs).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("shots: %s: %w", name, err)
	}
	return out, nil
}

// FileWriter is a Writer bound to a local file.
type FileWriter struct {
	*Writer
	f  *os.File
	zw io.WriteCloser
}

// Create opens path for writing in format, compressed according to its
// extension.
func Create(path string, format Format, numDets, numObs int) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	zw, err := codec.ForPath(path).NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FileWriter{Writer: NewWriter(zw, format, numDets, numObs), f: f, zw: zw}, nil
}

// Close flushes, finishes the compressed stream and closes the file.
func (fw *FileWriter) Close() error {
	err := fw.Flush()
	err = errors.Join(err, fw.zw.Close())
	return errors.Join(err, fw.f.Close())
}
