package codec

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses with the LZ4 frame format.
type LZ4 struct{}

// NewReader returns a streaming LZ4 frame reader over r.
func (LZ4) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

// NewWriter returns a streaming LZ4 frame writer over w.
func (LZ4) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.ConcurrencyOption(1)); err != nil {
		return nil, err
	}
	return zw, nil
}

// Name returns "lz4".
func (LZ4) Name() string { return "lz4" }

// Extension returns ".lz4".
func (LZ4) Extension() string { return ".lz4" }
