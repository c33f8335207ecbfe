// Package codec selects stream compression for model, shot and prediction
// files.
//
// A codec is picked by its stable name or by a file extension:
//
//	c := codec.ForPath("shots.01.zst") // Zstd
//	r, err := c.NewReader(f)
//
// Unknown extensions map to None, which passes bytes through unchanged.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Codec wraps readers and writers with a compression format.
// Implementations must be safe for concurrent use.
type Codec interface {
	// NewReader returns a decompressing reader over r.
	NewReader(r io.Reader) (io.ReadCloser, error)
	// NewWriter returns a compressing writer over w. Close flushes the
	// trailing frame but does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)
	// Name returns the stable codec name.
	Name() string
	// Extension returns the file suffix including the dot, or "" for None.
	Extension() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch strings.ToLower(name) {
	case "", "none":
		return None{}, true
	case "zstd", "zst":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// ForPath returns the codec matching the extension of path.
func ForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return Zstd{}
	case ".lz4":
		return LZ4{}
	default:
		return None{}
	}
}

// TrimExtension strips a compression suffix from path, so "x.01.zst"
// becomes "x.01".
func TrimExtension(path string) string {
	if ext := ForPath(path).Extension(); ext != "" {
		return path[:len(path)-len(filepath.Ext(path))]
	}
	return path
}

// Decode decompresses data in one call.
func Decode(c Codec, data []byte) ([]byte, error) {
	if d, ok := c.(interface{ DecodeAll([]byte) ([]byte, error) }); ok {
		return d.DecodeAll(data)
	}
	r, err := c.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	return out, nil
}

// None is the identity codec.
type None struct{}

// NewReader returns r unchanged.
func (None) NewReader(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(r), nil }

// NewWriter returns w unchanged.
func (None) NewWriter(w io.Writer) (io.WriteCloser, error) { return nopWriteCloser{w}, nil }

// Name returns "none".
func (None) Name() string { return "none" }

// Extension returns "".
func (None) Extension() string { return "" }

// DecodeAll returns data unchanged.
func (None) DecodeAll(data []byte) ([]byte, error) { return data, nil }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
