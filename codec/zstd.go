package codec

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// Zstd compresses with Zstandard. Level 0 uses zstd.SpeedDefault.
type Zstd struct {
	Level zstd.EncoderLevel
}

// NewReader returns a streaming zstd decoder over r.
func (Zstd) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

// NewWriter returns a streaming zstd encoder over w.
func (z Zstd) NewWriter(w io.Writer) (io.WriteCloser, error) {
	level := z.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	return zstd.NewWriter(w, zstd.WithEncoderLevel(level))
}

// DecodeAll decompresses a complete zstd stream with a pooled decoder.
func (Zstd) DecodeAll(data []byte) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, err
	}
	defer zstdDecoderPool.Put(dec)
	return dec.DecodeAll(data, nil)
}

// Name returns "zstd".
func (Zstd) Name() string { return "zstd" }

// Extension returns ".zst".
func (Zstd) Extension() string { return ".zst" }
