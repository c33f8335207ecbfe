package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"none", "zstd", "lz4"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("gzip")
	assert.False(t, ok)
}

func TestForPath(t *testing.T) {
	assert.Equal(t, "zstd", ForPath("shots.01.zst").Name())
	assert.Equal(t, "lz4", ForPath("/tmp/model.dem.LZ4").Name())
	assert.Equal(t, "none", ForPath("model.dem").Name())
	assert.Equal(t, "shots.01", TrimExtension("shots.01.zst"))
	assert.Equal(t, "model.dem", TrimExtension("model.dem"))
}

func TestStreams(t *testing.T) {
	payload := []byte(strings.Repeat("error(0.001) D0 D1 L0\n", 500))

	for _, c := range []Codec{None{}, Zstd{}, LZ4{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := c.NewWriter(&buf)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			if c.Extension() != "" {
				assert.Less(t, buf.Len(), len(payload))
			}
			compressed := buf.Bytes()

			r, err := c.NewReader(bytes.NewReader(compressed))
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, payload, got)

			got, err = Decode(c, compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode(Zstd{}, []byte("not zstd"))
	assert.Error(t, err)
	_, err = Decode(LZ4{}, []byte("not lz4 either"))
	assert.Error(t, err)
}
