package tesseract

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tesseract/dem"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	l.LogCompile(ctx, 10, 20, 1, 2, nil)
	assert.Contains(t, buf.String(), `"mechanisms":20`)

	buf.Reset()
	l.WithShot(7).LogDecode(ctx, 3, 0, -1, errors.New("no luck"))
	assert.Contains(t, buf.String(), `"shot":7`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	l.LogBatch(ctx, 5, 10, 0, time.Second)
	assert.Contains(t, buf.String(), `"done":5`)
	assert.NotContains(t, buf.String(), "failed")

	buf.Reset()
	l.LogBatch(ctx, 10, 10, 2, time.Second)
	assert.Contains(t, buf.String(), `"failed":2`)
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	l.LogRunFailure(context.Background(), 0, 1, ErrNoSolutionFound)
	assert.NotNil(t, l.Logger)
}

func TestNew_WarnsCoordinateOrderWithoutCoords(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m, err := dem.Compile("error(0.1) D0 D1\nerror(0.1) D1")
	require.NoError(t, err)
	_, err = New(m, WithLogger(l), WithDetOrder(DetOrderCoordinate))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no detector coordinates")

	buf.Reset()
	m, err = dem.Compile("error(0.1) D0 D1\nerror(0.1) D1\ndetector(0, 1) D0\ndetector(1, 1) D1")
	require.NoError(t, err)
	_, err = New(m, WithLogger(l), WithDetOrder(DetOrderCoordinate))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "no detector coordinates")
}
