package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	// Acquire 50
	require.NoError(t, c.AcquireMemory(t.Context(), 50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	// Acquire 40
	require.NoError(t, c.AcquireMemory(t.Context(), 40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Blocking acquire waits until the deadline
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 20), context.DeadlineExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Release 50
	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	// Now Acquire 20 should succeed
	require.NoError(t, c.AcquireMemory(t.Context(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_MemoryOversized(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})
	err := c.AcquireMemory(t.Context(), 101)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Zero(t, c.MemoryUsage())
}

func TestController_MemoryUnblocks(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	require.NoError(t, c.AcquireMemory(t.Context(), 10))

	done := make(chan error, 1)
	go func() { done <- c.AcquireMemory(context.Background(), 5) }()

	c.ReleaseMemory(10)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not unblock")
	}
	assert.Equal(t, int64(5), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	require.NoError(t, c.AcquireMemory(t.Context(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	// All methods should be nil-safe
	assert.NoError(t, c.AcquireMemory(t.Context(), 100))
	c.ReleaseMemory(100)
	assert.Zero(t, c.MemoryUsage())
	assert.Zero(t, c.MemoryLimit())
	assert.NoError(t, c.AcquireIO(t.Context(), 100))
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10000})

	data := bytes.NewReader([]byte("hello world"))
	r := NewRateLimitedReader(t.Context(), data, c)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))
}

func TestRateLimitedReader_ContextCanceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1}) // Very slow
	ctx, cancel := context.WithCancel(t.Context())
	cancel() // Cancel immediately

	r := NewRateLimitedReader(ctx, bytes.NewReader([]byte("hello world")), c)

	buf := make([]byte, 1000)
	_, err := r.Read(buf)
	assert.ErrorIs(t, err, context.Canceled)
}
