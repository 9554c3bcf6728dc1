package logutils

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferredWriter_Write(t *testing.T) {
	t.Run("buffers writes", func(t *testing.T) {
		d := NewDeferredWriter(0)

		n, err := d.Write([]byte("hello "))
		require.NoError(t, err)
		assert.Equal(t, 6, n)

		_, err = d.Write([]byte("world"))
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, d.Flush(&out))
		assert.Equal(t, "hello world", out.String())
	})

	t.Run("concurrent writes are safe", func(t *testing.T) {
		d := NewDeferredWriter(0)
		var wg sync.WaitGroup

		for range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = d.Write([]byte("x"))
			}()
		}
		wg.Wait()

		var out bytes.Buffer
		require.NoError(t, d.Flush(&out))
		assert.Len(t, out.String(), 100)
	})

	t.Run("drops writes past the limit", func(t *testing.T) {
		d := NewDeferredWriter(8)

		_, _ = d.Write([]byte("12345\n"))
		n, err := d.Write([]byte("67890\n"))
		require.NoError(t, err)
		assert.Equal(t, 6, n)

		var out bytes.Buffer
		require.NoError(t, d.Flush(&out))
		assert.Equal(t, "12345\n(1 more log lines dropped)\n", out.String())
	})
}

func TestDeferredWriter_Flush_clears(t *testing.T) {
	d := NewDeferredWriter(0)
	_, _ = d.Write([]byte("once"))

	var first, second bytes.Buffer
	require.NoError(t, d.Flush(&first))
	require.NoError(t, d.Flush(&second))

	assert.Equal(t, "once", first.String())
	assert.Empty(t, second.String())
}
