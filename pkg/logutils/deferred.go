package logutils

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// DefaultDeferredLimit caps the bytes a DeferredWriter holds.
const DefaultDeferredLimit = 64 << 10

// DeferredWriter buffers log output in memory until Flush is called, so
// warnings raised while the TUI owns the terminal are shown after it exits.
// Writes beyond the limit are counted and dropped. Safe for concurrent use.
type DeferredWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	limit   int
	dropped int
}

// NewDeferredWriter creates a writer holding at most limit bytes; a
// non-positive limit uses DefaultDeferredLimit.
func NewDeferredWriter(limit int) *DeferredWriter {
	if limit <= 0 {
		limit = DefaultDeferredLimit
	}
	return &DeferredWriter{limit: limit}
}

// Write stores p, or drops it whole when it does not fit. It never fails so
// the logger keeps going.
func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf.Len()+len(p) > d.limit {
		d.dropped++
		return len(p), nil
	}
	return d.buf.Write(p)
}

// Flush writes all buffered data to w and clears the buffer.
func (d *DeferredWriter) Flush(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buf.Len() > 0 {
		if _, err := d.buf.WriteTo(w); err != nil {
			return err
		}
	}
	if d.dropped > 0 {
		_, err := fmt.Fprintf(w, "(%d more log lines dropped)\n", d.dropped)
		d.dropped = 0
		return err
	}
	return nil
}
