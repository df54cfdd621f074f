package logger

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// AsyncWriter is a non-blocking writer that drops messages when its buffer is full
type AsyncWriter struct {
	w       io.Writer
	ch      chan []byte
	done    chan struct{}
	dropped uint64
}

// NewAsyncWriter creates a new AsyncWriter
func NewAsyncWriter(w io.Writer, bufSize int) *AsyncWriter {
	if w == nil {
		w = os.Stdout
	}
	aw := &AsyncWriter{
		w:    w,
		ch:   make(chan []byte, bufSize),
		done: make(chan struct{}),
	}
	go aw.run()
	return aw
}

// Write implements io.Writer. The payload is copied because zerolog reuses buffers.
func (a *AsyncWriter) Write(p []byte) (int, error) {
	pCopy := make([]byte, len(p))
	copy(pCopy, p)

	select {
	case a.ch <- pCopy:
	default:
		// Buffer full, drop the message. Report success so zerolog
		// does not log its own internal error.
		atomic.AddUint64(&a.dropped, 1)
	}
	return len(p), nil
}

func (a *AsyncWriter) run() {
	defer close(a.done)
	for p := range a.ch {
		a.w.Write(p)
	}
}

// Close drains the buffer and stops the background worker
func (a *AsyncWriter) Close() error {
	close(a.ch)
	<-a.done

	if dropped := atomic.LoadUint64(&a.dropped); dropped > 0 {
		fmt.Fprintf(a.w, "AsyncWriter: dropped %d messages due to buffer overflow\n", dropped)
	}
	return nil
}
