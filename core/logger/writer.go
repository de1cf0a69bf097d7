package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter fans log lines out to multiple sinks from a single goroutine,
// keeping the logging call sites free of file I/O latency.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	stopped chan struct{}
	stop    sync.Once

	mu   sync.Mutex
	outs []*bufio.Writer
	err  error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	outs := make([]*bufio.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			outs = append(outs, bufio.NewWriterSize(w, bufSize))
		}
	}
	aw := &asyncWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		stopped: make(chan struct{}),
		outs:    outs,
	}
	go aw.run()
	return aw
}

func (w *asyncWriter) run() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.flushOuts()
				close(w.stopped)
				return
			}
			if len(line) == 0 {
				continue
			}
			if err := w.writeOuts(line); err != nil {
				w.recordErr(err)
			}
		case ack := <-w.flushes:
			ack <- w.flushOuts()
		}
	}
}

// Write queues one line. Blocks when the queue is full so lines are never
// dropped.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := make([]byte, len(p))
	copy(line, p)
	w.lines <- line
	return nil
}

// Flush blocks until everything queued so far has reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.firstErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.flushes <- ack
	return <-ack
}

// Close drains the queue, flushes, and returns the first write error seen.
func (w *asyncWriter) Close() error {
	w.stop.Do(func() { close(w.lines) })
	<-w.stopped
	return w.firstErr()
}

func (w *asyncWriter) writeOuts(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, out := range w.outs {
		if _, err := out.Write(p); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushOuts() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, out := range w.outs {
		if err := out.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) recordErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
