package log

import (
	"io"
	"os"
	"sync"
)

// WriterOutput writes newline-terminated entries to an io.Writer,
// serialized so interleaved goroutines produce whole lines.
type WriterOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterOutput wraps w as an Output.
func NewWriterOutput(w io.Writer) *WriterOutput {
	return &WriterOutput{w: w}
}

// Write implements Output.
func (o *WriterOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.w.Write(formatted); err != nil {
		return err
	}
	_, err := o.w.Write([]byte{'\n'})
	return err
}

// Close implements Output. The underlying writer is not closed; the
// caller owns it.
func (o *WriterOutput) Close() error { return nil }

// NewConsoleOutput returns an Output writing to stderr.
func NewConsoleOutput() Output {
	return NewWriterOutput(os.Stderr)
}
