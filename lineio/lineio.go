// Package lineio reads and writes newline-delimited records. The reader
// yields each line without its terminator; the writer accumulates lines
// into a fixed-size buffer and hands each full buffer to the sink in a
// single write call.
package lineio

import (
	"bufio"
	"fmt"
	"io"
	"iter"
)

const (
	// DefaultWriterSize is the output buffer size.
	DefaultWriterSize = 1 << 20
	// MaxLineSize bounds a single input line.
	MaxLineSize = 256 << 20
)

// Lines iterates the lines of a reader. The slice yielded by All is reused
// between iterations; consumers that retain a line must copy it.
type Lines struct {
	s *bufio.Scanner
}

func NewLines(r io.Reader) *Lines {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), MaxLineSize)
	return &Lines{s: s}
}

func (l *Lines) All() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for l.s.Scan() {
			if !yield(l.s.Bytes()) {
				return
			}
		}
	}
}

// Err reports the first error encountered while reading, if any.
func (l *Lines) Err() error { return l.s.Err() }

// Writer buffers lines for a sink. Lines are appended verbatim, each
// followed by a single newline; the buffer is written out once it cannot
// take the next line, and a line larger than the whole buffer bypasses it.
type Writer struct {
	w   io.Writer
	buf []byte
}

func NewWriter(w io.Writer, size int) *Writer {
	if size <= 0 {
		size = DefaultWriterSize
	}
	return &Writer{w: w, buf: make([]byte, 0, size)}
}

func (w *Writer) WriteLine(line []byte) error {
	if len(w.buf)+len(line)+1 > cap(w.buf) {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if len(line)+1 > cap(w.buf) {
		if _, err := w.w.Write(line); err != nil {
			return fmt.Errorf("lineio: write: %w", err)
		}
		if _, err := w.w.Write(newline); err != nil {
			return fmt.Errorf("lineio: write: %w", err)
		}
		return nil
	}
	w.buf = append(w.buf, line...)
	w.buf = append(w.buf, '\n')
	return nil
}

// Flush writes any buffered lines to the sink.
func (w *Writer) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	_, err := w.w.Write(w.buf)
	w.buf = w.buf[:0]
	if err != nil {
		return fmt.Errorf("lineio: flush: %w", err)
	}
	return nil
}

var newline = []byte{'\n'}
