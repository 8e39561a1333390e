// Package ingest supplies raw input lines to the sort engine, either by
// streaming from a reader or by memory-mapping a seekable file.
package ingest

import (
	"io"
	"iter"

	"github.com/vcfkit/vsort/lineio"
)

// Line is one input line and, for arena-backed sources, its byte offset
// within the arena. Streamed lines have no stable offset and report -1.
type Line struct {
	Off  int64
	Data []byte
}

// Source yields input lines in order.
type Source interface {
	// Arena returns the shared buffer Line offsets index into, or nil when
	// lines must be copied by the consumer before the next iteration.
	Arena() []byte
	All() iter.Seq[Line]
	// Err reports the first read error once iteration stops.
	Err() error
}

// Stream reads lines from a byte stream. The yielded line buffer is reused,
// so records built from it must be copied into owned storage.
type Stream struct {
	lines *lineio.Lines
}

func NewStream(r io.Reader) *Stream {
	return &Stream{lines: lineio.NewLines(r)}
}

func (s *Stream) Arena() []byte { return nil }

func (s *Stream) All() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		for b := range s.lines.All() {
			if !yield(Line{Off: -1, Data: b}) {
				return
			}
		}
	}
}

func (s *Stream) Err() error { return s.lines.Err() }
