package merge

import (
	"fmt"
	"io"
	"iter"

	"github.com/vcfkit/vsort/lineio"
	"github.com/vcfkit/vsort/record"
)

// Cursor reads a spilled run back sequentially, re-extracting each line's
// key through the shared intern table. A cursor owns at most one buffered
// record at a time: the yielded line aliases the read buffer and is only
// valid until the cursor advances.
type Cursor struct {
	ordinal int
	rc      io.ReadCloser
	lines   *lineio.Lines
	table   *record.Table
	err     error
}

func NewCursor(ordinal int, rc io.ReadCloser, table *record.Table) *Cursor {
	return &Cursor{
		ordinal: ordinal,
		rc:      rc,
		lines:   lineio.NewLines(rc),
		table:   table,
	}
}

func (c *Cursor) All() iter.Seq[Head] {
	return func(yield func(Head) bool) {
		for line := range c.lines.All() {
			k, err := c.table.Extract(line)
			if err != nil {
				// run files only ever hold lines that already passed
				// extraction once
				c.err = fmt.Errorf("merge: corrupt run %d: %w", c.ordinal, err)
				return
			}
			if !yield(Head{Key: k, Line: line, Ordinal: c.ordinal}) {
				return
			}
		}
		c.err = c.lines.Err()
	}
}

// Err reports the first error the cursor hit while reading its run.
func (c *Cursor) Err() error { return c.err }

func (c *Cursor) Close() error { return c.rc.Close() }

// Records adapts an in-memory sorted sequence, such as the retained tail
// chunk, as a merge Source.
func Records(ordinal int, recs iter.Seq2[record.Key, []byte]) Source {
	return recsSource{ordinal: ordinal, recs: recs}
}

type recsSource struct {
	ordinal int
	recs    iter.Seq2[record.Key, []byte]
}

func (s recsSource) All() iter.Seq[Head] {
	return func(yield func(Head) bool) {
		for k, line := range s.recs {
			if !yield(Head{Key: k, Line: line, Ordinal: s.ordinal}) {
				return
			}
		}
	}
}
