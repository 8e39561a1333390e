// Package vsort sorts large streams of tab-delimited genomic records by
// (sequence identifier, position) within a bounded memory footprint. Input
// is accumulated into memory-budgeted chunks; chunks beyond the first are
// sorted and spilled to temporary run files, which a k-way merge folds back
// into one ordered stream. Header lines bypass the sort and are written
// first, in original order.
package vsort

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"go.uber.org/zap"

	"github.com/vcfkit/vsort/chunk"
	"github.com/vcfkit/vsort/ingest"
	"github.com/vcfkit/vsort/lineio"
	"github.com/vcfkit/vsort/merge"
	"github.com/vcfkit/vsort/priority"
	"github.com/vcfkit/vsort/record"
	"github.com/vcfkit/vsort/spill"
)

var (
	ErrInvalidBudget      = errors.New("vsort: memory budget must be positive")
	ErrInvalidMaxOpenRuns = errors.New("vsort: max open runs must be at least 2")
)

// Stats summarizes one sort invocation.
type Stats struct {
	HeaderLines  int64
	Records      int64
	Dropped      int64
	RunsSpilled  int64
	BytesSpilled int64
	MergePasses  int64
}

// Sorter is a reusable external sort engine. A Sorter is not safe for
// concurrent use; each Sort call runs the whole pipeline sequentially.
type Sorter struct {
	opts  options
	stats Stats
}

// New creates a sorter, validating the configuration before any input is
// consumed.
func New(opts ...Option) (*Sorter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.memoryBudget <= 0 {
		return nil, ErrInvalidBudget
	}
	if o.maxOpenRuns < 2 {
		return nil, ErrInvalidMaxOpenRuns
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Sorter{opts: o}, nil
}

// Stats reports the counters of the most recent sort.
func (s *Sorter) Stats() Stats { return s.stats }

// Sort reads records from r and writes the sorted stream to w. Each record
// is copied into owned storage since the read buffer is reused.
func (s *Sorter) Sort(w io.Writer, r io.Reader) error {
	return s.run(w, ingest.NewStream(r))
}

// SortFile memory-maps path and sorts it into w. Records are non-owning
// views into the mapping, so only compact keys travel through the sort.
func (s *Sorter) SortFile(w io.Writer, path string) error {
	m, err := ingest.OpenMapping(path)
	if err != nil {
		return err
	}
	defer m.Close()
	return s.run(w, m)
}

func (s *Sorter) run(out io.Writer, src ingest.Source) (err error) {
	s.stats = Stats{}
	logger := s.opts.logger
	table := record.NewTable()

	var ord record.Ordering = record.Lexicographic(table)
	if s.opts.natural {
		ord = record.NaturalChromosome(table)
	}

	// Temp-file cleanup happens on every exit path: the manager removes
	// registered runs, the scratch directory removal catches anything
	// left behind by an aborted writer.
	var (
		scratch *spill.LocalStorage
		mgr     *spill.Manager
	)
	defer func() {
		if mgr != nil {
			if cerr := mgr.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		if scratch != nil {
			if derr := scratch.Destroy(); derr != nil && err == nil {
				err = derr
			}
		}
	}()

	spillChunk := func(c *chunk.Sorter) error {
		c.Sort()
		if mgr == nil {
			var serr error
			if scratch, serr = spill.NewScratch(s.opts.tempDir); serr != nil {
				return serr
			}
			mgr = spill.NewManager(scratch, logger)
		}
		rw, rerr := mgr.NewRun(ord)
		if rerr != nil {
			return rerr
		}
		for k, line := range c.Records() {
			if aerr := rw.Append(k, line); aerr != nil {
				rw.Abort()
				return aerr
			}
		}
		run, cerr := rw.Close()
		if cerr != nil {
			return cerr
		}
		s.stats.RunsSpilled++
		s.stats.BytesSpilled += run.Bytes
		return nil
	}

	var c *chunk.Sorter
	if arena := src.Arena(); arena != nil {
		c = chunk.NewShared(ord, s.opts.memoryBudget, arena)
	} else {
		c = chunk.New(ord, s.opts.memoryBudget)
	}

	var (
		header     [][]byte
		sawColumns bool
		columnsTag = []byte{s.opts.comment, 'C', 'H', 'R', 'O', 'M'}
	)

	for line := range src.All() {
		if len(line.Data) == 0 || line.Data[0] == s.opts.comment {
			header = append(header, slices.Clone(line.Data))
			s.stats.HeaderLines++
			if bytes.HasPrefix(line.Data, columnsTag) {
				sawColumns = true
			}
			continue
		}
		key, kerr := table.Extract(line.Data)
		if kerr != nil {
			s.stats.Dropped++
			logger.Warn("skipping unsortable line",
				zap.Error(kerr),
				zap.Int64("line", s.stats.HeaderLines+s.stats.Records+s.stats.Dropped))
			continue
		}
		key.Off = line.Off
		key.Len = int32(len(line.Data))
		s.stats.Records++
		if c.Add(key, line.Data) {
			if serr := spillChunk(c); serr != nil {
				return serr
			}
			c.Reset()
		}
	}
	if rerr := src.Err(); rerr != nil {
		return fmt.Errorf("vsort: read input: %w", rerr)
	}
	if !sawColumns {
		logger.Warn("no column header line found in input")
	}

	w := lineio.NewWriter(out, s.opts.outputBuffer)
	for _, h := range header {
		if werr := w.WriteLine(h); werr != nil {
			return werr
		}
	}

	c.Sort()

	if mgr == nil {
		// everything fit in one chunk, no merge needed
		for _, line := range c.Records() {
			if werr := w.WriteLine(line); werr != nil {
				return werr
			}
		}
		s.logStats(logger)
		return w.Flush()
	}

	// Fold spilled runs until they fit the open-handle bound. The
	// in-memory tail never needs a handle, so it is not counted.
	for {
		runs := mgr.Runs()
		if len(runs) <= s.opts.maxOpenRuns {
			break
		}
		group := min(len(runs)-s.opts.maxOpenRuns+1, s.opts.maxOpenRuns)
		if ferr := s.fold(mgr, table, ord, runs, group); ferr != nil {
			return ferr
		}
		s.stats.MergePasses++
	}

	runs := mgr.Runs()
	sources := make([]merge.Source, 0, len(runs)+1)
	cursors := make([]*merge.Cursor, 0, len(runs))
	defer func() {
		for _, cur := range cursors {
			cur.Close()
		}
	}()
	for _, r := range runs {
		rc, oerr := mgr.Open(r)
		if oerr != nil {
			return oerr
		}
		cur := merge.NewCursor(r.Ordinal, rc, table)
		cursors = append(cursors, cur)
		sources = append(sources, cur)
	}
	if c.Len() > 0 {
		// the tail run is created last and so loses ties to spilled runs
		sources = append(sources, merge.Records(mgr.NextOrdinal(), c.Records()))
	}

	tree := merge.NewTree(sources, merge.Less(ord))
	for h := range tree.All() {
		if werr := w.WriteLine(h.Line); werr != nil {
			return werr
		}
	}
	for _, cur := range cursors {
		if cerr := cur.Err(); cerr != nil {
			return cerr
		}
	}
	s.stats.MergePasses++
	s.logStats(logger)
	return w.Flush()
}

// fold merges the group smallest spilled runs into one intermediate run
// and deletes the sources.
func (s *Sorter) fold(mgr *spill.Manager, table *record.Table, ord record.Ordering, runs []*spill.Run, group int) (err error) {
	pq := priority.NewQueue[int, *spill.Run](func(a, b *spill.Run) bool {
		if a.Bytes != b.Bytes {
			return a.Bytes < b.Bytes
		}
		return a.Ordinal < b.Ordinal
	})
	for _, r := range runs {
		pq.Set(r.Ordinal, r)
	}
	picked := make([]*spill.Run, 0, group)
	for len(picked) < group {
		_, r, ok := pq.Pop()
		if !ok {
			break
		}
		picked = append(picked, r)
	}

	cursors := make([]*merge.Cursor, 0, len(picked))
	sources := make([]merge.Source, 0, len(picked))
	defer func() {
		for _, cur := range cursors {
			cur.Close()
		}
	}()
	for _, r := range picked {
		rc, oerr := mgr.Open(r)
		if oerr != nil {
			return oerr
		}
		cur := merge.NewCursor(r.Ordinal, rc, table)
		cursors = append(cursors, cur)
		sources = append(sources, cur)
	}

	rw, nerr := mgr.NewRun(ord)
	if nerr != nil {
		return nerr
	}
	tree := merge.NewTree(sources, merge.Less(ord))
	for h := range tree.All() {
		if aerr := rw.Append(h.Key, h.Line); aerr != nil {
			rw.Abort()
			return aerr
		}
	}
	for _, cur := range cursors {
		if cerr := cur.Err(); cerr != nil {
			rw.Abort()
			return cerr
		}
	}
	if _, cerr := rw.Close(); cerr != nil {
		return cerr
	}

	for _, cur := range cursors {
		cur.Close()
	}
	cursors = cursors[:0]
	for _, r := range picked {
		if rerr := mgr.Remove(r); rerr != nil {
			return rerr
		}
	}
	return nil
}

func (s *Sorter) logStats(logger *zap.Logger) {
	logger.Info("sort complete",
		zap.Int64("records", s.stats.Records),
		zap.Int64("dropped", s.stats.Dropped),
		zap.Int64("headerLines", s.stats.HeaderLines),
		zap.Int64("runsSpilled", s.stats.RunsSpilled),
		zap.Int64("bytesSpilled", s.stats.BytesSpilled),
		zap.Int64("mergePasses", s.stats.MergePasses))
}
