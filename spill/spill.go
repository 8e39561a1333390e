// Package spill serializes sorted chunks to uniquely named temporary run
// files and owns their lifecycle through the merge phase. A run file holds
// one record's exact original line per line, no key metadata; keys are
// recomputed on read-back.
package spill

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/btree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vcfkit/vsort/lineio"
	"github.com/vcfkit/vsort/record"
)

var (
	ErrManagerClosed = errors.New("spill: manager already closed")
	ErrWriterClosed  = errors.New("spill: run writer already closed")
	ErrOutOfOrder    = errors.New("spill: records must be appended in run order")
)

// Run is one spilled, internally sorted sequence of records.
type Run struct {
	Ordinal int // creation order; the merge tie-break prefers lower ordinals
	Name    string
	Records int64
	Bytes   int64
}

// Manager creates, tracks, and deletes run files. Runs are registered in a
// btree keyed by ordinal so the merge phase always sees them in creation
// order.
type Manager struct {
	storage Storage
	logger  *zap.Logger
	runs    *btree.BTreeG[*Run]
	next    int
	closed  bool
}

func NewManager(storage Storage, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		storage: storage,
		logger:  logger,
		runs: btree.NewG(2, func(a, b *Run) bool {
			return a.Ordinal < b.Ordinal
		}),
	}
}

// NewRun opens a writer for the next run file. The run is registered with
// the manager only once the writer closes cleanly.
func (m *Manager) NewRun(ord record.Ordering) (*Writer, error) {
	if m.closed {
		return nil, ErrManagerClosed
	}
	run := &Run{
		Ordinal: m.next,
		Name:    fmt.Sprintf("run-%06d-%s.tmp", m.next, uuid.NewString()),
	}
	wc, err := m.storage.Create(run.Name)
	if err != nil {
		return nil, err
	}
	m.next++
	return &Writer{
		m:   m,
		run: run,
		wc:  wc,
		lw:  lineio.NewWriter(wc, 0),
		ord: ord,
	}, nil
}

// NextOrdinal returns the ordinal the next run would receive.
func (m *Manager) NextOrdinal() int { return m.next }

// Runs returns all live runs in creation order.
func (m *Manager) Runs() []*Run {
	out := make([]*Run, 0, m.runs.Len())
	m.runs.Ascend(func(r *Run) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Open returns a sequential reader over a spilled run.
func (m *Manager) Open(r *Run) (io.ReadCloser, error) {
	if m.closed {
		return nil, ErrManagerClosed
	}
	return m.storage.Open(r.Name)
}

// Remove deletes a fully consumed run file and drops it from the registry.
func (m *Manager) Remove(r *Run) error {
	if _, ok := m.runs.Delete(r); !ok {
		return nil
	}
	return m.storage.Remove(r.Name)
}

// Close deletes every remaining run file. It is safe to call on every exit
// path; only the first call does work.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	var first error
	m.runs.Ascend(func(r *Run) bool {
		if err := m.storage.Remove(r.Name); err != nil && first == nil {
			first = err
		}
		return true
	})
	m.runs.Clear(false)
	return first
}

// Writer streams one sorted chunk into a run file. Appends must arrive in
// key order; an out-of-order append means the comparator disagreed between
// passes and fails immediately rather than persisting a disordered run.
type Writer struct {
	m      *Manager
	run    *Run
	wc     io.WriteCloser
	lw     *lineio.Writer
	ord    record.Ordering
	last   record.Key
	any    bool
	closed bool
}

func (w *Writer) Append(k record.Key, line []byte) error {
	if w.closed {
		return ErrWriterClosed
	}
	if w.any && w.ord.Compare(k, w.last) < 0 {
		return ErrOutOfOrder
	}
	if err := w.lw.WriteLine(line); err != nil {
		return err
	}
	w.last, w.any = k, true
	w.run.Records++
	w.run.Bytes += int64(len(line)) + 1
	return nil
}

// Close flushes the run file and registers the run with the manager.
func (w *Writer) Close() (*Run, error) {
	if w.closed {
		return nil, ErrWriterClosed
	}
	w.closed = true
	if err := w.lw.Flush(); err != nil {
		w.wc.Close()
		return nil, err
	}
	if err := w.wc.Close(); err != nil {
		return nil, fmt.Errorf("spill: close run file %s: %w", w.run.Name, err)
	}
	w.m.runs.ReplaceOrInsert(w.run)
	w.m.logger.Debug("spilled run",
		zap.Int("ordinal", w.run.Ordinal),
		zap.Int64("records", w.run.Records),
		zap.Int64("bytes", w.run.Bytes))
	return w.run, nil
}

// Abort closes and deletes a partially written run.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	w.wc.Close()
	_ = w.m.storage.Remove(w.run.Name)
}
