// Package chunk accumulates keyed records up to a memory budget and sorts
// them in place into a run.
package chunk

import (
	"cmp"
	"iter"
	"slices"

	"github.com/vcfkit/vsort/record"
)

// Overhead is the accounting cost charged per record on top of its line
// bytes.
const Overhead = 32

// Sorter buffers keys, and line bytes when it owns its arena, until the
// budget is reached. The budget is advisory: a single record larger than
// the whole budget is still accepted and lands in a chunk of its own.
type Sorter struct {
	ord    record.Ordering
	budget int64
	shared []byte // external arena; nil when the sorter owns line storage
	arena  []byte
	keys   []record.Key
	used   int64
}

// New returns a sorter that copies each added line into its own arena.
func New(ord record.Ordering, budget int64) *Sorter {
	return &Sorter{ord: ord, budget: budget}
}

// NewShared returns a sorter whose records live in arena; added keys must
// already carry their offset and length within it.
func NewShared(ord record.Ordering, budget int64, arena []byte) *Sorter {
	return &Sorter{ord: ord, budget: budget, shared: arena}
}

// Add appends one record and reports whether the budget is now exhausted.
func (s *Sorter) Add(k record.Key, line []byte) bool {
	if s.shared == nil {
		k.Off = int64(len(s.arena))
		k.Len = int32(len(line))
		s.arena = append(s.arena, line...)
	}
	s.keys = append(s.keys, k)
	s.used += int64(len(line)) + Overhead
	return s.used >= s.budget
}

func (s *Sorter) Len() int { return len(s.keys) }

// Bytes reports the estimated record bytes currently buffered.
func (s *Sorter) Bytes() int64 { return s.used }

// Line returns the stored bytes for k.
func (s *Sorter) Line(k record.Key) []byte {
	a := s.shared
	if a == nil {
		a = s.arena
	}
	return a[k.Off : k.Off+int64(k.Len)]
}

// Sort orders the buffered keys in place. Ties under the active ordering
// fall back to arena offset, which keeps equal records in input order
// within the chunk.
func (s *Sorter) Sort() {
	slices.SortFunc(s.keys, func(a, b record.Key) int {
		if c := s.ord.Compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.Off, b.Off)
	})
}

// Records iterates the buffered records in their current key order.
func (s *Sorter) Records() iter.Seq2[record.Key, []byte] {
	return func(yield func(record.Key, []byte) bool) {
		for _, k := range s.keys {
			if !yield(k, s.Line(k)) {
				return
			}
		}
	}
}

// Reset discards all buffered records, keeping allocated capacity.
func (s *Sorter) Reset() {
	s.keys = s.keys[:0]
	s.arena = s.arena[:0]
	s.used = 0
}
