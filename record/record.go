// Package record defines the keyed view of a tab-delimited genomic record
// and the ordering policies used to sort it.
//
// A record is one input line without its terminator. The sort never carries
// full lines through its data structures: each line is reduced to a compact
// Key holding an interned sequence id, the numeric position, and the byte
// range locating the line inside the arena that produced it.
package record

import (
	"bytes"
	"errors"
	"math"
	"strconv"
)

var (
	ErrTooFewFields    = errors.New("record: fewer than two tab-separated fields")
	ErrInvalidPosition = errors.New("record: position is not a non-negative integer")
)

// Key is the compact sort descriptor for one record. It carries no line
// bytes of its own: Off and Len locate the record inside its arena.
type Key struct {
	Seq int32  // interned sequence identifier, resolved through a Table
	Pos uint64 // position parsed from the second field
	Off int64  // byte offset of the record within its arena
	Len int32  // record length in bytes, excluding the line terminator
}

// Table interns sequence identifiers for one engine invocation. Ids are
// assigned in first-seen order; orderings resolve names and natural
// decompositions through the table and never compare the id value itself,
// so chunk-phase and merge-phase comparisons agree by construction.
type Table struct {
	ids     map[string]int32
	entries []entry
}

type entry struct {
	name   string
	prefix string
	hasNum bool
	num    uint64
	suffix string
}

func NewTable() *Table {
	return &Table{ids: make(map[string]int32)}
}

// Intern returns the id for name, assigning one on first sight.
func (t *Table) Intern(name []byte) int32 {
	if id, ok := t.ids[string(name)]; ok {
		return id
	}
	e := decompose(string(name))
	id := int32(len(t.entries))
	t.entries = append(t.entries, e)
	t.ids[e.name] = id
	return id
}

// Name returns the sequence identifier text for id.
func (t *Table) Name(id int32) string { return t.entries[id].name }

// Len returns the number of distinct sequence identifiers seen so far.
func (t *Table) Len() int { return len(t.entries) }

// Extract parses the leading sequence and position fields of line into a
// Key, interning the sequence name. Off and Len are left for the caller to
// fill in; the line bytes are not retained.
func (t *Table) Extract(line []byte) (Key, error) {
	tab := bytes.IndexByte(line, '\t')
	if tab < 0 {
		return Key{}, ErrTooFewFields
	}
	rest := line[tab+1:]
	if end := bytes.IndexByte(rest, '\t'); end >= 0 {
		rest = rest[:end]
	}
	pos, err := parsePosition(rest)
	if err != nil {
		return Key{}, err
	}
	return Key{Seq: t.Intern(line[:tab]), Pos: pos}, nil
}

func parsePosition(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, ErrInvalidPosition
	}
	var v uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, ErrInvalidPosition
		}
		d := uint64(c - '0')
		if v > (math.MaxUint64-d)/10 {
			return 0, ErrInvalidPosition
		}
		v = v*10 + d
	}
	return v, nil
}

// decompose splits a sequence name into a case-preserving "chr" prefix, an
// optional numeric part, and a suffix. A digit run too large for a uint64
// stays in the suffix so the ordering remains total.
func decompose(name string) entry {
	e := entry{name: name}
	rest := name
	if len(rest) >= 3 &&
		(rest[0] == 'c' || rest[0] == 'C') &&
		(rest[1] == 'h' || rest[1] == 'H') &&
		(rest[2] == 'r' || rest[2] == 'R') {
		e.prefix = rest[:3]
		rest = rest[3:]
	}
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i > 0 {
		if n, err := strconv.ParseUint(rest[:i], 10, 64); err == nil {
			e.hasNum = true
			e.num = n
			rest = rest[i:]
		}
	}
	e.suffix = rest
	return e
}
