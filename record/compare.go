package record

import "cmp"

// Ordering decides the relative order of two keys. Implementations must be
// total orders so that runs merge deterministically.
type Ordering interface {
	Compare(a, b Key) int
}

// Lexicographic orders by raw sequence-name bytes, then by position. Under
// it "chr10" sorts before "chr2".
func Lexicographic(t *Table) Ordering { return lexOrder{t} }

type lexOrder struct{ t *Table }

func (o lexOrder) Compare(a, b Key) int {
	if a.Seq != b.Seq {
		if c := cmp.Compare(o.t.entries[a.Seq].name, o.t.entries[b.Seq].name); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Pos, b.Pos)
}

// NaturalChromosome orders chr2 before chr10. Each identifier decomposes
// into a case-preserving "chr" prefix, an optional numeric part, and a
// suffix; precedence is prefix, then presence and value of the numeric part
// (numbered identifiers sort before unnumbered ones among equal prefixes),
// then suffix, then position.
func NaturalChromosome(t *Table) Ordering { return natOrder{t} }

type natOrder struct{ t *Table }

func (o natOrder) Compare(a, b Key) int {
	if a.Seq != b.Seq {
		ea, eb := &o.t.entries[a.Seq], &o.t.entries[b.Seq]
		if c := cmp.Compare(ea.prefix, eb.prefix); c != 0 {
			return c
		}
		switch {
		case ea.hasNum && !eb.hasNum:
			return -1
		case !ea.hasNum && eb.hasNum:
			return 1
		case ea.hasNum && eb.hasNum:
			if c := cmp.Compare(ea.num, eb.num); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(ea.suffix, eb.suffix); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Pos, b.Pos)
}
