// Package merge produces one globally ordered stream from k sorted runs
// using a loser tree over per-run cursors, O(N log k) comparisons for N
// records in total. Equal keys resolve in favor of the lower run ordinal;
// that makes the output deterministic but is not input-order stability
// across runs.
package merge

import (
	"iter"
	"math"

	"github.com/vcfkit/vsort/record"
)

// Head is the current front record of one run.
type Head struct {
	Key     record.Key
	Line    []byte
	Ordinal int
}

// Source yields the records of one run in key order.
type Source interface {
	All() iter.Seq[Head]
}

// sentinelOrdinal marks the infinite head used to pad exhausted leaves.
const sentinelOrdinal = math.MaxInt

// Less orders heads by key under ord, breaking ties by run ordinal.
func Less(ord record.Ordering) func(a, b Head) bool {
	return func(a, b Head) bool {
		if a.Ordinal == sentinelOrdinal {
			return false
		}
		if b.Ordinal == sentinelOrdinal {
			return true
		}
		if c := ord.Compare(a.Key, b.Key); c != 0 {
			return c < 0
		}
		return a.Ordinal < b.Ordinal
	}
}

// Tree is a loser tree laid out in an array: with M sources the leaves sit
// at positions M..2M-1 and each internal node holds the loser of the game
// below it, so advancing one leaf only replays a single root path. Node 0
// holds the overall winner.
type Tree struct {
	nodes   []node
	sources []Source
	less    func(a, b Head) bool
}

type node struct {
	index int  // loser for internal nodes; winner at node 0
	value Head // value copied from the loser, or the winner at node 0
	next  func() (Head, bool)
}

func NewTree(sources []Source, less func(a, b Head) bool) *Tree {
	return &Tree{
		nodes:   make([]node, len(sources)*2),
		sources: sources,
		less:    less,
	}
}

// All runs the tournament and yields every record in merged order.
func (t *Tree) All() iter.Seq[Head] {
	return func(yield func(Head) bool) {
		if len(t.nodes) == 0 {
			return
		}
		for i, s := range t.sources {
			next, stop := iter.Pull(s.All())
			t.nodes[i+len(t.sources)].next = next
			defer stop()
			t.moveNext(i + len(t.sources))
		}
		t.initialize()
		for t.nodes[t.nodes[0].index].index != -1 &&
			yield(t.nodes[0].value) {
			t.moveNext(t.nodes[0].index)
			t.replayGames(t.nodes[0].index)
		}
	}
}

func (t *Tree) moveNext(index int) bool {
	n := &t.nodes[index]
	if v, ok := n.next(); ok {
		n.value = v
		return true
	}
	n.value = Head{Ordinal: sentinelOrdinal}
	n.index = -1
	return false
}

func (t *Tree) initialize() {
	winner := t.playGame(1)
	t.nodes[0].index = winner
	t.nodes[0].value = t.nodes[winner].value
}

// playGame finds the winner below pos, storing losers at internal nodes.
func (t *Tree) playGame(pos int) int {
	nodes := t.nodes
	if pos >= len(nodes)/2 {
		return pos
	}
	left := t.playGame(pos * 2)
	right := t.playGame(pos*2 + 1)
	var loser, winner int
	if t.less(nodes[left].value, nodes[right].value) {
		loser, winner = right, left
	} else {
		loser, winner = left, right
	}
	nodes[pos].index = loser
	nodes[pos].value = nodes[loser].value
	return winner
}

// replayGames reconsiders every game on the path from pos to the root
// after the leaf at pos advanced.
func (t *Tree) replayGames(pos int) {
	nodes := t.nodes
	winningValue := nodes[pos].value
	for n := parent(pos); n != 0; n = parent(n) {
		node := &nodes[n]
		if t.less(node.value, winningValue) {
			node.index, pos = pos, node.index
			node.value, winningValue = winningValue, node.value
		}
	}
	nodes[0].index = pos
	nodes[0].value = winningValue
}

func parent(i int) int { return i >> 1 }
