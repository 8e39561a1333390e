// Package priority implements a small keyed binary heap ordered by a
// caller-supplied comparison. The merge planner uses it to fold the
// smallest live runs first, so intermediate merge passes rewrite the
// fewest bytes.
package priority

// item is one entry in the heap.
type item[K comparable, V any] struct {
	key   K
	value V
	index int
}

// Queue is a keyed min-heap: the less function returns true when a has
// higher priority than b. Keys are unique; Set on an existing key updates
// its value and resifts.
type Queue[K comparable, V any] struct {
	items   []*item[K, V]
	itemMap map[K]*item[K, V]
	less    func(a, b V) bool
}

func NewQueue[K comparable, V any](less func(a, b V) bool) *Queue[K, V] {
	return &Queue[K, V]{
		itemMap: make(map[K]*item[K, V]),
		less:    less,
	}
}

// Len returns the number of items in the queue.
func (pq *Queue[K, V]) Len() int {
	return len(pq.items)
}

// Set adds a new key or updates an existing key's value.
func (pq *Queue[K, V]) Set(key K, value V) {
	if it, exists := pq.itemMap[key]; exists {
		old := it.value
		it.value = value
		if pq.less(value, old) {
			pq.up(it.index)
		} else {
			pq.down(it.index)
		}
		return
	}
	it := &item[K, V]{key: key, value: value, index: len(pq.items)}
	pq.items = append(pq.items, it)
	pq.itemMap[key] = it
	pq.up(it.index)
}

// Peek returns the highest-priority entry without removing it.
func (pq *Queue[K, V]) Peek() (K, V, bool) {
	if len(pq.items) == 0 {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	top := pq.items[0]
	return top.key, top.value, true
}

// Pop removes and returns the highest-priority entry.
func (pq *Queue[K, V]) Pop() (K, V, bool) {
	if len(pq.items) == 0 {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	top := pq.items[0]
	last := len(pq.items) - 1
	pq.swap(0, last)
	pq.items = pq.items[:last]
	delete(pq.itemMap, top.key)
	if last > 0 {
		pq.down(0)
	}
	return top.key, top.value, true
}

func (pq *Queue[K, V]) swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
	pq.items[i].index = i
	pq.items[j].index = j
}

func (pq *Queue[K, V]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.less(pq.items[i].value, pq.items[parent].value) {
			break
		}
		pq.swap(i, parent)
		i = parent
	}
}

func (pq *Queue[K, V]) down(i int) {
	n := len(pq.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		smallest := left
		if right := left + 1; right < n && pq.less(pq.items[right].value, pq.items[left].value) {
			smallest = right
		}
		if !pq.less(pq.items[smallest].value, pq.items[i].value) {
			break
		}
		pq.swap(i, smallest)
		i = smallest
	}
}
