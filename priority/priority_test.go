package priority_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vcfkit/vsort/priority"
)

func TestQueuePopsInPriorityOrder(t *testing.T) {
	pq := priority.NewQueue[string, int](func(a, b int) bool { return a < b })

	pq.Set("c", 7)
	pq.Set("a", 3)
	pq.Set("b", 5)

	var keys []string
	var values []int
	for pq.Len() > 0 {
		k, v, ok := pq.Pop()
		assert.True(t, ok)
		keys = append(keys, k)
		values = append(values, v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, []int{3, 5, 7}, values)
}

func TestQueueSetUpdatesExistingKey(t *testing.T) {
	pq := priority.NewQueue[string, int](func(a, b int) bool { return a < b })

	pq.Set("a", 10)
	pq.Set("b", 5)
	pq.Set("a", 1)

	k, v, ok := pq.Peek()
	assert.True(t, ok)
	assert.Equal(t, "a", k)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, pq.Len())
}

func TestQueueEmpty(t *testing.T) {
	pq := priority.NewQueue[int, int](func(a, b int) bool { return a < b })

	_, _, ok := pq.Peek()
	assert.False(t, ok)
	_, _, ok = pq.Pop()
	assert.False(t, ok)
	assert.Zero(t, pq.Len())
}
