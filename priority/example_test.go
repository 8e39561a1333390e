package priority_test

import (
	"fmt"

	"github.com/vcfkit/vsort/priority"
)

// ExampleQueue demonstrates folding the smallest entries first.
func ExampleQueue() {
	pq := priority.NewQueue[string, int](func(a, b int) bool {
		return a < b
	})

	pq.Set("run-2", 4096)
	pq.Set("run-0", 512)
	pq.Set("run-1", 1024)

	for pq.Len() > 0 {
		key, bytes, _ := pq.Pop()
		fmt.Printf("%s: %d bytes\n", key, bytes)
	}

	// Output:
	// run-0: 512 bytes
	// run-1: 1024 bytes
	// run-2: 4096 bytes
}
