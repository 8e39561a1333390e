package chunk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcfkit/vsort/chunk"
	"github.com/vcfkit/vsort/record"
)

func extract(t *testing.T, table *record.Table, line string) record.Key {
	t.Helper()
	k, err := table.Extract([]byte(line))
	require.NoError(t, err)
	return k
}

func TestSorterBudget(t *testing.T) {
	table := record.NewTable()
	c := chunk.New(record.Lexicographic(table), 100)

	line := []byte("chr1\t10\tAAAA") // 12 bytes + 32 overhead per record
	k := extract(t, table, string(line))

	assert.False(t, c.Add(k, line))
	assert.False(t, c.Add(k, line))
	assert.True(t, c.Add(k, line))
	assert.Equal(t, 3, c.Len())
}

func TestSorterAcceptsOversizedRecord(t *testing.T) {
	table := record.NewTable()
	c := chunk.New(record.Lexicographic(table), 10)

	line := []byte("chr1\t1\tAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	k := extract(t, table, string(line))

	assert.True(t, c.Add(k, line))
	assert.Equal(t, 1, c.Len())

	for got, stored := range c.Records() {
		assert.Equal(t, string(line), string(stored))
		assert.Equal(t, k.Seq, got.Seq)
	}
}

func TestSorterSortsWithInputOrderTieBreak(t *testing.T) {
	table := record.NewTable()
	c := chunk.New(record.Lexicographic(table), 1<<20)

	lines := []string{
		"chr2\t1000\tX",
		"chr1\t2000\tY",
		"chr1\t2000\tZ", // same key as Y, must stay after it
		"chr10\t1500\tW",
	}
	for _, l := range lines {
		c.Add(extract(t, table, l), []byte(l))
	}
	c.Sort()

	var got []string
	for _, line := range c.Records() {
		got = append(got, string(line))
	}
	assert.Equal(t, []string{
		"chr1\t2000\tY",
		"chr1\t2000\tZ",
		"chr10\t1500\tW",
		"chr2\t1000\tX",
	}, got)
}

func TestSorterSharedArena(t *testing.T) {
	table := record.NewTable()
	arena := []byte("chr2\t5\tB\nchr1\t9\tA\n")
	c := chunk.NewShared(record.Lexicographic(table), 1<<20, arena)

	first := extract(t, table, "chr2\t5\tB")
	first.Off, first.Len = 0, 8
	second := extract(t, table, "chr1\t9\tA")
	second.Off, second.Len = 9, 8

	c.Add(first, arena[0:8])
	c.Add(second, arena[9:17])
	c.Sort()

	var got []string
	for _, line := range c.Records() {
		got = append(got, string(line))
	}
	assert.Equal(t, []string{"chr1\t9\tA", "chr2\t5\tB"}, got)
}

func TestSorterReset(t *testing.T) {
	table := record.NewTable()
	c := chunk.New(record.Lexicographic(table), 1<<20)

	line := "chr1\t1\tA"
	c.Add(extract(t, table, line), []byte(line))
	require.Equal(t, 1, c.Len())

	c.Reset()
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Bytes())

	c.Add(extract(t, table, line), []byte(line))
	c.Sort()
	for _, got := range c.Records() {
		assert.Equal(t, line, string(got))
	}
}
