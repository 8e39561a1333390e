package spill_test

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vcfkit/vsort/record"
	"github.com/vcfkit/vsort/spill"
)

type failingStorage struct{}

func (failingStorage) Create(string) (io.WriteCloser, error) {
	return nil, errors.New("disk full")
}

func (failingStorage) Open(string) (io.ReadCloser, error) {
	return nil, errors.New("disk full")
}

func (failingStorage) Remove(string) error { return nil }

func setupManager(t *testing.T) (*spill.Manager, string, *record.Table, record.Ordering) {
	t.Helper()
	dir := t.TempDir()
	table := record.NewTable()
	mgr := spill.NewManager(spill.NewLocalStorage(dir), zap.NewNop())
	return mgr, dir, table, record.Lexicographic(table)
}

func extract(t *testing.T, table *record.Table, line string) record.Key {
	t.Helper()
	k, err := table.Extract([]byte(line))
	require.NoError(t, err)
	return k
}

func TestRunRoundTrip(t *testing.T) {
	mgr, dir, table, ord := setupManager(t)

	rw, err := mgr.NewRun(ord)
	require.NoError(t, err)

	lines := []string{"chr1\t1\tA", "chr1\t2\tB", "chr2\t1\tC"}
	for _, l := range lines {
		require.NoError(t, rw.Append(extract(t, table, l), []byte(l)))
	}
	run, err := rw.Close()
	require.NoError(t, err)
	assert.Equal(t, int64(3), run.Records)
	assert.Equal(t, 0, run.Ordinal)
	assert.Equal(t, []*spill.Run{run}, mgr.Runs())

	rc, err := mgr.Open(run)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "chr1\t1\tA\nchr1\t2\tB\nchr2\t1\tC\n", string(got))

	require.NoError(t, mgr.Remove(run))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunNamesAreUnique(t *testing.T) {
	mgr, _, _, ord := setupManager(t)

	a, err := mgr.NewRun(ord)
	require.NoError(t, err)
	b, err := mgr.NewRun(ord)
	require.NoError(t, err)

	ra, err := a.Close()
	require.NoError(t, err)
	rb, err := b.Close()
	require.NoError(t, err)
	assert.NotEqual(t, ra.Name, rb.Name)
	assert.Less(t, ra.Ordinal, rb.Ordinal)
}

func TestWriterRejectsOutOfOrderAppend(t *testing.T) {
	mgr, _, table, ord := setupManager(t)

	rw, err := mgr.NewRun(ord)
	require.NoError(t, err)
	defer rw.Abort()

	require.NoError(t, rw.Append(extract(t, table, "chr2\t5\tA"), []byte("chr2\t5\tA")))
	err = rw.Append(extract(t, table, "chr1\t5\tB"), []byte("chr1\t5\tB"))
	assert.ErrorIs(t, err, spill.ErrOutOfOrder)
}

func TestManagerCloseRemovesAllRuns(t *testing.T) {
	mgr, dir, table, ord := setupManager(t)

	for i := 0; i < 3; i++ {
		rw, err := mgr.NewRun(ord)
		require.NoError(t, err)
		require.NoError(t, rw.Append(extract(t, table, "chr1\t1\tA"), []byte("chr1\t1\tA")))
		_, err = rw.Close()
		require.NoError(t, err)
	}

	require.NoError(t, mgr.Close())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// closing twice is a no-op, and a closed manager refuses new runs
	require.NoError(t, mgr.Close())
	_, err = mgr.NewRun(ord)
	assert.ErrorIs(t, err, spill.ErrManagerClosed)
}

func TestWriterAbortRemovesPartialFile(t *testing.T) {
	mgr, dir, table, ord := setupManager(t)

	rw, err := mgr.NewRun(ord)
	require.NoError(t, err)
	require.NoError(t, rw.Append(extract(t, table, "chr1\t1\tA"), []byte("chr1\t1\tA")))
	rw.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, mgr.Runs())
}

func TestNewRunCreateFailure(t *testing.T) {
	table := record.NewTable()
	mgr := spill.NewManager(failingStorage{}, zap.NewNop())

	_, err := mgr.NewRun(record.Lexicographic(table))
	assert.Error(t, err)
}

func TestScratchLifecycle(t *testing.T) {
	base := t.TempDir()

	scratch, err := spill.NewScratch(base)
	require.NoError(t, err)
	fi, err := os.Stat(scratch.Dir())
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	// leftover files are removed along with the directory
	wc, err := scratch.Create("orphan.tmp")
	require.NoError(t, err)
	require.NoError(t, wc.Close())

	require.NoError(t, scratch.Destroy())
	_, err = os.Stat(scratch.Dir())
	assert.True(t, os.IsNotExist(err))
}
