package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"os"

	"golang.org/x/sys/unix"
)

var ErrNotRegular = errors.New("ingest: input is not a regular file")

// Mapping is a read-only memory-mapped input file. Lines scanned from it
// are non-owning views into the mapping and stay valid until Close; the
// mapping is never written to, so any number of views may alias it.
type Mapping struct {
	data []byte
}

// OpenMapping maps path read-only and advises the kernel of sequential
// access. An empty file yields an empty mapping.
func OpenMapping(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("ingest: stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, ErrNotRegular
	}
	if fi.Size() == 0 {
		return &Mapping{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("ingest: mmap %s: %w", path, err)
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	return &Mapping{data: data}, nil
}

func (m *Mapping) Arena() []byte { return m.data }

// All scans the mapping for line boundaries. A trailing carriage return is
// stripped from each line; a final line without a terminator is included.
func (m *Mapping) All() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		data := m.data
		var off int64
		for off < int64(len(data)) {
			rest := data[off:]
			line := rest
			adv := int64(len(rest))
			if n := bytes.IndexByte(rest, '\n'); n >= 0 {
				line = rest[:n]
				adv = int64(n) + 1
			}
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			if !yield(Line{Off: off, Data: line}) {
				return
			}
			off += adv
		}
	}
}

func (m *Mapping) Err() error { return nil }

// Close unmaps the file. All outstanding line views become invalid.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("ingest: munmap: %w", err)
	}
	return nil
}
