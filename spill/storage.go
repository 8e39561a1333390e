package spill

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage abstracts where run files live so merge reads and the fatal
// error paths can be exercised against fakes.
type Storage interface {
	Create(name string) (io.WriteCloser, error)
	Open(name string) (io.ReadCloser, error)
	Remove(name string) error
}

// LocalStorage keeps run files in a scratch directory on the local
// filesystem.
type LocalStorage struct {
	dir string
}

// NewScratch creates a uniquely named scratch directory under dir. The
// caller owns the directory and must Destroy it when done.
func NewScratch(dir string) (*LocalStorage, error) {
	d, err := os.MkdirTemp(dir, "vsort-")
	if err != nil {
		return nil, fmt.Errorf("spill: create scratch directory in %s: %w", dir, err)
	}
	return &LocalStorage{dir: d}, nil
}

// NewLocalStorage uses an existing directory as-is.
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

// Dir returns the directory run files are written to.
func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) Create(name string) (io.WriteCloser, error) {
	f, err := os.OpenFile(filepath.Join(s.dir, filepath.Base(name)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("spill: create run file %s: %w", name, err)
	}
	return f, nil
}

func (s *LocalStorage) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("spill: open run file %s: %w", name, err)
	}
	return f, nil
}

func (s *LocalStorage) Remove(name string) error {
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(name))); err != nil {
		return fmt.Errorf("spill: remove run file %s: %w", name, err)
	}
	return nil
}

// Destroy removes the scratch directory and anything left inside it. It is
// the backstop for partially written files that never registered a Run.
func (s *LocalStorage) Destroy() error {
	return os.RemoveAll(s.dir)
}
