// ABOUTME: Single-file persistence for the latest relay snapshot
// ABOUTME: Writes atomically via temp file + rename and opens for streaming reads
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNoSnapshot is returned by Open when nothing has been persisted yet
var ErrNoSnapshot = errors.New("no snapshot persisted")

// FileStore keeps at most one snapshot on disk at path. Each Save replaces
// the previous file; readers that already opened the old file keep reading
// it to completion.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store writing to path. The parent directory is
// created if missing.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	return &FileStore{path: path}, nil
}

// Path returns the location of the persisted snapshot
func (s *FileStore) Path() string {
	return s.path
}

// Save atomically replaces the persisted snapshot with data
func (s *FileStore) Save(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}

// Info describes the persisted snapshot
type Info struct {
	Size    int64
	ModTime time.Time
}

// Open opens the persisted snapshot for reading. The caller must close the
// returned file. Returns ErrNoSnapshot when nothing has been persisted.
func (s *FileStore) Open() (*os.File, Info, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Info{}, ErrNoSnapshot
		}
		return nil, Info{}, fmt.Errorf("failed to open snapshot: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Info{}, fmt.Errorf("failed to stat snapshot: %w", err)
	}

	return f, Info{Size: st.Size(), ModTime: st.ModTime()}, nil
}

// Stat reports the persisted snapshot without opening it
func (s *FileStore) Stat() (Info, error) {
	st, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, ErrNoSnapshot
		}
		return Info{}, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return Info{Size: st.Size(), ModTime: st.ModTime()}, nil
}
