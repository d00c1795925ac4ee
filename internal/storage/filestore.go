package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/telemetryhub/relay/internal/domain"
)

// FileStore persists each key as one file under a data directory.
// A configured byte quota caps the size of any single record; writes above
// the quota fail with domain.ErrQuotaExceeded before touching the disk.
type FileStore struct {
	dir        string
	quotaBytes int
}

// NewFileStore creates the data directory if needed. quotaBytes <= 0 means
// no client-side quota (the disk itself is the only limit).
func NewFileStore(dir string, quotaBytes int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir, quotaBytes: quotaBytes}, nil
}

func (s *FileStore) Read(_ context.Context, key string) ([]byte, error) {
	blob, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return blob, nil
}

// Write stages the record in a temp file and renames it into place, so a
// crash mid-write never leaves a partially written record behind.
func (s *FileStore) Write(_ context.Context, key string, blob []byte) error {
	if s.quotaBytes > 0 && len(blob) > s.quotaBytes {
		return fmt.Errorf("record of %d bytes over %d byte quota: %w",
			len(blob), s.quotaBytes, domain.ErrQuotaExceeded)
	}

	tmp, err := os.CreateTemp(s.dir, "."+sanitize(key)+"-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, sanitize(key)+".json")
}

// sanitize keeps keys usable as file names.
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		}
		return '_'
	}, key)
}

// compile-time check that FileStore implements Store
var _ Store = (*FileStore)(nil)
