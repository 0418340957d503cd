// Package checkpoint persists the ingestion cursor across runs. The cursor
// is the identifier of the most recently fully-processed feed item; an empty
// string means no item has ever been processed.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Store interface {
	// Load returns the persisted cursor, or "" when no prior run
	// completed any item. Absence is not an error.
	Load() (string, error)
	// Save overwrites the persisted cursor atomically.
	Save(cursor string) error
}

// FileStore keeps the cursor in a single plain-text file.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes to a temporary file in the same directory and renames it over
// the checkpoint file, so a crash mid-write never leaves a partial token.
func (s *FileStore) Save(cursor string) error {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(cursor); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary checkpoint file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	return nil
}
