package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Standard subdirectories of a run's output directory.
const (
	DirSnapshots   = "aria-snapshots"
	DirScreenshots = "screenshots"
	DirRecordings  = "recordings"
	DirHTML        = "html-sources"
	DirDownloads   = "downloads"
)

// Store writes artifacts below a run's output directory. Files are written
// whole and are never modified after the write returns.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the output directory.
func (s *Store) Root() string {
	return s.root
}

// Init creates the output directory and its standard subdirectories.
func (s *Store) Init() error {
	for _, sub := range []string{"", DirSnapshots, DirScreenshots, DirRecordings, DirHTML} {
		if err := os.MkdirAll(filepath.Join(s.root, sub), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}

// Path joins elem onto the output directory.
func (s *Store) Path(elem ...string) string {
	return filepath.Join(append([]string{s.root}, elem...)...)
}

// WriteFile writes data to a path relative to the output directory,
// creating parent directories as needed. The file appears under its final
// name only once complete.
func (s *Store) WriteFile(rel string, data []byte) error {
	path := s.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file for %s: %w", rel, err)
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func (s *Store) WriteJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", rel, err)
	}
	return s.WriteFile(rel, data)
}
