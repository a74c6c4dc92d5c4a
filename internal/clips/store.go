// ABOUTME: Clip store for finished takes
// ABOUTME: Saves WAV clips to a directory under their timestamp names
package clips

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/fourtrack"
)

// Store manages saved clips
type Store struct {
	dir string
}

// NewStore creates a store, creating dir when missing
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create clips directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}

// Save writes a clip as <timestamp>.wav and returns its path
func (s *Store) Save(clip *fourtrack.Clip) (string, error) {
	path := filepath.Join(s.dir, clip.Filename())

	// Write to a temp file first so /clips never serves a partial take
	tmp, err := os.CreateTemp(s.dir, ".clip-*")
	if err != nil {
		return "", fmt.Errorf("failed to create clip file: %w", err)
	}

	if _, err := tmp.Write(clip.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write clip: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close clip file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save clip: %w", err)
	}

	log.Printf("Clip saved: %s (%d bytes)", path, len(clip.Data))
	return path, nil
}

// List returns saved clip names, oldest first
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list clips: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wav") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
