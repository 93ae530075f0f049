// Package staging holds uploaded lesson artifacts on local disk between the
// synchronous ingestion request and the background pipeline run that consumes
// them. Every staged file belongs to exactly one run and is removed when that
// run finishes, whatever the outcome.
package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes uploads into its base directory under collision-resistant names.
type Store struct {
	baseDir string
}

// NewStore creates the staging directory if needed.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, errors.New("staging dir required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Stash copies src to a uuid-prefixed file named after the original upload and
// returns its path. Concurrent requests never collide because each call gets a
// fresh uuid.
func (s *Store) Stash(originalName string, src io.Reader) (string, error) {
	name := filepath.Base(originalName)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", originalName)
	}
	path := filepath.Join(s.baseDir, fmt.Sprintf("%s_%s", uuid.NewString(), name))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return path, nil
}

// Remove deletes one staged file. Removing a path that is already gone is not
// an error, cleanup runs on every exit path and may repeat.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}

// RemoveAll deletes a batch of staged files, returning the first error while
// still attempting the rest.
func (s *Store) RemoveAll(paths []string) error {
	var first error
	for _, p := range paths {
		if err := s.Remove(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Dir reports the staging base directory.
func (s *Store) Dir() string {
	return s.baseDir
}
