package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/giantswarm/perslc/internal/sentinel"
)

// ErrEmptyPath is returned when a path is empty.
const ErrEmptyPath = sentinel.Error("path must not be empty")

// DirMode is the mode used for directories created by this package.
const DirMode os.FileMode = 0o750

// EnsureParent creates the parent directory of filePath and all missing
// ancestors with DirMode. Returns nil if the directory already exists.
func EnsureParent(filePath string) error {
	if filePath == "" {
		return ErrEmptyPath
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("create directory for %s: %w", filePath, err)
	}
	return nil
}

// IsMemoryPath reports whether path names an in-memory SQLite database,
// which has no directory to prepare.
func IsMemoryPath(path string) bool {
	return path == ":memory:" || filepath.Base(path) == ":memory:"
}
