package platform

import (
	"errors"
	"path/filepath"
)

// ErrRootNotFound is returned by FindRoot when no marker is found.
var ErrRootNotFound = errors.New("store root not found")

// rootMarkers identify the top of a document store.
var rootMarkers = []string{".shadow", ".git", "shadow.yaml"}

// FindRoot walks up from startDir to the first directory holding one of the
// store markers and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range rootMarkers {
			if exists(filepath.Join(dir, marker)) {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}
