// Package static reads static files for the router's fallback lookup.
package static

import (
	"os"
	"path/filepath"
	"strings"
)

// FS looks up files on the local file system. A candidate path is the root
// and request path concatenated as strings.
type FS struct {
	// Confine skips candidates that resolve outside their root, such as
	// "/../secret". Without it the concatenated path is read as is.
	Confine bool
}

// NewFS creates a lookup that confines reads to each root.
func NewFS() *FS {
	return &FS{Confine: true}
}

// Lookup tries each root in order and returns the contents of the first
// readable regular file at root+path.
func (f *FS) Lookup(path string, roots []string) (string, bool) {
	for _, root := range roots {
		candidate := root + path
		if f.Confine && !within(root, candidate) {
			continue
		}
		data, ok := readFile(candidate)
		if ok {
			return data, true
		}
	}
	return "", false
}

func readFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// within reports whether candidate stays inside root after cleaning.
func within(root, candidate string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(candidate))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
