// Package loader implements the firmware-image loaders the CLI front
// end uses before handing byte blobs to the core: Motorola S-record
// text, raw binary segments, and whitespace-separated flash hex text
// (spec.md §6).
package loader

import (
	"os"
	"path/filepath"
	"strings"
)

// sanitizePath resolves rel against baseDir and refuses to leave it —
// the same path-confinement check the teacher's FileIODevice uses for
// its sandboxed file I/O device.
func sanitizePath(baseDir, rel string) (string, bool) {
	if filepath.IsAbs(rel) || strings.Contains(rel, "..") {
		return "", false
	}
	full := filepath.Join(baseDir, rel)
	relBack, err := filepath.Rel(baseDir, full)
	if err != nil || strings.HasPrefix(relBack, "..") {
		return "", false
	}
	return full, true
}

// ReadFile resolves path against baseDir and reads it, refusing to
// escape baseDir via an absolute path or `..` traversal.
func ReadFile(baseDir, path string) ([]byte, error) {
	full, ok := sanitizePath(baseDir, path)
	if !ok {
		return nil, &PathError{BaseDir: baseDir, Path: path}
	}
	return os.ReadFile(full)
}

// PathError reports a rejected file path.
type PathError struct {
	BaseDir, Path string
}

func (e *PathError) Error() string {
	return "loader: path " + e.Path + " escapes base directory " + e.BaseDir
}
