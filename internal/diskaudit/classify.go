package diskaudit

import (
	"path/filepath"
	"strings"
)

// NoExtension is the category for files without an extension.
const NoExtension = "<no extension>"

// Classify returns the category of path: its lowercased extension including
// the leading dot, or NoExtension. Leading dots of the filename are not
// treated as extension separators, so ".bashrc" has no extension.
func Classify(path string) string {
	name := strings.TrimLeft(filepath.Base(path), ".")

	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return NoExtension
	}

	return strings.ToLower(name[idx:])
}
