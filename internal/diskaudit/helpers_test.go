package diskaudit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createFile writes content to root/rel, creating parent directories.
func createFile(t *testing.T, root, rel string, content []byte) string {
	t.Helper()

	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))

	return path
}

// filled returns size bytes of b.
func filled(b byte, size int) []byte {
	return bytes.Repeat([]byte{b}, size)
}
