package diskaudit

import (
	"context"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mib = 1024 * 1024

func TestAnalyzeScenario(t *testing.T) {
	root := t.TempDir()
	a := createFile(t, root, "a.txt", filled('a', mib))
	b := createFile(t, root, "b.txt", filled('a', mib))
	c := createFile(t, root, "c.jpg", filled('c', 5*mib))

	report, err := Analyze(context.Background(), root, Options{}, nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryUsage{".txt": 2 * mib, ".jpg": 5 * mib}, report.CategoryUsage)

	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, []string{a, b}, report.Duplicates[0].Paths)

	want := sha256.Sum256(filled('a', mib))
	assert.Equal(t, Digest(want[:]), report.Duplicates[0].Digest)

	assert.Equal(t, []string{c, a, b}, paths(report.TopFiles))
	assert.Equal(t, DefaultTopK, report.TopK)
	assert.Equal(t, int64(3), report.FileCount)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeEmptyTree(t *testing.T) {
	report, err := Analyze(context.Background(), t.TempDir(), Options{}, nil)
	require.NoError(t, err)

	assert.Empty(t, report.CategoryUsage)
	assert.Empty(t, report.Duplicates)
	assert.Empty(t, report.TopFiles)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeNoExtensionBucket(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "README", filled('r', 42))
	createFile(t, root, "docs/LICENSE", filled('l', 8))

	report, err := Analyze(context.Background(), root, Options{}, nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryUsage{NoExtension: 50}, report.CategoryUsage)
}

func TestAnalyzeInvalidRoot(t *testing.T) {
	root := t.TempDir()
	file := createFile(t, root, "file.txt", []byte("x"))

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(root, "missing")},
		{"not a directory", file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Analyze(context.Background(), tt.path, Options{}, nil)
			assert.Nil(t, report)

			var rootErr *InvalidRootError
			require.ErrorAs(t, err, &rootErr)
			assert.Equal(t, tt.path, rootErr.Path)
		})
	}
}

func TestAnalyzeUnknownHash(t *testing.T) {
	_, err := Analyze(context.Background(), t.TempDir(), Options{Hash: "crc"}, nil)
	assert.Error(t, err)
}

func TestAnalyzeCancelled(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.bin", "b.bin", "c/d.bin"} {
		createFile(t, root, name, filled('z', 1024))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Analyze(ctx, root, Options{}, nil)
	assert.Nil(t, report)
	require.ErrorIs(t, err, ErrScanCancelled)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAnalyzeUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	root := t.TempDir()
	createFile(t, root, "ok.txt", filled('o', 100))
	locked := createFile(t, root, "locked.txt", filled('l', 1000))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	report, err := Analyze(context.Background(), root, Options{}, nil)
	require.NoError(t, err)

	assert.Equal(t, CategoryUsage{".txt": 100}, report.CategoryUsage)
	assert.Equal(t, int64(1), report.FileCount)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, locked, report.Warnings[0].Path)
	assert.NotContains(t, paths(report.TopFiles), locked)
}

// Scans must not depend on how work is spread over the workers.
func TestAnalyzeIdempotent(t *testing.T) {
	root := t.TempDir()
	for i, name := range []string{"a/1.log", "a/2.log", "b/3.bin", "b/4.bin", "5.txt", "6.txt", "c/d/7", "8.jpg"} {
		// Files with equal i%3 share content, so sizes tie across groups.
		createFile(t, root, name, filled(byte('a'+i%3), 100*(1+i%3)))
	}

	first, err := Analyze(context.Background(), root, Options{TopK: 4, Workers: 1}, nil)
	require.NoError(t, err)
	require.Len(t, first.Duplicates, 3)

	for _, workers := range []int{2, 4, 8, 8} {
		again, err := Analyze(context.Background(), root, Options{TopK: 4, Workers: workers}, nil)
		require.NoError(t, err)

		assert.Equal(t, first.CategoryUsage, again.CategoryUsage)
		assert.Equal(t, first.Duplicates, again.Duplicates)
		assert.Equal(t, first.TopFiles, again.TopFiles)
	}
}

func TestAnalyzeProperties(t *testing.T) {
	root := t.TempDir()
	sizes := []int{0, 1, 7, 8192, 8193, 20000, 7, 1, 300, 300}

	var total int64

	for i, size := range sizes {
		// Equal sizes share content, so they form duplicate groups.
		createFile(t, root, filepath.Join("d", string(rune('a'+i))+".dat"), filled(byte(size%251), size))
		total += int64(size)
	}

	const topK = 3

	report, err := Analyze(context.Background(), root, Options{TopK: topK}, nil)
	require.NoError(t, err)

	// Conservation.
	assert.Equal(t, total, report.CategoryUsage.Total())

	// Duplicate soundness.
	hasher, err := NewHasher(SHA256)
	require.NoError(t, err)

	for _, group := range report.Duplicates {
		require.GreaterOrEqual(t, len(group.Paths), 2)

		for _, path := range group.Paths {
			digest, err := hasher.Sum(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, group.Digest, digest)
		}
	}

	assert.Len(t, report.Duplicates, 3)

	// Top-K correctness.
	require.Len(t, report.TopFiles, min(topK, len(sizes)))

	for i := 1; i < len(report.TopFiles); i++ {
		assert.GreaterOrEqual(t, report.TopFiles[i-1].Size, report.TopFiles[i].Size)
	}

	smallest := report.TopFiles[len(report.TopFiles)-1].Size
	inTop := make(map[string]bool)

	for _, f := range report.TopFiles {
		inTop[f.Path] = true
	}

	for i, size := range sizes {
		path := filepath.Join(root, "d", string(rune('a'+i))+".dat")
		if !inTop[path] {
			assert.LessOrEqual(t, int64(size), smallest)
		}
	}
}

func TestAnalyzeVerify(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "a.txt", filled('a', 3*ChunkSize))
	createFile(t, root, "b.txt", filled('a', 3*ChunkSize))

	report, err := Analyze(context.Background(), root, Options{Verify: true}, nil)
	require.NoError(t, err)
	require.Len(t, report.Duplicates, 1)
	assert.Len(t, report.Duplicates[0].Paths, 2)
}

func TestAnalyzeProgressHook(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "a.bin", filled('a', 10))

	calls := make(chan [2]int64, 100)
	hook := func(files, bytes int64) {
		select {
		case calls <- [2]int64{files, bytes}:
		default:
		}
	}

	_, err := Analyze(context.Background(), root, Options{ProgressInterval: 1}, hook)
	require.NoError(t, err)

	for {
		select {
		case c := <-calls:
			assert.LessOrEqual(t, c[0], int64(1))
		default:
			return
		}
	}
}

func TestAnalyzeFileTimeout(t *testing.T) {
	root := t.TempDir()
	a := createFile(t, root, "a.txt", filled('a', 4*ChunkSize))
	b := createFile(t, root, "b.txt", filled('a', 4*ChunkSize))

	report, err := Analyze(context.Background(), root, Options{FileTimeout: time.Nanosecond}, nil)
	require.NoError(t, err)

	assert.Empty(t, report.CategoryUsage)
	assert.Empty(t, report.Duplicates)
	assert.Empty(t, report.TopFiles)
	assert.Equal(t, int64(0), report.FileCount)

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, a, report.Warnings[0].Path)
	assert.Equal(t, b, report.Warnings[1].Path)
	assert.Contains(t, report.Warnings[0].Message, context.DeadlineExceeded.Error())
}

func TestHashWorkerVanishedFile(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "a.txt", filled('a', 300))
	gone := createFile(t, root, "b.txt", filled('b', 5000))
	createFile(t, root, "c.bin", filled('a', 300))

	ctx := context.Background()

	entries, _, err := Walk(ctx, root, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Removed between listing and reading.
	require.NoError(t, os.Remove(gone))

	jobs := make(chan Entry, len(entries))
	for _, e := range entries {
		jobs <- e
	}

	close(jobs)

	results := make(chan result, len(entries))
	require.NoError(t, hashWorker(ctx, Options{}.withDefaults(), jobs, results, &counters{}))
	close(results)

	agg := newAggregator(DefaultTopK)

	var warnings []Warning

	for res := range results {
		if res.warning != nil {
			warnings = append(warnings, *res.warning)

			continue
		}

		agg.add(res.record)
	}

	report := agg.finalize(root)

	require.Len(t, warnings, 1)
	assert.Equal(t, gone, warnings[0].Path)

	assert.Equal(t, CategoryUsage{".txt": 300, ".bin": 300}, report.CategoryUsage)
	assert.Equal(t, int64(600), report.CategoryUsage.Total())
	assert.NotContains(t, paths(report.TopFiles), gone)
	require.Len(t, report.Duplicates, 1)
	assert.NotContains(t, report.Duplicates[0].Paths, gone)
}
