package diskaudit

import (
	"sort"
	"time"
)

// CategoryUsage maps a category to the cumulative size in bytes of its files.
type CategoryUsage map[string]int64

// Total returns the sum over all categories.
func (u CategoryUsage) Total() int64 {
	var total int64
	for _, size := range u {
		total += size
	}

	return total
}

// Categories returns the category keys sorted by descending size, then name.
func (u CategoryUsage) Categories() []string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if u[keys[i]] != u[keys[j]] {
			return u[keys[i]] > u[keys[j]]
		}

		return keys[i] < keys[j]
	})

	return keys
}

// DuplicateGroup is a set of files with identical content.
type DuplicateGroup struct {
	// Digest is the shared content hash.
	Digest Digest `json:"digest" yaml:"digest"`
	// Size is the size in bytes of one member.
	Size int64 `json:"size" yaml:"size"`
	// Paths lists the members in scan order.
	Paths []string `json:"paths" yaml:"paths"`
}

// Wasted returns the bytes reclaimable by keeping a single copy.
func (g DuplicateGroup) Wasted() int64 {
	return g.Size * int64(len(g.Paths)-1)
}

// Report is the result of an audit. It is not modified after Analyze returns.
type Report struct {
	// Root is the analyzed directory.
	Root string `json:"root" yaml:"root"`
	// CategoryUsage holds the byte totals per category.
	CategoryUsage CategoryUsage `json:"category_usage" yaml:"category_usage"`
	// Duplicates holds the duplicate groups in first-seen order.
	Duplicates []DuplicateGroup `json:"duplicates" yaml:"duplicates"`
	// TopFiles holds at most TopK records, largest first.
	TopFiles []FileRecord `json:"top_files" yaml:"top_files"`
	// TopK is the configured number of top files.
	TopK int `json:"top_k" yaml:"top_k"`
	// FileCount is the number of files read successfully.
	FileCount int64 `json:"file_count" yaml:"file_count"`
	// TotalBytes is the cumulative size of those files.
	TotalBytes int64 `json:"total_bytes" yaml:"total_bytes"`
	// Warnings lists entries skipped because they could not be read.
	Warnings []Warning `json:"warnings" yaml:"warnings"`
	// Elapsed is the total time taken for analysis.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Wasted returns the bytes reclaimable across all duplicate groups.
func (r *Report) Wasted() int64 {
	var total int64
	for _, g := range r.Duplicates {
		total += g.Wasted()
	}

	return total
}
