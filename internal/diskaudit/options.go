package diskaudit

import (
	"log/slog"
	"runtime"
	"time"
)

const (
	// DefaultTopK is the number of largest files kept when Options.TopK is unset.
	DefaultTopK = 5
	// DefaultProgressInterval is the default interval for progress updates.
	DefaultProgressInterval = 500 * time.Millisecond

	minWorkers = 4
	maxWorkers = 16
)

// Options configures a storage audit.
type Options struct {
	// Extensions to include (empty = all). A '!' prefix excludes instead.
	Extensions []string
	// Excludes contains regex patterns to exclude, matched against slash paths.
	Excludes []string
	// MinSize is the minimum file size in bytes.
	MinSize int64
	// TopK is the number of largest files to keep.
	TopK int
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// Workers is the number of concurrent hashing workers.
	Workers int
	// Hash names the digest algorithm.
	Hash HashAlgorithm
	// Verify confirms duplicate groups with a byte-for-byte comparison.
	Verify bool
	// FileTimeout bounds the time spent reading a single file (0=none).
	FileTimeout time.Duration
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

// DefaultWorkers returns a worker count suited to file I/O on this machine.
func DefaultWorkers() int {
	return min(max(runtime.NumCPU(), minWorkers), maxWorkers)
}

// withDefaults fills unset fields.
func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}

	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}

	if o.Hash == "" {
		o.Hash = SHA256
	}

	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	return o
}
