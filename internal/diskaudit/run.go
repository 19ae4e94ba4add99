package diskaudit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// result is what a worker hands to the aggregator: a record or a warning.
type result struct {
	record  FileRecord
	warning *Warning
}

// checkRoot validates that root exists and is a directory.
func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &InvalidRootError{Path: root, Err: err}
	}

	if !info.IsDir() {
		return &InvalidRootError{Path: root, Err: errNotDirectory}
	}

	return nil
}

// hashWorker turns entries into records until jobs is drained or ctx ends.
func hashWorker(ctx context.Context, opt Options, jobs <-chan Entry, results chan<- result, progress *counters) error {
	hasher, err := NewHasher(opt.Hash)
	if err != nil {
		return err
	}

	for entry := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}

		fileCtx, cancel := ctx, context.CancelFunc(func() {})
		if opt.FileTimeout > 0 {
			fileCtx, cancel = context.WithTimeout(ctx, opt.FileTimeout)
		}

		digest, err := hasher.Sum(fileCtx, entry.Path)

		cancel()

		var res result

		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			opt.Logger.Debug("skipping unreadable file", slog.String("path", entry.Path), slog.Any("err", err))

			res.warning = &Warning{Path: entry.Path, Message: err.Error()}
		default:
			res.record = FileRecord{
				Path:     entry.Path,
				Size:     entry.Size,
				Category: Classify(entry.Path),
				Digest:   digest,
				seq:      entry.Seq,
			}

			progress.add(entry.Size)
		}

		select {
		case results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Analyze audits the directory tree at root and returns its Report.
//
// The root is checked before any traversal; a missing root or a non-directory
// yields an *InvalidRootError. Files are hashed by opt.Workers goroutines and
// folded by a single aggregator, so the result does not depend on scheduling.
// Files that cannot be read are left out of every total and listed in
// Report.Warnings.
//
// The scan can be cancelled via ctx, in which case the error wraps
// ErrScanCancelled and no Report is returned. Progress updates are sent
// to progressHook if provided.
func Analyze(ctx context.Context, root string, opt Options, progressHook func(int64, int64)) (*Report, error) {
	opt = opt.withDefaults()
	log := opt.Logger

	if root == "" {
		root = "."
	}

	root = filepath.Clean(root)

	if err := checkRoot(root); err != nil {
		return nil, err
	}

	if _, err := opt.Hash.new(); err != nil {
		return nil, err
	}

	log.Debug("starting scan",
		slog.String("root", root),
		slog.Int("top", opt.TopK),
		slog.Int("workers", opt.Workers),
		slog.String("hash", string(opt.Hash)),
	)

	start := time.Now()

	// Create child context to ensure progress reporter cleanup
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := &counters{}
	startProgressReporter(ctx, progress, progressHook, opt.ProgressInterval)

	entries, warnings, err := Walk(ctx, root, opt)
	if err != nil {
		return nil, err
	}

	log.Debug("walk complete", slog.Int("files", len(entries)), slog.Int("warnings", len(warnings)))

	jobs := make(chan Entry)
	results := make(chan result, opt.Workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)

		for _, entry := range entries {
			select {
			case jobs <- entry:
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		return nil
	})

	for range opt.Workers {
		g.Go(func() error {
			return hashWorker(gctx, opt, jobs, results, progress)
		})
	}

	var waitErr error

	done := make(chan struct{})

	go func() {
		waitErr = g.Wait()

		close(results)
		close(done)
	}()

	agg := newAggregator(opt.TopK)

	for res := range results {
		if res.warning != nil {
			warnings = append(warnings, *res.warning)

			continue
		}

		agg.add(res.record)
	}

	<-done

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, cancelled(ctxErr)
	}

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) || errors.Is(waitErr, context.DeadlineExceeded) {
			return nil, cancelled(waitErr)
		}

		return nil, fmt.Errorf("hashing files: %w", waitErr)
	}

	report := agg.finalize(root)

	if opt.Verify {
		verified, verifyWarnings, err := verifyGroups(ctx, report.Duplicates)
		if err != nil {
			return nil, err
		}

		report.Duplicates = verified
		warnings = append(warnings, verifyWarnings...)
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].Path < warnings[j].Path
	})

	report.Warnings = warnings
	if report.Warnings == nil {
		report.Warnings = []Warning{}
	}

	report.Elapsed = time.Since(start)

	log.Debug("scan complete",
		slog.Int64("files", report.FileCount),
		slog.Int64("bytes", report.TotalBytes),
		slog.Int("duplicates", len(report.Duplicates)),
		slog.Duration("elapsed", report.Elapsed),
	)

	return report, nil
}
