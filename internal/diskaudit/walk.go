package diskaudit

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// Entry is a regular file found by the walker.
type Entry struct {
	// Path is the file path, rooted at the walked directory.
	Path string
	// Size is the size in bytes at listing time.
	Size int64
	// Seq is the position of the entry in the walk order.
	Seq int
}

// Warning records a file or directory that was skipped during a scan.
type Warning struct {
	// Path is the offending path.
	Path string `json:"path" yaml:"path"`
	// Message describes the failure.
	Message string `json:"message" yaml:"message"`
}

// filters holds the compiled scope filters of Options.
type filters struct {
	include  map[string]struct{}
	exclude  map[string]struct{}
	patterns []*regexp.Regexp
	minSize  int64
	depth    int
}

// newFilters compiles the extension and pattern filters.
func newFilters(opt Options) (filters, error) {
	f := filters{
		include:  make(map[string]struct{}, len(opt.Extensions)),
		exclude:  make(map[string]struct{}, len(opt.Extensions)),
		patterns: make([]*regexp.Regexp, 0, len(opt.Excludes)),
		minSize:  opt.MinSize,
		depth:    opt.Depth,
	}

	for _, e := range opt.Extensions { //nolint:varnamelen // e is standard for element in range
		e = strings.Trim(e, "'\"")

		if strings.HasPrefix(e, "!") {
			f.exclude[strings.TrimPrefix(e, "!")] = struct{}{}
		} else {
			f.include[e] = struct{}{}
		}
	}

	for _, p := range opt.Excludes {
		re, err := regexp.Compile(p)
		if err != nil {
			return filters{}, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		f.patterns = append(f.patterns, re)
	}

	return f, nil
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// excludedBy returns the first pattern matching path, or nil.
func (f filters) excludedBy(path string) *regexp.Regexp {
	fPath := filepath.ToSlash(path)

	for _, re := range f.patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

// includesExtension checks the extension filters. Excludes win over includes.
func (f filters) includesExtension(path string) bool {
	for ext := range f.exclude {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}

	for ext := range f.include {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

// Walk enumerates every regular file under root that passes the filters of opt.
//
// Directories are read in parallel by fastwalk; the result is sorted by path
// so the order, and with it each Entry.Seq, is stable for an unchanged tree.
// Symbolic links are not followed and not reported. Entries that cannot be
// read are skipped and returned as warnings. Walk fails only when ctx ends or
// a filter does not compile.
func Walk(ctx context.Context, root string, opt Options) ([]Entry, []Warning, error) {
	opt = opt.withDefaults()
	log := opt.Logger

	flt, err := newFilters(opt)
	if err != nil {
		return nil, nil, err
	}

	var (
		mu       sync.Mutex
		entries  []Entry
		warnings []Warning
	)

	warn := func(path string, err error) {
		log.Debug("skipping entry", slog.String("path", path), slog.Any("err", err))

		mu.Lock()
		warnings = append(warnings, Warning{Path: path, Message: err.Error()})
		mu.Unlock()
	}

	conf := &fastwalk.Config{
		Follow: false,
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warn(path, err)

			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if flt.depth > 0 && calculateDepth(path, root) > flt.depth {
			if d.IsDir() {
				log.Debug("skipping directory beyond depth", slog.String("path", path), slog.Int("depth", flt.depth))

				return filepath.SkipDir
			}

			return nil
		}

		if path != root {
			if re := flt.excludedBy(path); re != nil {
				log.Debug("excluding path", slog.String("path", filepath.ToSlash(path)), slog.String("regex", re.String()))

				if d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			warn(path, err)

			return nil
		}

		if info.Size() < flt.minSize || !flt.includesExtension(path) {
			return nil
		}

		mu.Lock()
		entries = append(entries, Entry{Path: path, Size: info.Size()})
		mu.Unlock()

		return nil
	})
	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, cancelled(ctxErr)
		}

		return nil, nil, fmt.Errorf("walking %q: %w", root, walkErr)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	for i := range entries {
		entries[i].Seq = i
	}

	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Path < warnings[j].Path
	})

	return entries, warnings, nil
}
