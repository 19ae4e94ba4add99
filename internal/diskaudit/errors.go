package diskaudit

import (
	"errors"
	"fmt"
)

// ErrScanCancelled is returned by Analyze when the context ends before the
// walk completes. No Report is produced in that case.
var ErrScanCancelled = errors.New("scan cancelled")

// InvalidRootError reports a root path that does not exist or is not a directory.
type InvalidRootError struct {
	// Path is the root as given by the caller.
	Path string
	// Err is the underlying cause.
	Err error
}

func (e *InvalidRootError) Error() string {
	return fmt.Sprintf("invalid root %q: %v", e.Path, e.Err)
}

func (e *InvalidRootError) Unwrap() error {
	return e.Err
}

// UnreadableFileError reports a file that could not be opened or fully read.
// It never aborts a scan; it ends up in Report.Warnings instead.
type UnreadableFileError struct {
	// Path is the file path.
	Path string
	// Err is the underlying cause.
	Err error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("reading %q: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error {
	return e.Err
}

// errNotDirectory is the cause attached to InvalidRootError for non-directories.
var errNotDirectory = errors.New("not a directory")

// cancelled wraps the context cause into ErrScanCancelled.
func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrScanCancelled, cause)
}
