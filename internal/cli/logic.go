package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/idelchi/diskaudit/internal/diskaudit"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

func logic(ctx context.Context, s settings, stdout, stderr io.Writer) error {
	structured := s.output == "json" || s.output == "yaml"
	enableProgress := !structured && !s.debug && isTerminal(stderr)

	if s.debug {
		s.options.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	// Simple progress callback that prints directly to stderr
	var progressHook func(files, bytes int64)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(files, bytes int64) {
			msg := fmt.Sprintf("Hashing… %d files, %s",
				files, humanize.IBytes(uint64(bytes))) //nolint:gosec // Bytes is always positive
			fmt.Fprintf(stderr, "\r\033[2K%s\r", msg)
		}
	}

	report, err := diskaudit.Analyze(ctx, s.path, s.options, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	styled := isTerminal(stdout)

	switch s.output {
	case "json":
		return PrintJSON(report, stdout)
	case "yaml":
		return PrintYAML(report, stdout)
	case "table":
		return PrintTable(report, stdout, styled)
	case "text":
		return PrintText(report, stdout, styled)
	default:
		return fmt.Errorf("unknown output format: %s", s.output)
	}
}
