package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/idelchi/diskaudit/internal/config"
	"github.com/idelchi/diskaudit/internal/diskaudit"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// DefaultExcludes contains the default exclusion patterns.
//
//nolint:gochecknoglobals // Config constant
var DefaultExcludes = []string{`.*\.git/.*`, `.*node_modules/.*`}

// allowedOutputs lists the accepted --output values.
//
//nolint:gochecknoglobals // Config constant
var allowedOutputs = []string{"text", "table", "json", "yaml"}

// settings holds everything parsed from flags and the config file.
type settings struct {
	options     diskaudit.Options
	path        string
	minSize     string
	hash        string
	output      string
	configPath  string
	debug       bool
	fileTimeout time.Duration
}

// Execute runs the CLI with the process arguments. An interrupt cancels the scan.
func (c CLI) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Command().ExecuteContext(ctx)
}

// Command builds the root cobra command.
func (c CLI) Command() *cobra.Command {
	var s settings

	cmd := &cobra.Command{
		Use:   "diskaudit [flags] [path]",
		Short: "Audit storage usage by file type, duplicates and largest files",
		Long: heredoc.Doc(`
			diskaudit audits a directory tree and reports:

			  - the bytes used by each file extension
			  - groups of files with identical content, wherever they live
			  - the largest files

			Positional Arguments:
			  path    Directory to analyze. Defaults to current directory if not specified.

			Files that cannot be read are skipped and listed as warnings.
			Settings can also be read from a YAML file with --config; flags win.
		`),
		Args:          cobra.MaximumNArgs(1),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.path = "."
			if len(args) > 0 {
				s.path = args[0]
			}

			if err := s.applyConfig(cmd); err != nil {
				return err
			}

			if err := s.resolve(); err != nil {
				return err
			}

			return logic(cmd.Context(), s, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.IntVarP(&s.options.TopK, "top", "t", diskaudit.DefaultTopK, "Number of largest files to report")
	flags.IntVarP(&s.options.Workers, "workers", "w", diskaudit.DefaultWorkers(), "Number of concurrent hashing workers")
	flags.StringVar(&s.hash, "hash", string(diskaudit.SHA256), "Content hash: sha256 or xxh3 (pair xxh3 with --verify)")
	flags.BoolVar(&s.options.Verify, "verify", false, "Confirm duplicates with a byte-for-byte comparison")
	flags.StringSliceVarP(
		&s.options.Extensions,
		"ext",
		"x",
		[]string{},
		"File suffixes to include (e.g., .go,.md). Use '!' prefix to exclude (e.g., !.log,!_test.go)",
	)
	flags.StringSliceVarP(&s.options.Excludes, "exclude", "e", DefaultExcludes, "Regex patterns to exclude")
	flags.StringVar(&s.minSize, "min-size", "0KB", "Minimum file size (e.g., 1KB)")
	flags.IntVarP(&s.options.Depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	flags.DurationVar(&s.fileTimeout, "file-timeout", 0, "Per-file read timeout (0=none)")
	flags.StringVarP(&s.output, "output", "o", "text", "Output format: text, table, json or yaml")
	flags.StringVar(&s.configPath, "config", "", "YAML file with default settings")
	flags.BoolVar(&s.debug, "debug", false, "Enable debug output")

	return cmd
}

// applyConfig copies config file values into settings whose flags were not set.
//
//nolint:cyclop // One branch per setting
func (s *settings) applyConfig(cmd *cobra.Command) error {
	file, err := config.Load(s.configPath)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed

	if file.Top != nil && !changed("top") {
		s.options.TopK = *file.Top
	}

	if file.Workers != nil && !changed("workers") {
		s.options.Workers = *file.Workers
	}

	if file.Hash != nil && !changed("hash") {
		s.hash = *file.Hash
	}

	if file.Verify != nil && !changed("verify") {
		s.options.Verify = *file.Verify
	}

	if file.Extensions != nil && !changed("ext") {
		s.options.Extensions = file.Extensions
	}

	if file.Excludes != nil && !changed("exclude") {
		s.options.Excludes = file.Excludes
	}

	if file.MinSize != nil && !changed("min-size") {
		s.minSize = *file.MinSize
	}

	if file.Depth != nil && !changed("depth") {
		s.options.Depth = *file.Depth
	}

	if file.FileTimeout != nil && !changed("file-timeout") {
		timeout, err := time.ParseDuration(*file.FileTimeout)
		if err != nil {
			return fmt.Errorf("invalid file_timeout: %w", err)
		}

		s.fileTimeout = timeout
	}

	if file.Output != nil && !changed("output") {
		s.output = *file.Output
	}

	return nil
}

// resolve validates the settings and fills the derived options.
func (s *settings) resolve() error {
	if !slices.Contains(allowedOutputs, s.output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", s.output, allowedOutputs)
	}

	if !slices.Contains(diskaudit.HashAlgorithms, diskaudit.HashAlgorithm(s.hash)) {
		return fmt.Errorf("invalid hash %q: must be one of %v", s.hash, diskaudit.HashAlgorithms)
	}

	s.options.Hash = diskaudit.HashAlgorithm(s.hash)

	if s.options.TopK <= 0 {
		return fmt.Errorf("top must be positive, got %d", s.options.TopK)
	}

	if s.options.Depth < 0 {
		return fmt.Errorf("depth cannot be negative, got %d", s.options.Depth)
	}

	if s.minSize != "" {
		size, err := humanize.ParseBytes(s.minSize)
		if err != nil {
			return fmt.Errorf("invalid min-size: %w", err)
		}

		s.options.MinSize = int64(size) //nolint:gosec // Size conversion from humanize is safe
	}

	s.options.FileTimeout = s.fileTimeout

	return nil
}
