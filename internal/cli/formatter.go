package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/idelchi/diskaudit/internal/diskaudit"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2

	mebibyte = 1024 * 1024
)

//nolint:gochecknoglobals // Style constant
var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// heading renders a section title, styled for terminals.
func heading(title string, styled bool) string {
	if styled {
		return headerStyle.Render(title)
	}

	return title
}

// categoryName returns the display name of a category.
func categoryName(category string) string {
	if category == diskaudit.NoExtension {
		return "No Extension"
	}

	return category
}

// megabytes formats a byte count as MB with two decimals.
func megabytes(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/mebibyte)
}

// PrintJSON outputs the report in JSON format.
func PrintJSON(report *diskaudit.Report, writer io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintYAML outputs the report in YAML format.
func PrintYAML(report *diskaudit.Report, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)

	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encoding YAML output: %w", err)
	}

	return encoder.Close()
}

// PrintText outputs the report in the plain sectioned format: usage per
// category (largest first), duplicate groups by hash, and the largest files,
// sizes in MB.
//
//nolint:forbidigo // This function prints output to the console.
func PrintText(report *diskaudit.Report, writer io.Writer, styled bool) error {
	fmt.Fprintf(writer, "\n%s\n", heading("--- File Types and Storage Usage ---", styled))

	for _, category := range report.CategoryUsage.Categories() {
		fmt.Fprintf(writer, "%s: %s\n", categoryName(category), megabytes(report.CategoryUsage[category]))
	}

	fmt.Fprintf(writer, "\n%s\n", heading("--- Duplicate Files ---", styled))

	if len(report.Duplicates) == 0 {
		fmt.Fprintln(writer, "No duplicate files found.")
	}

	for _, group := range report.Duplicates {
		fmt.Fprintf(writer, "\nHash: %s\n", group.Digest)

		for _, path := range group.Paths {
			fmt.Fprintf(writer, "  %s\n", path)
		}
	}

	fmt.Fprintf(writer, "\n%s\n", heading(fmt.Sprintf("--- Top %d Largest Files ---", report.TopK), styled))

	for _, file := range report.TopFiles {
		fmt.Fprintf(writer, "%s: %s\n", file.Path, megabytes(file.Size))
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(writer, "\n%s\n", heading("--- Skipped Files ---", styled))

		for _, warning := range report.Warnings {
			fmt.Fprintf(writer, "%s: %s\n", warning.Path, warning.Message)
		}
	}

	return nil
}

// PrintTable outputs the report in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(report *diskaudit.Report, writer io.Writer, styled bool) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	percent := func(size int64) float64 {
		if report.TotalBytes == 0 {
			return 0
		}

		return 100.0 * float64(size) / float64(report.TotalBytes)
	}

	fmt.Fprintf(w, "\n%s\t\t\n", heading("Usage by extension:", styled))

	for i, category := range report.CategoryUsage.Categories() {
		size := report.CategoryUsage[category]
		fmt.Fprintf(w, "  %d) %s:\t%s (%.1f%%)\n",
			i+1, categoryName(category), humanize.IBytes(uint64(size)), percent(size)) //nolint:gosec // Size is never negative
	}

	fmt.Fprintf(w, "\n%s\t\t\n", heading("Duplicate groups:", styled))

	for i, group := range report.Duplicates {
		fmt.Fprintf(w, "  %d) %s\t%d copies, %s each, %s reclaimable\n",
			i+1, group.Digest, len(group.Paths),
			humanize.IBytes(uint64(group.Size)), humanize.IBytes(uint64(group.Wasted()))) //nolint:gosec // Size is never negative

		for _, path := range group.Paths {
			fmt.Fprintf(w, "     '%s'\t\n", path)
		}
	}

	fmt.Fprintf(w, "\n%s\t\t\n", heading("Top files:", styled))

	for i, file := range report.TopFiles {
		fmt.Fprintf(w, "  %d) '%s'\t%s (%.1f%%)\n",
			i+1, file.Path, humanize.IBytes(uint64(file.Size)), percent(file.Size)) //nolint:gosec // Size is never negative
	}

	fmt.Fprintf(w, "\n%s\t\t\n", heading("Stats:", styled))
	fmt.Fprintf(w, "Total files:\t%d\n", report.FileCount)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n",
		humanize.IBytes(uint64(report.TotalBytes)), report.TotalBytes) //nolint:gosec // Size is never negative
	fmt.Fprintf(w, "Reclaimable:\t%s\n", humanize.IBytes(uint64(report.Wasted()))) //nolint:gosec // Size is never negative
	fmt.Fprintf(w, "Skipped:\t%d\n", len(report.Warnings))

	fmt.Fprintf(w, "\nElapsed:\t%v\n", report.Elapsed)

	return w.Flush()
}
