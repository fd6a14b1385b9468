package report

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/recfind/internal/core"
)

// TextOptions controls how much of each dataset the text summary shows.
type TextOptions struct {
	PreviewRows   int // Rows shown per dataset (default: 3)
	PreviewFields int // Non-empty fields shown per row (default: 5)
}

// DefaultTextOptions returns the preview limits used by the CLI.
func DefaultTextOptions() TextOptions {
	return TextOptions{PreviewRows: 3, PreviewFields: 5}
}

func (o TextOptions) withDefaults() TextOptions {
	d := DefaultTextOptions()
	if o.PreviewRows <= 0 {
		o.PreviewRows = d.PreviewRows
	}
	if o.PreviewFields <= 0 {
		o.PreviewFields = d.PreviewFields
	}
	return o
}

// FormatText renders outcome as a plain-text terminal summary.
func FormatText(outcome *core.Outcome, opts TextOptions) string {
	opts = opts.withDefaults()
	var b strings.Builder

	switch {
	case outcome.Status == core.StatusNoDatasets:
		b.WriteString("No datasets available. Check the dataset configuration.\n")
		return b.String()
	case outcome.Empty():
		fmt.Fprintf(&b, "Nothing found for %q.\n", outcome.Query)
		writeFailures(&b, outcome.Failures)
		return b.String()
	}

	fmt.Fprintf(&b, "Search results for %q (%s)\n", outcome.Query, outcome.Type)

	for _, d := range outcome.Datasets {
		count := len(d.Rows)
		fmt.Fprintf(&b, "\n%s: found %d\n", d.Name, count)

		for i, row := range d.Rows {
			if i >= opts.PreviewRows {
				break
			}
			fmt.Fprintf(&b, "  %d. %s\n", i+1, formatRow(row, opts.PreviewFields))
		}

		if count > opts.PreviewRows {
			fmt.Fprintf(&b, "  ... and %d more\n", count-opts.PreviewRows)
		}
	}

	fmt.Fprintf(&b, "\nTotal found: %d\n", outcome.Total())
	writeFailures(&b, outcome.Failures)
	return b.String()
}

// formatRow joins up to limit non-empty fields of row as "key: value".
func formatRow(row core.Record, limit int) string {
	parts := make([]string, 0, limit)
	for _, f := range row.Fields() {
		v := strings.TrimSpace(row.Get(f))
		if v == "" {
			continue
		}
		parts = append(parts, f+": "+v)
		if len(parts) == limit {
			break
		}
	}
	return strings.Join(parts, " | ")
}

func writeFailures(b *strings.Builder, failures []core.DatasetFailure) {
	if len(failures) == 0 {
		return
	}
	names := make([]string, len(failures))
	for i, f := range failures {
		names[i] = f.Name
	}
	fmt.Fprintf(b, "Unavailable datasets: %s\n", strings.Join(names, ", "))
}
