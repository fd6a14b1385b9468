// Package shell implements the interactive lookup prompt.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/recfind/internal/core"
	"github.com/JonMunkholm/recfind/internal/report"
)

// Searcher runs searches over the loaded datasets.
type Searcher interface {
	Search(ctx context.Context, query string) (*core.Outcome, error)
	Datasets() []*core.Descriptor
}

// ReportSaver writes an HTML report and returns its path.
type ReportSaver interface {
	Save(ctx context.Context, outcome *core.Outcome) (string, error)
}

// Shell reads queries line by line and prints a summary of each search.
// An empty line or end of input ends the session.
type Shell struct {
	searcher Searcher
	saver    ReportSaver
	text     report.TextOptions

	in  *bufio.Scanner
	out io.Writer
}

// New creates a Shell reading from in and writing to out.
func New(searcher Searcher, saver ReportSaver, text report.TextOptions, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		searcher: searcher,
		saver:    saver,
		text:     text,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run drives the session until the user exits, input ends or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	n := len(s.searcher.Datasets())
	s.printf("Datasets loaded: %d\n", n)
	if n == 0 {
		s.printf("No datasets found. Check the dataset configuration.\n")
		return nil
	}

	s.printf("\nEnter a phone number, full name or email to search.\n")
	s.printf("Empty input exits.\n\n")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		query, ok := s.prompt("Query: ")
		if !ok {
			s.printf("\nExit.\n")
			return s.in.Err()
		}
		if query == "" {
			s.printf("Exit.\n")
			return nil
		}

		outcome, err := s.searcher.Search(ctx, query)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return err
			}
			s.printf("%s\n\n", core.FormatUserError(err))
			continue
		}

		s.printf("\n%s\n", report.FormatText(outcome, s.text))

		answer, ok := s.prompt("Save HTML report? [y/N]: ")
		if !ok {
			s.printf("\nExit.\n")
			return s.in.Err()
		}
		if strings.EqualFold(answer, "y") {
			s.saveReport(ctx, outcome)
		}
		s.printf("\n")
	}
}

func (s *Shell) saveReport(ctx context.Context, outcome *core.Outcome) {
	if outcome.Empty() {
		s.printf("No results to put in an HTML report.\n")
		return
	}

	for _, d := range outcome.Datasets {
		s.printf("  %s: %d records\n", d.Name, len(d.Rows))
	}

	path, err := s.saver.Save(ctx, outcome)
	if err != nil {
		s.printf("Failed to generate the HTML report: %v\n", err)
		return
	}
	s.printf("HTML report saved: %s\n", path)
}

// prompt writes label and reads one trimmed line. It returns false at end of input.
func (s *Shell) prompt(label string) (string, bool) {
	s.printf("%s", label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
