package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/JonMunkholm/recfind/internal/core"
)

// ErrEmptyReport is returned when saving an outcome with no matches.
var ErrEmptyReport = errors.New("no results to report")

// maxQueryRunes bounds the query part of a report file name.
const maxQueryRunes = 50

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separators  = regexp.MustCompile(`[-\s]+`)
)

// Saver writes HTML reports into a directory.
type Saver struct {
	Dir string
	Now func() time.Time
}

// NewSaver creates a Saver writing into dir.
func NewSaver(dir string) *Saver {
	return &Saver{Dir: dir, Now: time.Now}
}

// Save renders outcome and writes it into the report directory, returning
// the path of the new file.
func (s *Saver) Save(ctx context.Context, outcome *core.Outcome) (string, error) {
	if outcome == nil || outcome.Empty() {
		return "", ErrEmptyReport
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := HTML(outcome, now).Render(ctx, tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("render report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	path := filepath.Join(s.Dir, FileName(outcome.Query, now))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

// SafeName reduces a query to a file-name fragment: anything but letters,
// digits, underscores, spaces and hyphens is removed, the result is cut to
// 50 runes and trimmed, and runs of spaces and hyphens become one hyphen.
func SafeName(query string) string {
	s := unsafeChars.ReplaceAllString(query, "")
	if r := []rune(s); len(r) > maxQueryRunes {
		s = string(r[:maxQueryRunes])
	}
	s = strings.TrimSpace(s)
	return separators.ReplaceAllString(s, "-")
}

// FileName returns the report file name for query at t.
func FileName(query string, t time.Time) string {
	ts := t.Format("20060102_150405")
	if safe := SafeName(query); safe != "" {
		return "report_" + safe + "_" + ts + ".html"
	}
	return "report_" + ts + ".html"
}
