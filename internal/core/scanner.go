package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ContextCheckInterval is how often (in rows) a scan checks for cancellation.
var ContextCheckInterval = 100

// Scan reads the dataset described by d and returns, in file order, the
// projections of the first limit rows that match query under type t.
// With limit <= 0 the file is not read and no rows are returned.
//
// Rows that cannot be parsed are skipped and counted in ScanStats.Malformed;
// undecodable bytes become U+FFFD. An error is returned only when the file
// cannot be opened or read, its encoding is unknown, or ctx is done.
func Scan(ctx context.Context, d *Descriptor, query string, t QueryType, limit int) (MatchResult, ScanStats, error) {
	var stats ScanStats
	if limit <= 0 {
		return nil, stats, nil
	}

	f, err := os.Open(d.File)
	if err != nil {
		return nil, stats, fmt.Errorf("open dataset %s: %w", d.ID, err)
	}
	defer f.Close()

	src, counter, err := NewDatasetReader(f, d.encoding())
	if err != nil {
		return nil, stats, fmt.Errorf("dataset %s: %w", d.ID, err)
	}

	r := csv.NewReader(src)
	r.Comma = d.separator()
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := readHeader(r, d)
	if err != nil {
		stats.Bytes = counter.BytesRead
		if errors.Is(err, io.EOF) {
			return nil, stats, nil
		}
		return nil, stats, fmt.Errorf("dataset %s: %w", d.ID, err)
	}

	m := newMatcher(query, t, SearchFields(d, t))
	var results MatchResult

	for line := 0; ; line++ {
		if line%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, fmt.Errorf("scan %s cancelled at row %d: %w", d.ID, stats.Rows, err)
			}
		}

		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Malformed++
				continue
			}
			return nil, stats, fmt.Errorf("read dataset %s: %w", d.ID, err)
		}
		stats.Rows++

		if isBlankRow(fields) {
			stats.Blank++
			continue
		}

		row := buildRecord(header, fields)
		if !m.match(row) {
			continue
		}

		results = append(results, Project(row, d.DisplayFields))
		if len(results) >= limit {
			stats.Truncated = true
			break
		}
	}

	stats.Bytes = counter.BytesRead
	return results, stats, nil
}

// readHeader returns the field names of the dataset. Without a header row
// the configured columns are used, falling back to the first physical row.
func readHeader(r *csv.Reader, d *Descriptor) ([]string, error) {
	if !d.HasHeader && len(d.Columns) > 0 {
		return d.Columns, nil
	}

	first, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMissingHeader, err)
	}

	// The reader reuses its record slice.
	header := make([]string, len(first))
	copy(header, first)
	return header, nil
}

// isBlankRow reports whether no value in the row is non-blank.
func isBlankRow(fields []string) bool {
	for _, v := range fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// buildRecord maps a parsed row onto header. Short rows leave the remaining
// fields empty; values beyond the header are dropped.
func buildRecord(header, fields []string) Record {
	row := NewRecord(len(header))
	for i, name := range header {
		v := ""
		if i < len(fields) {
			v = fields[i]
		}
		row.Set(name, v)
	}
	return row
}
