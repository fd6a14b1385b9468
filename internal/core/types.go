package core

import (
	"fmt"
	"strings"
	"time"
)

// QueryType is the kind of value a query is looking for.
type QueryType string

const (
	QueryPhone QueryType = "phone"
	QueryEmail QueryType = "email"
	QueryName  QueryType = "name"
)

// QueryTypes lists every query type in canonical order.
func QueryTypes() []QueryType {
	return []QueryType{QueryPhone, QueryEmail, QueryName}
}

// String implements fmt.Stringer.
func (t QueryType) String() string {
	return string(t)
}

// ParseQueryType converts a configuration key into a QueryType.
func ParseQueryType(s string) (QueryType, error) {
	switch QueryType(strings.ToLower(strings.TrimSpace(s))) {
	case QueryPhone:
		return QueryPhone, nil
	case QueryEmail:
		return QueryEmail, nil
	case QueryName:
		return QueryName, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownQueryType, s)
	}
}

// Dataset defaults applied when the configuration leaves a value empty.
const (
	DefaultEncoding  = "utf-8"
	DefaultSeparator = ';'
)

// Descriptor describes one delimited-text dataset and the roles of its fields.
// Descriptors are read-only once registered in a Catalog.
type Descriptor struct {
	ID        string // Unique identifier: "phonebook_2019"
	Name      string // Display name: "City phone book"
	File      string // Absolute or working-directory relative path
	Encoding  string // WHATWG encoding label, e.g. "utf-8", "windows-1251"
	Separator rune   // Field delimiter
	HasHeader bool   // First physical row holds field names

	// Columns names the fields of a headerless file. When empty and HasHeader
	// is false, the first physical row is used as the header anyway.
	Columns []string

	// DisplayFields is the projection applied to matching rows, in order.
	DisplayFields []string

	// SearchFields lists the fields tested for each query type.
	SearchFields map[QueryType][]string
}

// separator returns the configured delimiter or the default one.
func (d *Descriptor) separator() rune {
	if d.Separator == 0 {
		return DefaultSeparator
	}
	return d.Separator
}

// encoding returns the configured encoding label or the default one.
func (d *Descriptor) encoding() string {
	if strings.TrimSpace(d.Encoding) == "" {
		return DefaultEncoding
	}
	return d.Encoding
}

// MatchResult is the ordered list of projected rows found in one dataset.
type MatchResult []Record

// ScanStats describes the work done while scanning one dataset.
type ScanStats struct {
	Rows      int   // Data rows read (excluding the header)
	Blank     int   // Rows skipped because every value was blank
	Malformed int   // Rows skipped because they could not be parsed
	Bytes     int64 // Raw bytes consumed from the file
	Truncated bool  // Scan stopped early because the cap was reached
}

// DatasetMatches is the contribution of one dataset to an Outcome.
type DatasetMatches struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	DisplayFields []string    `json:"displayFields,omitempty"`
	Rows          MatchResult `json:"rows"`
}

// DatasetFailure records a dataset that could not be scanned.
type DatasetFailure struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"` // User-facing message, see MapError
	Err    error  `json:"-"`
}

// Error implements the error interface so failures can be logged directly.
func (f DatasetFailure) Error() string {
	return fmt.Sprintf("dataset %s: %v", f.ID, f.Err)
}

// SearchStatus distinguishes the different kinds of empty outcome.
type SearchStatus string

const (
	StatusOK         SearchStatus = "ok"
	StatusNoMatches  SearchStatus = "no_matches"
	StatusNoDatasets SearchStatus = "no_datasets"
)

// Outcome is the result of one search across all datasets.
//
// Datasets holds only datasets with at least one match, in catalog order.
type Outcome struct {
	ID       string           `json:"id"`
	Query    string           `json:"query"`
	Type     QueryType        `json:"type"`
	Status   SearchStatus     `json:"status"`
	Datasets []DatasetMatches `json:"datasets"`
	Failures []DatasetFailure `json:"failures,omitempty"`
	Scanned  int              `json:"scanned"`
	Duration time.Duration    `json:"durationNs"`
}

// Total returns the number of rows across all datasets.
func (o *Outcome) Total() int {
	n := 0
	for _, d := range o.Datasets {
		n += len(d.Rows)
	}
	return n
}

// Lookup returns the matches of a dataset by identifier.
func (o *Outcome) Lookup(id string) (DatasetMatches, bool) {
	for _, d := range o.Datasets {
		if d.ID == id {
			return d, true
		}
	}
	return DatasetMatches{}, false
}

// Empty reports whether nothing was found.
func (o *Outcome) Empty() bool {
	return len(o.Datasets) == 0
}
