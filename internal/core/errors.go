package core

import "errors"

var (
	// ErrNoDatasets is recorded when a search runs with no available dataset.
	ErrNoDatasets = errors.New("no datasets available")

	// ErrEmptyQuery is returned by frontends for a blank query.
	ErrEmptyQuery = errors.New("empty query")

	// ErrUnknownEncoding indicates a dataset encoding label that cannot be resolved.
	ErrUnknownEncoding = errors.New("encoding error: unknown encoding")

	// ErrInvalidSeparator indicates a field separator that is not a single character.
	ErrInvalidSeparator = errors.New("invalid separator: must be a single character")

	// ErrUnknownQueryType indicates a configuration key that is not a query type.
	ErrUnknownQueryType = errors.New("unknown query type")

	// ErrMissingHeader indicates a dataset whose field names could not be read.
	ErrMissingHeader = errors.New("dataset header could not be read")
)
