package dataset

import "errors"

var (
	// ErrInvalidConfig wraps every problem found in a dataset configuration file.
	ErrInvalidConfig = errors.New("invalid dataset configuration")

	// ErrDuplicateDataset is returned when two datasets share an identifier.
	ErrDuplicateDataset = errors.New("duplicate dataset id")

	// ErrDatasetNotFound is returned for an unknown dataset identifier.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrUnsupportedFormat is returned for configuration files that are neither YAML nor JSON.
	ErrUnsupportedFormat = errors.New("unsupported configuration file type")
)
