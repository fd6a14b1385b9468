package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/recfind/internal/core"
)

// File is the on-disk shape of a dataset configuration file.
type File struct {
	Datasets []Spec `yaml:"datasets" json:"datasets" validate:"dive"`
}

// Spec configures one dataset.
type Spec struct {
	ID            string              `yaml:"id" json:"id" validate:"required,max=64"`
	Name          string              `yaml:"name" json:"name"`
	File          string              `yaml:"file" json:"file" validate:"required"`
	Encoding      string              `yaml:"encoding" json:"encoding"`
	Separator     string              `yaml:"separator" json:"separator"`
	HasHeader     *bool               `yaml:"has_header" json:"has_header"`
	Columns       []string            `yaml:"columns" json:"columns" validate:"dive,required"`
	DisplayFields []string            `yaml:"display_fields" json:"display_fields" validate:"dive,required"`
	SearchFields  map[string][]string `yaml:"search_fields" json:"search_fields" validate:"dive,keys,oneof=phone email name,endkeys,dive,required"`
}

// LoadFile reads, validates and resolves a dataset configuration file.
//
// Relative dataset paths are resolved against baseDir, or against the
// directory of the configuration file when baseDir is empty. Every problem in
// the file is reported in a single error wrapping ErrInvalidConfig.
func LoadFile(path, baseDir string) ([]*core.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset config: %w", err)
	}

	var f File
	if err := decode(path, data, &f); err != nil {
		return nil, err
	}

	if baseDir == "" {
		baseDir = filepath.Dir(path)
	}
	return f.Descriptors(baseDir)
}

// decode parses data as YAML or JSON depending on the extension of path.
// Unknown keys are rejected so that typos do not silently drop settings.
func decode(path string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("%w: invalid yaml: %w", ErrInvalidConfig, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("%w: invalid json: %w", ErrInvalidConfig, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// Descriptors validates f and converts it into descriptors in file order.
func (f *File) Descriptors(baseDir string) ([]*core.Descriptor, error) {
	if err := validateStruct(f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var problems []string
	seen := make(map[string]bool, len(f.Datasets))
	out := make([]*core.Descriptor, 0, len(f.Datasets))

	for i, spec := range f.Datasets {
		if seen[spec.ID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDataset, spec.ID)
		}
		seen[spec.ID] = true

		d, errs := spec.descriptor(baseDir)
		for _, e := range errs {
			problems = append(problems, fmt.Sprintf("datasets[%d] (%s): %v", i, spec.ID, e))
		}
		out = append(out, d)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(problems, "\n  - "))
	}
	return out, nil
}

// descriptor applies defaults and converts s, returning every problem found.
func (s Spec) descriptor(baseDir string) (*core.Descriptor, []error) {
	var errs []error

	d := &core.Descriptor{
		ID:            s.ID,
		Name:          s.Name,
		File:          s.File,
		Encoding:      strings.TrimSpace(s.Encoding),
		HasHeader:     true,
		Columns:       s.Columns,
		DisplayFields: s.DisplayFields,
		SearchFields:  make(map[core.QueryType][]string, len(s.SearchFields)),
	}
	if d.Name == "" {
		d.Name = s.ID
	}
	if s.HasHeader != nil {
		d.HasHeader = *s.HasHeader
	}
	if d.Encoding == "" {
		d.Encoding = core.DefaultEncoding
	}
	if !filepath.IsAbs(d.File) {
		d.File = filepath.Join(baseDir, d.File)
	}

	sep, err := parseSeparator(s.Separator)
	if err != nil {
		errs = append(errs, err)
	}
	d.Separator = sep

	if _, err := core.LookupEncoding(d.Encoding); err != nil {
		errs = append(errs, err)
	}

	// Keys were checked by the validator
	for _, qt := range core.QueryTypes() {
		if fields, ok := s.SearchFields[qt.String()]; ok {
			d.SearchFields[qt] = fields
		}
	}

	return d, errs
}

// parseSeparator accepts a single character, or "tab" / "\t" for a tab.
func parseSeparator(s string) (rune, error) {
	switch s {
	case "":
		return core.DefaultSeparator, nil
	case "tab", `\t`:
		return '\t', nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidSeparator, s)
	}
	switch r {
	case '"', '\r', '\n':
		return 0, fmt.Errorf("%w: %q cannot be used", core.ErrInvalidSeparator, s)
	}
	return r, nil
}
