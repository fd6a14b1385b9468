package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/JonMunkholm/recfind/internal/core"
)

// Catalog holds the configured datasets in configuration order.
//
// Descriptors are read-only once the catalog is built. Availability, whether
// the dataset file exists, is checked at construction and on Refresh.
type Catalog struct {
	datasets []*core.Descriptor
	byID     map[string]*core.Descriptor
	logger   *slog.Logger

	mu        sync.RWMutex
	available map[string]bool
}

// Entry pairs a descriptor with its availability for listings.
type Entry struct {
	*core.Descriptor
	Available bool
}

// Load reads the configuration file at path and builds a catalog from it.
func Load(path, baseDir string, logger *slog.Logger) (*Catalog, error) {
	descs, err := LoadFile(path, baseDir)
	if err != nil {
		return nil, err
	}
	return NewCatalog(descs, logger)
}

// NewCatalog builds a catalog over descs. Identifiers must be unique.
func NewCatalog(descs []*core.Descriptor, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Catalog{
		datasets:  make([]*core.Descriptor, 0, len(descs)),
		byID:      make(map[string]*core.Descriptor, len(descs)),
		logger:    logger,
		available: make(map[string]bool, len(descs)),
	}

	for _, d := range descs {
		if _, exists := c.byID[d.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDataset, d.ID)
		}
		c.byID[d.ID] = d
		c.datasets = append(c.datasets, d)
	}

	c.Refresh()
	return c, nil
}

// Refresh re-checks which dataset files exist. Missing files are logged and
// left out of Available until they appear.
func (c *Catalog) Refresh() {
	available := make(map[string]bool, len(c.datasets))
	for _, d := range c.datasets {
		info, err := os.Stat(d.File)
		switch {
		case err != nil:
			c.logger.Warn("dataset file not found, skipping",
				"dataset", d.ID,
				"file", d.File,
				"error", err,
			)
		case info.IsDir():
			c.logger.Warn("dataset path is a directory, skipping",
				"dataset", d.ID,
				"file", d.File,
			)
		default:
			available[d.ID] = true
		}
	}

	c.mu.Lock()
	c.available = available
	c.mu.Unlock()

	c.logger.Debug("dataset catalog refreshed",
		"configured", len(c.datasets),
		"available", len(available),
	)
}

// Available returns the datasets whose file was found, in configuration order.
func (c *Catalog) Available() []*core.Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*core.Descriptor, 0, len(c.available))
	for _, d := range c.datasets {
		if c.available[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// All returns every configured dataset in configuration order.
func (c *Catalog) All() []*core.Descriptor {
	out := make([]*core.Descriptor, len(c.datasets))
	copy(out, c.datasets)
	return out
}

// Entries returns every configured dataset with its availability.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, len(c.datasets))
	for i, d := range c.datasets {
		out[i] = Entry{Descriptor: d, Available: c.available[d.ID]}
	}
	return out
}

// Get returns a dataset by identifier.
func (c *Catalog) Get(id string) (*core.Descriptor, error) {
	d, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return d, nil
}

// Len returns the number of configured datasets.
func (c *Catalog) Len() int {
	return len(c.datasets)
}

// AvailableCount returns the number of datasets whose file was found.
func (c *Catalog) AvailableCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.available)
}
