package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// DefaultCap is the maximum number of matches kept per dataset.
const DefaultCap = 50

// DatasetSource supplies the datasets a search runs over, in the order their
// results are reported.
type DatasetSource interface {
	Available() []*Descriptor
}

// AuditSink receives every completed search.
type AuditSink interface {
	RecordSearch(ctx context.Context, outcome *Outcome) error
}

// Service classifies queries and runs them over a set of datasets.
// It holds no per-search state and is safe for concurrent use.
type Service struct {
	datasets   DatasetSource
	classifier Classifier
	defaultCap int
	workers    int
	pool       *ants.Pool
	audit      AuditSink
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets the logger used for per-dataset failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithClassifier replaces the default classification thresholds.
func WithClassifier(c Classifier) Option {
	return func(s *Service) error {
		s.classifier = c
		return nil
	}
}

// WithDefaultCap sets the per-dataset cap used by Search.
func WithDefaultCap(n int) Option {
	return func(s *Service) error {
		if n > 0 {
			s.defaultCap = n
		}
		return nil
	}
}

// WithWorkers scans up to n datasets at once. With n <= 1 datasets are
// scanned one after another.
func WithWorkers(n int) Option {
	return func(s *Service) error {
		s.workers = n
		return nil
	}
}

// WithAuditSink forwards every completed search to sink.
func WithAuditSink(sink AuditSink) Option {
	return func(s *Service) error {
		s.audit = sink
		return nil
	}
}

// NewService creates a Service over datasets.
func NewService(datasets DatasetSource, opts ...Option) (*Service, error) {
	s := &Service{
		datasets:   datasets,
		classifier: DefaultClassifier(),
		defaultCap: DefaultCap,
		workers:    1,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.workers > 1 {
		pool, err := ants.NewPool(s.workers)
		if err != nil {
			return nil, fmt.Errorf("create scan pool: %w", err)
		}
		s.pool = pool
	}

	return s, nil
}

// Close releases the scan pool, if any.
func (s *Service) Close() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Classify returns the type the service assigns to query.
func (s *Service) Classify(query string) QueryType {
	return s.classifier.Classify(query)
}

// Datasets returns the datasets a search runs over.
func (s *Service) Datasets() []*Descriptor {
	return s.datasets.Available()
}

// Search runs query over every available dataset with the default cap.
func (s *Service) Search(ctx context.Context, query string) (*Outcome, error) {
	return s.SearchWithCap(ctx, query, 0)
}

// SearchWithCap runs query over every available dataset, keeping at most
// limit matches per dataset (the default cap when limit <= 0).
//
// A dataset that cannot be scanned is logged, recorded in Outcome.Failures
// and contributes no matches. The only error returned is the cancellation
// of ctx.
func (s *Service) SearchWithCap(ctx context.Context, query string, limit int) (*Outcome, error) {
	start := time.Now()
	if limit <= 0 {
		limit = s.defaultCap
	}

	outcome := &Outcome{
		ID:       uuid.New().String(),
		Query:    query,
		Type:     s.classifier.Classify(query),
		Datasets: []DatasetMatches{},
	}

	datasets := s.datasets.Available()
	if len(datasets) == 0 {
		s.logger.Warn("search with no datasets available", "query_type", outcome.Type)
		outcome.Status = StatusNoDatasets
		outcome.Duration = time.Since(start)
		s.record(ctx, outcome)
		return outcome, nil
	}

	results := s.scanAll(ctx, datasets, query, outcome.Type, limit)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, d := range datasets {
		res := results[i]
		outcome.Scanned++

		if res.err != nil {
			s.logger.Error("dataset scan failed",
				"dataset", d.ID,
				"file", d.File,
				"error", res.err,
			)
			outcome.Failures = append(outcome.Failures, DatasetFailure{
				ID:     d.ID,
				Name:   d.Name,
				Reason: MapError(res.err).Message,
				Err:    res.err,
			})
			continue
		}

		if res.stats.Malformed > 0 {
			s.logger.Warn("skipped malformed rows",
				"dataset", d.ID,
				"malformed", res.stats.Malformed,
			)
		}

		if len(res.matches) == 0 {
			continue
		}
		outcome.Datasets = append(outcome.Datasets, DatasetMatches{
			ID:            d.ID,
			Name:          d.Name,
			DisplayFields: d.DisplayFields,
			Rows:          res.matches,
		})
	}

	outcome.Status = StatusOK
	if outcome.Empty() {
		outcome.Status = StatusNoMatches
	}
	outcome.Duration = time.Since(start)

	s.logger.Debug("search completed",
		"search_id", outcome.ID,
		"query_type", outcome.Type,
		"datasets", outcome.Scanned,
		"matches", outcome.Total(),
		"failures", len(outcome.Failures),
		"duration", outcome.Duration,
	)

	s.record(ctx, outcome)
	return outcome, nil
}

// scanDataset is the scan run for each dataset; tests replace it.
var scanDataset = Scan

// scanResult is the result or error of one dataset scan.
type scanResult struct {
	matches MatchResult
	stats   ScanStats
	err     error
}

// scanAll scans every dataset and returns the results indexed like datasets.
func (s *Service) scanAll(ctx context.Context, datasets []*Descriptor, query string, t QueryType, limit int) []scanResult {
	results := make([]scanResult, len(datasets))

	scan := func(i int) {
		defer func() {
			if r := recover(); r != nil {
				results[i] = scanResult{err: fmt.Errorf("scan %s panicked: %v", datasets[i].ID, r)}
			}
		}()
		matches, stats, err := scanDataset(ctx, datasets[i], query, t, limit)
		results[i] = scanResult{matches: matches, stats: stats, err: err}
	}

	if s.pool == nil || len(datasets) == 1 {
		for i := range datasets {
			if ctx.Err() != nil {
				break
			}
			scan(i)
		}
		return results
	}

	var wg sync.WaitGroup
	for i := range datasets {
		i := i // per-iteration copy; go.mod targets go 1.21
		wg.Add(1)
		task := func() {
			defer wg.Done()
			scan(i)
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool closed or overloaded; scan inline
			task()
		}
	}
	wg.Wait()

	return results
}

// record forwards outcome to the audit sink. Sink failures never fail the search.
func (s *Service) record(ctx context.Context, outcome *Outcome) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordSearch(ctx, outcome); err != nil {
		s.logger.Warn("failed to record search",
			"search_id", outcome.ID,
			"error", err,
		)
	}
}
