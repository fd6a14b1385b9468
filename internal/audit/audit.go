// Package audit records every search for later review.
//
// Sinks:
//   - NopSink: drops entries
//   - LogSink: writes one structured log line per search
//   - PostgresSink: inserts into the search_audit table
//
// Recorder adapts a Sink to core.AuditSink so the search service can use it.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/recfind/internal/core"
)

// Entry is one audited search.
type Entry struct {
	ID        string            `json:"id"`
	Query     string            `json:"query"`
	QueryType core.QueryType    `json:"queryType"`
	Status    core.SearchStatus `json:"status"`
	Datasets  int               `json:"datasets"` // Datasets scanned
	Matches   int               `json:"matches"`
	Failed    int               `json:"failed"` // Datasets that could not be scanned
	Duration  time.Duration     `json:"durationNs"`
	IPAddress string            `json:"ipAddress,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewEntry builds the audit entry for outcome. Request metadata is taken
// from ctx when present.
func NewEntry(ctx context.Context, outcome *core.Outcome, now time.Time) Entry {
	return Entry{
		ID:        outcome.ID,
		Query:     outcome.Query,
		QueryType: outcome.Type,
		Status:    outcome.Status,
		Datasets:  outcome.Scanned,
		Matches:   outcome.Total(),
		Failed:    len(outcome.Failures),
		Duration:  outcome.Duration,
		IPAddress: core.IPAddressFromContext(ctx),
		UserAgent: core.UserAgentFromContext(ctx),
		CreatedAt: now,
	}
}

// Sink stores audit entries.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// Recorder turns completed searches into audit entries.
type Recorder struct {
	sink Sink
	now  func() time.Time
}

// NewRecorder creates a Recorder writing to sink.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink, now: time.Now}
}

// RecordSearch implements core.AuditSink.
func (r *Recorder) RecordSearch(ctx context.Context, outcome *core.Outcome) error {
	return r.sink.Record(ctx, NewEntry(ctx, outcome, r.now().UTC()))
}

// NopSink discards every entry.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(context.Context, Entry) error { return nil }

// LogSink writes entries to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record implements Sink.
func (s *LogSink) Record(ctx context.Context, e Entry) error {
	attrs := []any{
		"search_id", e.ID,
		"query_type", e.QueryType,
		"status", e.Status,
		"datasets", e.Datasets,
		"matches", e.Matches,
		"failed", e.Failed,
		"duration_ms", e.Duration.Milliseconds(),
	}
	if e.IPAddress != "" {
		attrs = append(attrs, "ip", e.IPAddress)
	}
	s.logger.InfoContext(ctx, "search", attrs...)
	return nil
}
