package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/recfind/internal/core"
)

func sampleOutcome() *core.Outcome {
	return &core.Outcome{
		ID:     "7b6f1d3e-3d38-4a8e-9a53-2f1f0f2a9c11",
		Query:  "ivanov",
		Type:   core.QueryName,
		Status: core.StatusOK,
		Datasets: []core.DatasetMatches{
			{ID: "a", Rows: core.MatchResult{core.RecordOf("fio", "Ivanov"), core.RecordOf("fio", "Ivanova")}},
			{ID: "b", Rows: core.MatchResult{core.RecordOf("fio", "Ivanov I.")}},
		},
		Failures: []core.DatasetFailure{{ID: "c", Name: "C"}},
		Scanned:  3,
		Duration: 1500 * time.Millisecond,
	}
}

type memorySink struct {
	entries []Entry
	err     error
}

func (m *memorySink) Record(_ context.Context, e Entry) error {
	m.entries = append(m.entries, e)
	return m.err
}

func TestNewEntry(t *testing.T) {
	ctx := core.ContextWithIPAddress(context.Background(), "10.0.0.1")
	ctx = core.ContextWithUserAgent(ctx, "curl/8.0")
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	e := NewEntry(ctx, sampleOutcome(), now)

	assert.Equal(t, "7b6f1d3e-3d38-4a8e-9a53-2f1f0f2a9c11", e.ID)
	assert.Equal(t, "ivanov", e.Query)
	assert.Equal(t, core.QueryName, e.QueryType)
	assert.Equal(t, core.StatusOK, e.Status)
	assert.Equal(t, 3, e.Datasets)
	assert.Equal(t, 3, e.Matches)
	assert.Equal(t, 1, e.Failed)
	assert.Equal(t, 1500*time.Millisecond, e.Duration)
	assert.Equal(t, "10.0.0.1", e.IPAddress)
	assert.Equal(t, "curl/8.0", e.UserAgent)
	assert.Equal(t, now, e.CreatedAt)
}

func TestRecorder_RecordSearch(t *testing.T) {
	sink := &memorySink{}
	r := NewRecorder(sink)

	require.NoError(t, r.RecordSearch(context.Background(), sampleOutcome()))
	require.Len(t, sink.entries, 1)
	assert.Equal(t, "ivanov", sink.entries[0].Query)
	assert.False(t, sink.entries[0].CreatedAt.IsZero())
}

func TestRecorder_PropagatesSinkError(t *testing.T) {
	want := errors.New("db down")
	r := NewRecorder(&memorySink{err: want})

	err := r.RecordSearch(context.Background(), sampleOutcome())
	assert.ErrorIs(t, err, want)
}

func TestRecorder_ImplementsAuditSink(t *testing.T) {
	var _ core.AuditSink = NewRecorder(NopSink{})
}

func TestLogSink_Record(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	e := NewEntry(core.ContextWithIPAddress(context.Background(), "10.0.0.9"), sampleOutcome(), time.Now())
	require.NoError(t, sink.Record(context.Background(), e))

	out := buf.String()
	assert.Contains(t, out, "msg=search")
	assert.Contains(t, out, "query_type=name")
	assert.Contains(t, out, "matches=3")
	assert.Contains(t, out, "ip=10.0.0.9")
	assert.NotContains(t, out, "ivanov", "query text stays out of the log")
}

func TestNopSink(t *testing.T) {
	assert.NoError(t, NopSink{}.Record(context.Background(), Entry{}))
}
