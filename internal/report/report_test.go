package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/recfind/internal/core"
)

var fixedTime = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func sampleOutcome() *core.Outcome {
	return &core.Outcome{
		ID:     "3f1c",
		Query:  "89161234567",
		Type:   core.QueryPhone,
		Status: core.StatusOK,
		Datasets: []core.DatasetMatches{
			{
				ID:            "phonebook",
				Name:          "City phone book",
				DisplayFields: []string{"fio", "phone"},
				Rows: core.MatchResult{
					core.RecordOf("fio", "Ivanov Ivan", "phone", "8-916-123-45-67"),
					core.RecordOf("fio", "Petrov <Petr>", "phone", "+7 916 123 45 67"),
				},
			},
			{
				ID:   "clients",
				Name: "Clients",
				Rows: core.MatchResult{
					core.RecordOf("tel", "89161234567", "city", "Moscow"),
					core.RecordOf("tel", "89161234567", "email", "a@b.ru"),
				},
			},
		},
		Failures: []core.DatasetFailure{
			{ID: "old", Name: "Archive 2015", Reason: "The dataset file could not be found."},
		},
		Scanned: 3,
	}
}

func renderHTML(t *testing.T, o *core.Outcome) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, HTML(o, fixedTime).Render(context.Background(), &buf))
	return buf.String()
}

func TestHTML_ContainsSummary(t *testing.T) {
	out := renderHTML(t, sampleOutcome())

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, "<title>Search report: 89161234567</title>")
	assert.Contains(t, out, `data-type="phone">phone</span>`)
	assert.Contains(t, out, `<span class="badge badge-total">4</span>`)
	assert.Contains(t, out, "05.03.2024 14:07:09")
	assert.Contains(t, out, "<h3>City phone book</h3>")
	assert.Contains(t, out, "Found: 2")
	assert.Contains(t, out, `id="dataset_0"`)
	assert.Contains(t, out, `id="dataset_1"`)
	assert.Contains(t, out, "<li><strong>Archive 2015</strong>: The dataset file could not be found.</li>")
	assert.Contains(t, out, "function toggleCollapse(id)")
}

func TestHTML_EscapesValues(t *testing.T) {
	out := renderHTML(t, sampleOutcome())

	assert.Contains(t, out, "Petrov &lt;Petr&gt;")
	assert.NotContains(t, out, "Petrov <Petr>")
}

func TestHTML_ColumnsFromDisplayFields(t *testing.T) {
	out := renderHTML(t, sampleOutcome())

	assert.Contains(t, out, "<th>fio</th><th>phone</th>")
}

func TestHTML_ColumnsFromRowUnion(t *testing.T) {
	out := renderHTML(t, sampleOutcome())

	// Clients has no display fields: union of keys, sorted
	assert.Contains(t, out, "<th>city</th><th>email</th><th>tel</th>")
	assert.Contains(t, out, "<td>Moscow</td><td></td><td>89161234567</td>")
}

func TestHTML_NoFailuresSection(t *testing.T) {
	o := sampleOutcome()
	o.Failures = nil

	out := renderHTML(t, o)
	assert.NotContains(t, out, "Unavailable datasets")
}

func TestFormatText_Results(t *testing.T) {
	o := sampleOutcome()
	o.Datasets[0].Rows = append(o.Datasets[0].Rows,
		core.RecordOf("fio", "Sidorov", "phone", "8 916 123 45 67"),
		core.RecordOf("fio", "Smirnov", "phone", "89161234567"),
	)

	out := FormatText(o, TextOptions{PreviewRows: 3, PreviewFields: 5})

	assert.Contains(t, out, `Search results for "89161234567" (phone)`)
	assert.Contains(t, out, "City phone book: found 4")
	assert.Contains(t, out, "  1. fio: Ivanov Ivan | phone: 8-916-123-45-67")
	assert.Contains(t, out, "  3. fio: Sidorov | phone: 8 916 123 45 67")
	assert.NotContains(t, out, "Smirnov")
	assert.Contains(t, out, "... and 1 more")
	assert.Contains(t, out, "Clients: found 2")
	assert.Contains(t, out, "Total found: 6")
	assert.Contains(t, out, "Unavailable datasets: Archive 2015")
}

func TestFormatText_SkipsEmptyFieldsAndLimits(t *testing.T) {
	o := &core.Outcome{
		Query:  "ivanov",
		Type:   core.QueryName,
		Status: core.StatusOK,
		Datasets: []core.DatasetMatches{{
			Name: "Staff",
			Rows: core.MatchResult{
				core.RecordOf("a", "1", "b", " ", "c", "3", "d", "4"),
			},
		}},
	}

	out := FormatText(o, TextOptions{PreviewFields: 2})
	assert.Contains(t, out, "1. a: 1 | c: 3\n")
}

func TestFormatText_NoMatches(t *testing.T) {
	o := &core.Outcome{Query: "nobody", Type: core.QueryName, Status: core.StatusNoMatches}

	out := FormatText(o, TextOptions{})
	assert.Equal(t, "Nothing found for \"nobody\".\n", out)
}

func TestFormatText_NoDatasets(t *testing.T) {
	o := &core.Outcome{Query: "nobody", Type: core.QueryName, Status: core.StatusNoDatasets}

	out := FormatText(o, TextOptions{})
	assert.Contains(t, out, "No datasets available")
	assert.NotContains(t, out, "Nothing found")
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"plain", "ivanov", "ivanov"},
		{"spaces collapse", "Ivanov   Ivan", "Ivanov-Ivan"},
		{"punctuation removed", "a@b.ru", "abru"},
		{"phone", "+7 (916) 123-45-67", "7-916-123-45-67"},
		{"cyrillic kept", "Иванов Иван", "Иванов-Иван"},
		{"trimmed", "  x  ", "x"},
		{"only symbols", "+()@", ""},
		{"hyphen runs", "a - - b", "a-b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeName(tt.query))
		})
	}
}

func TestSafeName_Truncates(t *testing.T) {
	got := SafeName(strings.Repeat("я", 60))
	assert.Equal(t, 50, len([]rune(got)))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "report_ivanov_20240305_140709.html", FileName("ivanov", fixedTime))
	assert.Equal(t, "report_20240305_140709.html", FileName("@@", fixedTime))
}

func TestSaver_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	s := &Saver{Dir: dir, Now: func() time.Time { return fixedTime }}

	path, err := s.Save(context.Background(), sampleOutcome())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_89161234567_20240305_140709.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "City phone book")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestSaver_EmptyOutcome(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver(dir)

	_, err := s.Save(context.Background(), &core.Outcome{Query: "x", Status: core.StatusNoMatches})
	require.ErrorIs(t, err, ErrEmptyReport)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
