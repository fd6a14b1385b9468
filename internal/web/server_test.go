package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/recfind/internal/audit"
	"github.com/JonMunkholm/recfind/internal/config"
	"github.com/JonMunkholm/recfind/internal/core"
	"github.com/JonMunkholm/recfind/internal/dataset"
	"github.com/JonMunkholm/recfind/internal/logging"
)

const phoneBookCSV = "fio;phone;email\n" +
	"Ivanov Ivan;8-916-123-45-67;ivan@example.com\n" +
	"Petrov Petr;+7 903 555 11 22;petr@example.com\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, WriteTimeout: 5 * time.Second},
		Search: config.SearchConfig{
			MaxConcurrent: 2,
			MaxWaitTime:   100 * time.Millisecond,
			Timeout:       5 * time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

type fakeAuditLog struct {
	filter audit.Filter
	page   *audit.Page
	err    error
}

func (f *fakeAuditLog) List(_ context.Context, filter audit.Filter) (*audit.Page, error) {
	f.filter = filter
	return f.page, f.err
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "book.csv")
	require.NoError(t, os.WriteFile(path, []byte(phoneBookCSV), 0o644))

	descs := []*core.Descriptor{
		{
			ID:            "book",
			Name:          "Phone book",
			File:          path,
			HasHeader:     true,
			DisplayFields: []string{"fio", "phone"},
			SearchFields: map[core.QueryType][]string{
				core.QueryPhone: {"phone"},
				core.QueryEmail: {"email"},
				core.QueryName:  {"fio"},
			},
		},
		{ID: "gone", Name: "Missing", File: filepath.Join(dir, "missing.csv"), HasHeader: true},
	}

	catalog, err := dataset.NewCatalog(descs, logging.Discard())
	require.NoError(t, err)

	svc, err := core.NewService(catalog, core.WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	s := NewServer(svc, catalog, cfg, opts...)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func get(t *testing.T, s *Server, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Datasets)
	assert.Equal(t, 1, resp.AvailableDatasets)
	assert.Equal(t, 2, resp.Search.MaxConcurrent)
	assert.Equal(t, 0, resp.Search.Active)
}

func TestListDatasets(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/datasets")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "book", got[0].ID)
	assert.True(t, got[0].Available)
	assert.Equal(t, "gone", got[1].ID)
	assert.False(t, got[1].Available)
}

func TestClassify(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/classify?q=ivan%40example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var got ClassifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, core.QueryEmail, got.Type)
}

func TestSearch_Phone(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/search?q=8+916+123+45+67")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got struct {
		Query    string `json:"query"`
		Type     string `json:"type"`
		Status   string `json:"status"`
		Datasets []struct {
			ID   string              `json:"id"`
			Rows []map[string]string `json:"rows"`
		} `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "phone", got.Type)
	assert.Equal(t, "ok", got.Status)
	require.Len(t, got.Datasets, 1)
	require.Len(t, got.Datasets[0].Rows, 1)
	assert.Equal(t, "Ivanov Ivan", got.Datasets[0].Rows[0]["fio"])
	_, hasEmail := got.Datasets[0].Rows[0]["email"]
	assert.False(t, hasEmail, "rows are projected onto display fields")
}

func TestSearch_NoMatches(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/search?q=nobody%40nowhere.org")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"no_matches"`)
}

func TestSearch_EmptyQuery(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/search?q=++")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SRCH002", resp.Code)
}

func TestSearch_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Search.MaxConcurrent = 1
	s := newTestServer(t, cfg)

	require.NoError(t, s.Limiter().Acquire(context.Background()))
	defer s.Limiter().Release()

	rec := get(t, s, "/api/search?q=ivanov")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "SRCH001")
}

func TestSearch_SharedScanSurvivesLeaderCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Search.MaxConcurrent = 1
	cfg.Search.MaxWaitTime = 5 * time.Second
	s := newTestServer(t, cfg)

	// Hold the only slot so the shared scan waits in the limiter
	require.True(t, s.Limiter().TryAcquire())

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderReq := httptest.NewRequest(http.MethodGet, "/api/search?q=ivanov", nil).WithContext(leaderCtx)
	followerReq := httptest.NewRequest(http.MethodGet, "/api/search?q=ivanov", nil)

	leaderErr := make(chan error, 1)
	go func() {
		_, err := s.runSearch(leaderReq, "ivanov", 0)
		leaderErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	type result struct {
		outcome *core.Outcome
		err     error
	}
	followerRes := make(chan result, 1)
	go func() {
		o, err := s.runSearch(followerReq, "ivanov", 0)
		followerRes <- result{o, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled request did not return")
	}

	s.Limiter().Release()

	select {
	case res := <-followerRes:
		require.NoError(t, res.err)
		assert.Equal(t, 1, res.outcome.Total())
	case <-time.After(4 * time.Second):
		t.Fatal("waiting request did not get the shared outcome")
	}
}

func TestSearch_NoMatchesSerializesEmptyDatasets(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/search?q=nobody@example.org")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"datasets":[]`)
	assert.NotContains(t, rec.Body.String(), `"datasets":null`)
}

func TestReport(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/report?q=Ivanov")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!doctype html>"))
	assert.Contains(t, body, "<h3>Phone book</h3>")
	assert.Contains(t, body, "<td>Ivanov Ivan</td>")
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestReport_EmptyQueryIsPlainText(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/report")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "(SRCH002)")
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/api/search?q=ivanov").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/api/search?q=ivanov", "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code, "health stays public")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, s, "/healthz").Code)
}

func TestAuditRoutes_OnlyWithAuditLog(t *testing.T) {
	s := newTestServer(t, testConfig())
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/audit").Code)
}

func TestAuditLog(t *testing.T) {
	log := &fakeAuditLog{page: &audit.Page{
		Entries:    []audit.Entry{{ID: "a1", Query: "ivanov", QueryType: core.QueryName, Status: core.StatusOK}},
		TotalCount: 1, Page: 2, PageSize: 10, TotalPages: 1,
	}}
	s := newTestServer(t, testConfig(), WithAuditLog(log))

	rec := get(t, s, "/api/audit?type=name&from=2024-01-01&to=2024-01-31&page=2&page_size=10")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "name", log.filter.QueryType)
	assert.Equal(t, 10, log.filter.Limit)
	assert.Equal(t, 10, log.filter.Offset)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), log.filter.StartTime)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), log.filter.EndTime)
	assert.Contains(t, rec.Body.String(), `"query":"ivanov"`)
}

func TestAuditLog_Error(t *testing.T) {
	log := &fakeAuditLog{err: errors.New("connection refused")}
	s := newTestServer(t, testConfig(), WithAuditLog(log))

	rec := get(t, s, "/api/audit")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuditLogExport(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	log := &fakeAuditLog{page: &audit.Page{Entries: []audit.Entry{
		{ID: "a1", Query: "Ivanov, Ivan", QueryType: core.QueryName, Status: core.StatusOK, Matches: 2, Duration: 15 * time.Millisecond, CreatedAt: created},
	}}}
	s := newTestServer(t, testConfig(), WithAuditLog(log))

	rec := get(t, s, "/api/audit/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "search_audit_")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `a1,2024-02-03 04:05:06,"Ivanov, Ivan",name,ok,0,2,0,15,,`, lines[1])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrEmptyQuery, http.StatusBadRequest},
		{core.ErrTooManySearches, http.StatusServiceUnavailable},
		{dataset.ErrDatasetNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
