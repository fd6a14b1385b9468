package web

// handlers_common.go holds the search path shared by the JSON and HTML
// handlers, plus small request helpers.

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/recfind/internal/core"
	"github.com/JonMunkholm/recfind/internal/logging"
)

// maxLimit bounds the per-dataset cap a client may request.
const maxLimit = 1000

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// searchParams reads the query and per-dataset cap of a search request.
func searchParams(r *http.Request) (string, int) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := parseIntParam(r, "limit", 0)
	if limit > maxLimit {
		limit = maxLimit
	}
	return query, limit
}

// runSearch executes a search under the concurrency limit.
//
// Identical concurrent requests share one scan: the first caller starts it
// (and is the one recorded in the audit), the others wait for its outcome.
// The shared scan is detached from the starting request and bounded by the
// search timeout; each caller stops waiting when its own request ends.
func (s *Server) runSearch(r *http.Request, query string, limit int) (*core.Outcome, error) {
	if query == "" {
		return nil, core.ErrEmptyQuery
	}

	ctx := WithRequestMetadata(r.Context(), r)
	key := strconv.Itoa(limit) + "\x00" + query

	ch := s.searches.DoChan(key, func() (any, error) {
		searchCtx := context.WithoutCancel(ctx)
		if s.cfg.Search.Timeout > 0 {
			var cancel context.CancelFunc
			searchCtx, cancel = context.WithTimeout(searchCtx, s.cfg.Search.Timeout)
			defer cancel()
		}

		if err := s.limiter.Acquire(searchCtx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()

		return s.service.SearchWithCap(searchCtx, query, limit)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-r.Context().Done():
		return nil, r.Context().Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}

	outcome := res.Val.(*core.Outcome)
	shared := res.Shared
	logging.WithFields(r.Context(), "search_id", outcome.ID).Debug("search served",
		"query_type", outcome.Type,
		"matches", outcome.Total(),
		"shared", shared,
	)
	return outcome, nil
}
