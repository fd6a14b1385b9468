package audit

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/recfind/internal/core"
)

// DefaultListLimit is the page size used when a Filter sets none.
const DefaultListLimit = 50

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS search_audit (
		id          UUID PRIMARY KEY,
		query       TEXT NOT NULL,
		query_type  TEXT NOT NULL,
		status      TEXT NOT NULL,
		datasets    INTEGER NOT NULL,
		matches     INTEGER NOT NULL,
		failed      INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL,
		ip_address  INET,
		user_agent  TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS search_audit_created_at_idx ON search_audit (created_at DESC)`,
}

const insertEntry = `INSERT INTO search_audit
	(id, query, query_type, status, datasets, matches, failed, duration_ms, ip_address, user_agent, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const selectColumns = `SELECT id::text, query, query_type, status, datasets, matches, failed,
	duration_ms, COALESCE(host(ip_address), ''), COALESCE(user_agent, ''), created_at
	FROM search_audit`

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, maxConns int) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse audit database URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to audit database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	return pool, nil
}

// PostgresSink stores entries in the search_audit table.
type PostgresSink struct {
	db DBTX
}

// NewPostgresSink creates a sink over db.
func NewPostgresSink(db DBTX) *PostgresSink {
	return &PostgresSink{db: db}
}

// EnsureSchema creates the audit table and its index if missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create audit schema: %w", err)
		}
	}
	return nil
}

// Record implements Sink.
func (s *PostgresSink) Record(ctx context.Context, e Entry) error {
	id := toPgUUID(e.ID)
	if !id.Valid {
		id = pgtype.UUID{Bytes: uuid.New(), Valid: true}
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, insertEntry,
		id,
		e.Query,
		string(e.QueryType),
		string(e.Status),
		e.Datasets,
		e.Matches,
		e.Failed,
		e.Duration.Milliseconds(),
		parseIP(e.IPAddress),
		toPgText(e.UserAgent),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Filter selects audit entries. Zero values match everything.
type Filter struct {
	QueryType string
	Status    string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// Page is one page of audit entries.
type Page struct {
	Entries    []Entry `json:"entries"`
	TotalCount int64   `json:"totalCount"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalPages int     `json:"totalPages"`
}

// where builds the shared WHERE clause of List and Count.
func (f Filter) where() *WhereBuilder {
	wb := NewWhereBuilder()
	wb.Add("query_type", f.QueryType)
	wb.Add("status", f.Status)

	start := f.StartTime
	if start.IsZero() {
		start = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	end := f.EndTime
	if end.IsZero() {
		end = time.Now().Add(24 * time.Hour)
	}
	wb.AddTimestampRange("created_at", start, end)
	return wb
}

// List returns the newest entries matching f.
func (s *PostgresSink) List(ctx context.Context, f Filter) (*Page, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	total, err := s.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	wb := f.where()
	whereClause, args := wb.Build()
	query := selectColumns + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", wb.NextArgIndex(), wb.NextArgIndex()+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit entries: %w", err)
	}

	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &Page{
		Entries:    entries,
		TotalCount: total,
		Page:       f.Offset/f.Limit + 1,
		PageSize:   f.Limit,
		TotalPages: totalPages,
	}, nil
}

// Count returns the number of entries matching f.
func (s *PostgresSink) Count(ctx context.Context, f Filter) (int64, error) {
	whereClause, args := f.where().Build()

	var count int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM search_audit"+whereClause, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}

// Purge deletes entries created before cutoff and returns how many were removed.
func (s *PostgresSink) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM search_audit WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e          Entry
		queryType  string
		status     string
		durationMS int64
	)
	err := row.Scan(
		&e.ID, &e.Query, &queryType, &status,
		&e.Datasets, &e.Matches, &e.Failed, &durationMS,
		&e.IPAddress, &e.UserAgent, &e.CreatedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan audit entry: %w", err)
	}
	e.QueryType = core.QueryType(queryType)
	e.Status = core.SearchStatus(status)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	return e, nil
}

// toPgText converts a string to pgtype.Text, NULL when blank.
func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgUUID converts a string to pgtype.UUID, NULL when not a UUID.
func toPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// parseIP strips a port if present and parses the address. Unparseable
// input is stored as NULL.
func parseIP(s string) *netip.Addr {
	if s == "" {
		return nil
	}
	host := s
	if h, _, err := net.SplitHostPort(s); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	return &addr
}
