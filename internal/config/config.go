// Package config provides centralized configuration management for recfind.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Search   SearchConfig
	Datasets DatasetsConfig
	Report   ReportConfig
	Audit    AuditConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 90s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"90s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// SearchConfig holds search and classification settings.
type SearchConfig struct {
	// MaxResults is the per-dataset cap on matches (default: 50)
	MaxResults int `env:"SEARCH_MAX_RESULTS" default:"50"`

	// Workers is how many datasets are scanned at once; 1 is sequential (default: 1)
	Workers int `env:"SEARCH_WORKERS" default:"1"`

	// MaxConcurrent is the maximum number of parallel searches served over HTTP (default: 8)
	MaxConcurrent int `env:"SEARCH_MAX_CONCURRENT" default:"8"`

	// MaxWaitTime is how long a request waits for a search slot (default: 10s)
	MaxWaitTime time.Duration `env:"SEARCH_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a single search (default: 60s)
	Timeout time.Duration `env:"SEARCH_TIMEOUT" default:"60s"`

	// LetterShare is the share of letters that makes a query a name (default: 0.3)
	LetterShare float64 `env:"SEARCH_LETTER_SHARE" default:"0.3"`

	// DigitShare is the share of digits that makes a query a phone number (default: 0.7)
	DigitShare float64 `env:"SEARCH_DIGIT_SHARE" default:"0.7"`

	// MinPhoneDigits is the fewest digits a phone query may carry (default: 5)
	MinPhoneDigits int `env:"SEARCH_MIN_PHONE_DIGITS" default:"5"`
}

// DatasetsConfig locates the dataset catalog.
type DatasetsConfig struct {
	// ConfigFile is the YAML or JSON dataset catalog (default: datasets.yaml)
	ConfigFile string `env:"DATASETS_CONFIG" default:"datasets.yaml"`

	// BaseDir resolves relative dataset paths; empty means the catalog's directory
	BaseDir string `env:"DATASETS_BASE_DIR"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	// OutputDir is where HTML reports are saved (default: reports)
	OutputDir string `env:"REPORT_OUTPUT_DIR" default:"reports"`

	// PreviewRows is how many rows per dataset the text summary shows (default: 3)
	PreviewRows int `env:"REPORT_PREVIEW_ROWS" default:"3"`

	// PreviewFields is how many fields per row the text summary shows (default: 5)
	PreviewFields int `env:"REPORT_PREVIEW_FIELDS" default:"5"`
}

// AuditConfig holds search audit settings.
type AuditConfig struct {
	// DatabaseURL is the PostgreSQL connection string; empty disables the
	// database sink. Supports both AUDIT_DATABASE_URL and DATABASE_URL.
	DatabaseURL string `env:"AUDIT_DATABASE_URL" envAlt:"DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"AUDIT_MAX_CONNS" default:"4"`

	// LogSearches logs every search when no database is configured (default: true)
	LogSearches bool `env:"AUDIT_LOG_SEARCHES" default:"true"`

	// RetentionDays is how long audit rows are kept; 0 keeps them forever (default: 90)
	RetentionDays int `env:"AUDIT_RETENTION_DAYS" default:"90"`

	// RetentionInterval is how often old audit rows are purged (default: 24h)
	RetentionInterval time.Duration `env:"AUDIT_RETENTION_INTERVAL" default:"24h"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 60)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"60"`

	// Burst is the number of requests allowed at once (default: 10)
	Burst int `env:"RATE_LIMIT_BURST" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enables X-API-Key authentication on /api and /report (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// AuditEnabled reports whether searches are written to a database.
func (c *AuditConfig) AuditEnabled() bool {
	return c.DatabaseURL != ""
}
