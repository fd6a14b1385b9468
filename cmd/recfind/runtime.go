package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/JonMunkholm/recfind/internal/audit"
	"github.com/JonMunkholm/recfind/internal/config"
	"github.com/JonMunkholm/recfind/internal/core"
	"github.com/JonMunkholm/recfind/internal/dataset"
	"github.com/JonMunkholm/recfind/internal/logging"
	"github.com/JonMunkholm/recfind/internal/report"
)

// runtime holds everything a command needs once configuration is loaded.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *dataset.Catalog
	service *core.Service

	// Set only when the audit database is configured.
	pool      *pgxpool.Pool
	auditSink *audit.PostgresSink
}

// setup loads .env, configuration and the dataset catalog, connects the
// audit sink and builds the search service.
func setup(c *cli.Context) (*runtime, error) {
	// Overload overwrites existing env vars
	if err := godotenv.Overload(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if path := c.String("config"); path != "" {
		cfg.Datasets.ConfigFile = path
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	rt := &runtime{
		cfg:    cfg,
		logger: logging.Setup(cfg.Logging.Level, cfg.Logging.Format),
	}
	rt.logger.Debug("configuration loaded", "config", cfg.String())

	rt.catalog, err = dataset.Load(cfg.Datasets.ConfigFile, cfg.Datasets.BaseDir, rt.logger)
	if err != nil {
		return nil, err
	}
	rt.logger.Info("datasets loaded",
		"configured", rt.catalog.Len(),
		"available", rt.catalog.AvailableCount(),
	)

	var sink audit.Sink
	switch {
	case cfg.Audit.AuditEnabled():
		if err := rt.connectAudit(c.Context); err != nil {
			return nil, err
		}
		sink = rt.auditSink
	case cfg.Audit.LogSearches:
		sink = audit.NewLogSink(rt.logger)
	}

	opts := []core.Option{
		core.WithLogger(rt.logger),
		core.WithClassifier(core.Classifier{
			LetterShare:    cfg.Search.LetterShare,
			DigitShare:     cfg.Search.DigitShare,
			MinPhoneDigits: cfg.Search.MinPhoneDigits,
		}),
		core.WithDefaultCap(cfg.Search.MaxResults),
		core.WithWorkers(cfg.Search.Workers),
	}
	if sink != nil {
		opts = append(opts, core.WithAuditSink(audit.NewRecorder(sink)))
	}

	rt.service, err = core.NewService(rt.catalog, opts...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// connectAudit opens the audit database and makes sure its table exists.
func (rt *runtime) connectAudit(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := audit.Connect(ctx, rt.cfg.Audit.DatabaseURL, rt.cfg.Audit.MaxConns)
	if err != nil {
		return err
	}

	sink := audit.NewPostgresSink(pool)
	if err := sink.EnsureSchema(ctx); err != nil {
		pool.Close()
		return err
	}

	rt.pool = pool
	rt.auditSink = sink
	rt.logger.Info("connected to audit database")
	return nil
}

// textOptions returns the preview limits for terminal summaries.
func (rt *runtime) textOptions() report.TextOptions {
	return report.TextOptions{
		PreviewRows:   rt.cfg.Report.PreviewRows,
		PreviewFields: rt.cfg.Report.PreviewFields,
	}
}

// Close releases the scan pool and the audit database.
func (rt *runtime) Close() {
	if rt.service != nil {
		rt.service.Close()
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}
