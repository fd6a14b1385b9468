package audit

// retention.go runs the periodic purge of old audit rows. It is long-running
// and stops with its context; a failed purge is logged and retried on the
// next tick.

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes audit entries older than a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionConfig holds configuration for the retention scheduler.
type RetentionConfig struct {
	RetentionDays int           // Days to keep entries (default: 90)
	CheckInterval time.Duration // How often to run (default: 24h)
	Logger        *slog.Logger
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// StartRetention purges old entries immediately, then every CheckInterval,
// until ctx is cancelled.
func StartRetention(ctx context.Context, p Purger, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	cfg.Logger.Info("audit retention started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.CheckInterval,
	)

	runRetention(ctx, p, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cfg.Logger.Info("audit retention stopped")
			return
		case now := <-ticker.C:
			runRetention(ctx, p, cfg, now)
		}
	}
}

// runRetention performs one purge cycle.
func runRetention(ctx context.Context, p Purger, cfg RetentionConfig, now time.Time) {
	start := time.Now()
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	purged, err := p.Purge(ctx, cutoff)
	if err != nil {
		cfg.Logger.Error("audit purge failed", "error", err)
		return
	}

	cfg.Logger.Info("purged audit entries",
		"entries_purged", purged,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
