package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/appsize/internal/config"
)

// Pruner deletes runs older than a number of days.
type Pruner interface {
	PruneOlderThan(ctx context.Context, days int) (int64, error)
}

// StartRetention prunes old runs immediately and then every
// cfg.CheckInterval until ctx is cancelled. It blocks; run it in a goroutine.
// A zero cfg.Days disables pruning.
func StartRetention(ctx context.Context, p Pruner, cfg config.RetentionConfig) {
	if cfg.Days <= 0 || cfg.CheckInterval <= 0 {
		slog.Info("retention disabled")
		return
	}
	slog.Info("retention scheduler started",
		"days", cfg.Days,
		"interval", cfg.CheckInterval.String(),
	)

	prune(ctx, p, cfg.Days)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			prune(ctx, p, cfg.Days)
		}
	}
}

func prune(ctx context.Context, p Pruner, days int) {
	start := time.Now()
	n, err := p.PruneOlderThan(ctx, days)
	if err != nil {
		slog.Error("prune failed", "error", err)
		return
	}
	slog.Info("pruned old runs",
		"runs_deleted", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
