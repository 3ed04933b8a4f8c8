package storage

import (
	"context"
	"log/slog"
	"time"
)

// StartJanitor runs periodic expiry sweeps against the store until ctx
// is cancelled. It returns immediately; sweeps happen on their own
// goroutine.
func StartJanitor(ctx context.Context, store SessionStore, interval time.Duration, logger *slog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := store.PurgeExpired(ctx, time.Now())
				if err != nil {
					logger.Error("session purge failed", slog.String("error", err.Error()))
					continue
				}
				if purged > 0 {
					logger.Info("purged expired sessions", slog.Int("count", purged))
				}
			}
		}
	}()
}
