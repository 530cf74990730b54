package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// CleanExpiredSessions deletes sessions that expired before now and
// returns how many rows were removed.
func CleanExpiredSessions(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartExpiredSessionCleaner removes expired login sessions every interval
// until ctx is cancelled.
func StartExpiredSessionCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := CleanExpiredSessions(ctx, db, time.Now())
				if err != nil {
					log.Error("failed to clean expired sessions", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned expired sessions", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
