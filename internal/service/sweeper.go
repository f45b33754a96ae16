package service

import (
	"context"
	"time"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
)

// IdempotencySweeper is the subset of the repository the janitor needs.
type IdempotencySweeper interface {
	DeleteExpiredIdempotency(ctx context.Context, now time.Time) (int64, error)
}

// SweepIdempotency deletes cached responses whose TTL has passed. It never
// touches combat state.
func SweepIdempotency(ctx context.Context, repo IdempotencySweeper, now time.Time) (int64, error) {
	n, err := repo.DeleteExpiredIdempotency(ctx, now)
	if err != nil {
		logging.Error("idempotency sweep failed", err, nil)
		return 0, err
	}
	if n > 0 {
		logging.Info("expired idempotency records removed", logging.Fields{constants.LogFieldCount: n})
	}
	return n, nil
}

// StartIdempotencySweeper runs SweepIdempotency every interval until ctx
// is cancelled.
func StartIdempotencySweeper(ctx context.Context, repo IdempotencySweeper, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				_, _ = SweepIdempotency(ctx, repo, now)
			}
		}
	}()
}
