package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poll refreshes key every interval until ctx is done. Each tick replaces the
// cached value; failures are logged and the previous value is kept.
// A non-positive interval returns immediately.
func Poll[T any](ctx context.Context, q *QueryCache, key string, interval time.Duration, load func(context.Context) (T, error), onUpdate func(T)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v, err := Refresh(ctx, q, key, load)
			if err != nil {
				if ctx.Err() == nil {
					q.log.Warn("poll refresh failed", zap.String("key", key), zap.Error(err))
				}
				continue
			}
			if onUpdate != nil {
				onUpdate(v)
			}
		}
	}
}
