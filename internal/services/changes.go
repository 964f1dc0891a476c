package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/cache"
)

// changes drops cached queries for a table and then publishes the change
// event, so a refetch triggered by the event never reads a stale cache entry.
type changes struct {
	notifier Notifier
	queries  *cache.QueryCache
	log      *zap.Logger
}

func (c changes) invalidate(ctx context.Context, tables ...string) {
	if c.queries == nil {
		return
	}
	for _, t := range tables {
		if err := c.queries.InvalidateTable(ctx, t); err != nil {
			c.log.Warn("cache invalidation failed", zap.String("table", t), zap.Error(err))
		}
	}
}

func (c changes) inserted(ctx context.Context, table string, row interface{}) {
	c.invalidate(ctx, table)
	if c.notifier != nil {
		c.notifier.Inserted(table, row)
	}
}

func (c changes) updated(ctx context.Context, table string, row, old interface{}) {
	c.invalidate(ctx, table)
	if c.notifier != nil {
		c.notifier.Updated(table, row, old)
	}
}

func (c changes) deleted(ctx context.Context, table string, old interface{}) {
	c.invalidate(ctx, table)
	if c.notifier != nil {
		c.notifier.Deleted(table, old)
	}
}

// Deps bundles what every service needs besides its stores.
type Deps struct {
	Notifier Notifier
	Queries  *cache.QueryCache
	Log      *zap.Logger
	Now      func() time.Time
}

func (d Deps) changes() changes {
	return changes{notifier: d.Notifier, queries: d.Queries, log: d.logger()}
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func (d Deps) clock() func() time.Time {
	if d.Now == nil {
		return time.Now
	}
	return d.Now
}
