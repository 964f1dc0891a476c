package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	keyPrefix = "query:"
	genPrefix = "gen:"
)

// QueryKey builds a cache key from a table name and optional parameters,
// e.g. QueryKey("activities", leadID) -> "query:activities:<leadID>".
func QueryKey(table string, params ...string) string {
	if len(params) == 0 {
		return keyPrefix + table
	}
	return keyPrefix + table + ":" + strings.Join(params, ":")
}

// tableOf returns the table a query key belongs to.
func tableOf(key string) string {
	t := strings.TrimPrefix(key, keyPrefix)
	if i := strings.IndexByte(t, ':'); i >= 0 {
		t = t[:i]
	}
	return t
}

func generationKey(table string) string {
	return genPrefix + table
}

// QueryCache is a key-addressed cache of JSON-encoded query results.
// A failed load is retried Retry times before the error is returned.
// Every table carries a generation counter bumped on invalidation; a load
// that started before a bump is returned to its caller but never cached.
type QueryCache struct {
	store Cache
	ttl   time.Duration
	retry int
	log   *zap.Logger
}

func NewQueryCache(store Cache, ttl time.Duration, retry int, log *zap.Logger) *QueryCache {
	if log == nil {
		log = zap.NewNop()
	}
	if retry < 0 {
		retry = 0
	}
	return &QueryCache{store: store, ttl: ttl, retry: retry, log: log}
}

// Fetch returns the cached value for key or runs load and caches its result.
// Cache read and write failures are logged and fall through to the loader.
func Fetch[T any](ctx context.Context, q *QueryCache, key string, load func(context.Context) (T, error)) (T, error) {
	if data, ok, err := q.store.Get(ctx, key); err != nil {
		q.log.Warn("query cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		q.log.Warn("query cache entry corrupt, reloading", zap.String("key", key))
	}
	return Refresh(ctx, q, key, load)
}

// Refresh runs load and replaces the cached value regardless of what is stored.
func Refresh[T any](ctx context.Context, q *QueryCache, key string, load func(context.Context) (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	genKey := generationKey(tableOf(key))
	gen, gerr := q.store.Generation(ctx, genKey)
	if gerr != nil {
		q.log.Warn("query cache generation read failed", zap.String("key", key), zap.Error(gerr))
	}
	for attempt := 0; attempt <= q.retry; attempt++ {
		if attempt > 0 {
			q.log.Warn("query failed, retrying",
				zap.String("key", key),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		v, err = load(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return v, fmt.Errorf("query %s: %w", key, err)
	}

	data, merr := json.Marshal(v)
	if merr != nil {
		q.log.Warn("query result not cacheable", zap.String("key", key), zap.Error(merr))
		return v, nil
	}
	if gerr != nil {
		return v, nil
	}
	stored, serr := q.store.SetIfGeneration(ctx, genKey, gen, key, data, q.ttl)
	if serr != nil {
		q.log.Warn("query cache write failed", zap.String("key", key), zap.Error(serr))
	} else if !stored {
		q.log.Debug("table changed during load, result not cached", zap.String("key", key))
	}
	return v, nil
}

// Invalidate drops the given keys and bumps their tables' generations.
func (q *QueryCache) Invalidate(ctx context.Context, keys ...string) error {
	seen := map[string]bool{}
	for _, k := range keys {
		t := tableOf(k)
		if seen[t] {
			continue
		}
		seen[t] = true
		if err := q.store.Bump(ctx, generationKey(t)); err != nil {
			return fmt.Errorf("invalidate %v: %w", keys, err)
		}
	}
	if err := q.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate %v: %w", keys, err)
	}
	return nil
}

// InvalidateTable bumps the table generation, then drops QueryKey(table) and
// every parameterized key under it.
func (q *QueryCache) InvalidateTable(ctx context.Context, table string) error {
	if err := q.store.Bump(ctx, generationKey(table)); err != nil {
		return fmt.Errorf("invalidate %s: %w", table, err)
	}
	base := QueryKey(table)
	if err := q.store.Delete(ctx, base); err != nil {
		return fmt.Errorf("invalidate %s: %w", table, err)
	}
	if err := q.store.DeletePrefix(ctx, base+":"); err != nil {
		return fmt.Errorf("invalidate %s: %w", table, err)
	}
	return nil
}
