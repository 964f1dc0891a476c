package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// Identified is a row with a stable id.
type Identified interface {
	RowID() string
}

// Mode selects how a LiveCollection reacts to change events.
type Mode int

const (
	// ModeRefetch re-runs the full fetch on every event.
	ModeRefetch Mode = iota
	// ModePatch applies the event payload to the held list.
	ModePatch
)

// DecodeJSON decodes a change payload directly into T.
func DecodeJSON[T any](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}

// LiveOptions configures a LiveCollection. Decode is required for ModePatch.
type LiveOptions[T Identified] struct {
	Mode   Mode
	Decode func(json.RawMessage) (T, error)
	Log    *zap.Logger
}

// LiveCollection keeps a list in sync with change events for its tables.
// Events are handled one at a time on a single goroutine, so each refetch
// result fully replaces the list.
type LiveCollection[T Identified] struct {
	mu      sync.RWMutex
	items   []T
	fetch   func(context.Context) ([]T, error)
	opts    LiveOptions[T]
	sub     *Subscription
	updates chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	log     *zap.Logger
}

// NewLiveCollection runs the initial fetch, then follows hub events until
// Close or ctx is done.
func NewLiveCollection[T Identified](ctx context.Context, hub *Hub, fetch func(context.Context) ([]T, error), opts LiveOptions[T], tables ...string) (*LiveCollection[T], error) {
	if opts.Mode == ModePatch && opts.Decode == nil {
		return nil, fmt.Errorf("patch mode requires a decoder")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial fetch: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := &LiveCollection[T]{
		items:   items,
		fetch:   fetch,
		opts:    opts,
		sub:     hub.Subscribe(tables...),
		updates: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
		log:     log,
	}
	go c.run(runCtx)
	return c, nil
}

// Items returns a copy of the current list.
func (c *LiveCollection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Updates signals after the list changed. Signals coalesce.
func (c *LiveCollection[T]) Updates() <-chan struct{} { return c.updates }

// Close unsubscribes and waits for the event loop to stop.
func (c *LiveCollection[T]) Close() {
	c.cancel()
	c.sub.Unsubscribe()
	<-c.done
}

func (c *LiveCollection[T]) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.sub.Unsubscribe()
			return
		case ev, ok := <-c.sub.C:
			if !ok {
				return
			}
			c.handle(ctx, ev)
		case <-c.sub.Lost:
			c.resync(ctx)
		}
	}
}

// resync discards queued events and reloads the list after the hub dropped
// events for this subscription. Queued events predate the reload.
func (c *LiveCollection[T]) resync(ctx context.Context) {
	c.log.Warn("realtime events dropped, refetching")
drain:
	for {
		select {
		case _, ok := <-c.sub.C:
			if !ok {
				return
			}
		default:
			break drain
		}
	}
	c.refetch(ctx, "")
}

func (c *LiveCollection[T]) handle(ctx context.Context, ev models.ChangeEvent) {
	if c.opts.Mode == ModePatch {
		err := c.patch(ev)
		if err == nil {
			c.notify()
			return
		}
		c.log.Warn("realtime patch failed, refetching",
			zap.String("table", ev.Table), zap.Error(err))
	}

	c.refetch(ctx, ev.Table)
}

func (c *LiveCollection[T]) refetch(ctx context.Context, table string) {
	items, err := c.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Error("realtime refetch failed", zap.String("table", table), zap.Error(err))
		}
		return
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	c.notify()
}

func (c *LiveCollection[T]) patch(ev models.ChangeEvent) error {
	switch ev.Event {
	case models.ChangeInsert, models.ChangeUpdate:
		if len(ev.New) == 0 {
			return fmt.Errorf("%s event without new row", ev.Event)
		}
		row, err := c.opts.Decode(ev.New)
		if err != nil {
			return fmt.Errorf("decode new row: %w", err)
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if i := c.indexOf(row.RowID()); i >= 0 {
			c.items[i] = row
		} else {
			c.items = append(c.items, row)
		}
		return nil
	case models.ChangeDelete:
		if len(ev.Old) == 0 {
			return fmt.Errorf("delete event without old row")
		}
		row, err := c.opts.Decode(ev.Old)
		if err != nil {
			return fmt.Errorf("decode old row: %w", err)
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if i := c.indexOf(row.RowID()); i >= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("unknown event %q", ev.Event)
}

// indexOf must be called with mu held.
func (c *LiveCollection[T]) indexOf(id string) int {
	for i, it := range c.items {
		if it.RowID() == id {
			return i
		}
	}
	return -1
}

func (c *LiveCollection[T]) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
