package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

const defaultBuffer = 64

// Hub fans change events out to table-scoped subscriptions.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
	closed bool
	log    *zap.Logger
}

func NewHub(buffer int, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{subs: map[uint64]*Subscription{}, buffer: buffer, log: log}
}

// Subscription receives events for its tables on C until Unsubscribe.
// With no tables it receives every event. Lost signals once for any
// run of events dropped because C was full.
type Subscription struct {
	C    <-chan models.ChangeEvent
	Lost <-chan struct{}

	id     uint64
	ch     chan models.ChangeEvent
	lost   chan struct{}
	tables map[string]bool
	hub    *Hub
	once   sync.Once
}

// Subscribe registers interest in the given tables. On a closed hub the
// returned subscription's channel is already closed.
func (h *Hub) Subscribe(tables ...string) *Subscription {
	ch := make(chan models.ChangeEvent, h.buffer)
	lost := make(chan struct{}, 1)
	s := &Subscription{C: ch, Lost: lost, ch: ch, lost: lost, tables: map[string]bool{}, hub: h}
	for _, t := range tables {
		s.tables[t] = true
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		s.once.Do(func() {})
		return s
	}
	h.nextID++
	s.id = h.nextID
	h.subs[s.id] = s
	return s
}

// Tables returns the subscribed table names; nil means all tables.
func (s *Subscription) Tables() []string {
	if len(s.tables) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.tables))
	for t := range s.tables {
		out = append(out, t)
	}
	return out
}

func (s *Subscription) wants(table string) bool {
	return len(s.tables) == 0 || s.tables[table]
}

// Unsubscribe removes the subscription and closes C. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Publish delivers ev to every subscription interested in ev.Table.
func (h *Hub) Publish(ev models.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		if !s.wants(ev.Table) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			h.log.Warn("realtime subscriber buffer full, dropping event",
				zap.Uint64("subscription", s.id),
				zap.String("table", ev.Table),
				zap.String("event", string(ev.Event)))
			select {
			case s.lost <- struct{}{}:
			default:
			}
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription. Later Subscribe calls return closed subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.closed = true
	h.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}
