package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

const schemaPublic = "public"

// KafkaPublisher is the subset of the Kafka producer used for change events.
type KafkaPublisher interface {
	PublishJSON(topic, key string, data interface{}) error
}

// LocalHub receives change events for subscribers in this process.
type LocalHub interface {
	Publish(ev models.ChangeEvent)
}

// TableInvalidator drops cached queries of a table.
type TableInvalidator interface {
	InvalidateTable(ctx context.Context, table string) error
}

// ChangePublisher emits row-level change events to the local hub and, when
// Kafka is enabled, to the change topic for other instances.
type ChangePublisher struct {
	hub      LocalHub
	producer KafkaPublisher
	cache    TableInvalidator
	topic    string
	origin   string
	log      *zap.Logger
	now      func() time.Time
}

// NewChangePublisher creates a publisher. producer may be nil (events stay local).
func NewChangePublisher(hub LocalHub, producer KafkaPublisher, topic string, log *zap.Logger) *ChangePublisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &ChangePublisher{
		hub:    hub,
		topic:  topic,
		origin: uuid.NewString(),
		log:    log,
		now:    time.Now,
	}
	if producer != nil {
		p.producer = producer
		log.Info("change publisher initialized", zap.String("topic", topic), zap.String("origin", p.origin))
	} else {
		log.Info("change publisher initialized (kafka disabled, events stay in-process)")
	}
	return p
}

// WithInvalidator makes HandleRemote drop this process's cached queries for
// the changed table before the event reaches local subscribers.
func (p *ChangePublisher) WithInvalidator(inv TableInvalidator) *ChangePublisher {
	p.cache = inv
	return p
}

// Origin identifies this process on events it publishes.
func (p *ChangePublisher) Origin() string { return p.origin }

// Inserted publishes an INSERT for row.
func (p *ChangePublisher) Inserted(table string, row interface{}) {
	p.publish(models.ChangeInsert, table, row, nil)
}

// Updated publishes an UPDATE; old may be nil when the previous row is unknown.
func (p *ChangePublisher) Updated(table string, row, old interface{}) {
	p.publish(models.ChangeUpdate, table, row, old)
}

// Deleted publishes a DELETE carrying the removed row.
func (p *ChangePublisher) Deleted(table string, old interface{}) {
	p.publish(models.ChangeDelete, table, nil, old)
}

func (p *ChangePublisher) publish(kind models.ChangeType, table string, row, old interface{}) {
	ev := models.ChangeEvent{
		ID:              uuid.NewString(),
		Event:           kind,
		Schema:          schemaPublic,
		Table:           table,
		CommitTimestamp: p.now().UTC(),
		Origin:          p.origin,
	}
	var err error
	if ev.New, err = marshalRow(row); err != nil {
		p.log.Error("failed to encode change row", zap.String("table", table), zap.Error(err))
		return
	}
	if ev.Old, err = marshalRow(old); err != nil {
		p.log.Error("failed to encode change row", zap.String("table", table), zap.Error(err))
		return
	}

	if p.hub != nil {
		p.hub.Publish(ev)
	}
	if p.producer == nil {
		return
	}
	if err := p.producer.PublishJSON(p.topic, table, ev); err != nil {
		p.log.Warn("failed to publish change event",
			zap.String("table", table),
			zap.String("event", string(kind)),
			zap.Error(err))
	}
}

// HandleRemote decodes a change event read from Kafka and forwards it to the
// local hub unless this process produced it. Used as the consumer handler.
func (p *ChangePublisher) HandleRemote(key, value []byte) error {
	var ev models.ChangeEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	if ev.Origin == p.origin {
		return nil
	}
	if p.cache != nil {
		if err := p.cache.InvalidateTable(context.Background(), ev.Table); err != nil {
			p.log.Warn("cache invalidation for remote change failed", zap.String("table", ev.Table), zap.Error(err))
		}
	}
	if p.hub != nil {
		p.hub.Publish(ev)
	}
	return nil
}

func marshalRow(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
