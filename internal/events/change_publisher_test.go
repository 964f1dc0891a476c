package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

type recordingHub struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (h *recordingHub) Publish(ev models.ChangeEvent) {
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()
}

type recordingProducer struct {
	topics []string
	keys   []string
	values [][]byte
	err    error
}

func (p *recordingProducer) PublishJSON(topic, key string, data interface{}) error {
	if p.err != nil {
		return p.err
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.values = append(p.values, b)
	return nil
}

func TestPublishesToHubAndKafka(t *testing.T) {
	hub := &recordingHub{}
	producer := &recordingProducer{}
	p := NewChangePublisher(hub, producer, "realtime.changes", nil)

	p.Updated(models.TableLeads, map[string]string{"id": "l1", "status": "prospect"}, map[string]string{"id": "l1", "status": "suspect"})

	require.Len(t, hub.events, 1)
	ev := hub.events[0]
	assert.Equal(t, models.ChangeUpdate, ev.Event)
	assert.Equal(t, "public", ev.Schema)
	assert.Equal(t, models.TableLeads, ev.Table)
	assert.JSONEq(t, `{"id":"l1","status":"prospect"}`, string(ev.New))
	assert.JSONEq(t, `{"id":"l1","status":"suspect"}`, string(ev.Old))
	assert.Equal(t, p.Origin(), ev.Origin)

	require.Len(t, producer.values, 1)
	assert.Equal(t, "realtime.changes", producer.topics[0])
	assert.Equal(t, models.TableLeads, producer.keys[0])
}

func TestInsertAndDeletePayloads(t *testing.T) {
	hub := &recordingHub{}
	p := NewChangePublisher(hub, nil, "", nil)

	p.Inserted(models.TableNotes, map[string]string{"id": "n1"})
	p.Deleted(models.TableNotes, map[string]string{"id": "n1"})

	require.Len(t, hub.events, 2)
	assert.NotEmpty(t, hub.events[0].New)
	assert.Empty(t, hub.events[0].Old)
	assert.Empty(t, hub.events[1].New)
	assert.NotEmpty(t, hub.events[1].Old)
}

func TestKafkaFailureStillDeliversLocally(t *testing.T) {
	hub := &recordingHub{}
	p := NewChangePublisher(hub, &recordingProducer{err: errors.New("broker down")}, "t", nil)

	p.Inserted(models.TableOrders, map[string]string{"id": "o1"})
	assert.Len(t, hub.events, 1)
}

func TestHandleRemoteSkipsOwnEvents(t *testing.T) {
	hub := &recordingHub{}
	producer := &recordingProducer{}
	local := NewChangePublisher(hub, producer, "t", nil)
	local.Inserted(models.TableLeads, map[string]string{"id": "l1"})
	require.Len(t, hub.events, 1)

	// the same message coming back from Kafka is ignored
	require.NoError(t, local.HandleRemote([]byte(models.TableLeads), producer.values[0]))
	assert.Len(t, hub.events, 1)

	otherHub := &recordingHub{}
	remote := NewChangePublisher(otherHub, nil, "t", nil)
	require.NoError(t, remote.HandleRemote([]byte(models.TableLeads), producer.values[0]))
	require.Len(t, otherHub.events, 1)
	assert.Equal(t, models.TableLeads, otherHub.events[0].Table)

	assert.Error(t, remote.HandleRemote(nil, []byte("not json")))
}

type recordingInvalidator struct {
	tables []string
}

func (r *recordingInvalidator) InvalidateTable(_ context.Context, table string) error {
	r.tables = append(r.tables, table)
	return nil
}

func TestHandleRemoteInvalidatesCache(t *testing.T) {
	producer := &recordingProducer{}
	NewChangePublisher(&recordingHub{}, producer, "t", nil).Updated(models.TableOrders, map[string]string{"id": "o1"}, nil)

	inv := &recordingInvalidator{}
	hub := &recordingHub{}
	remote := NewChangePublisher(hub, nil, "t", nil).WithInvalidator(inv)
	require.NoError(t, remote.HandleRemote([]byte(models.TableOrders), producer.values[0]))

	assert.Equal(t, []string{models.TableOrders}, inv.tables)
	assert.Len(t, hub.events, 1)
}
