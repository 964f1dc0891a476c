package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (i item) RowID() string { return i.ID }

type store struct {
	mu    sync.Mutex
	rows  []item
	calls int
	err   error
}

func (s *store) fetch(context.Context) ([]item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]item, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *store) set(rows ...item) {
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
}

func (s *store) fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitUpdate[T Identified](t *testing.T, c *LiveCollection[T]) {
	t.Helper()
	select {
	case <-c.Updates():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func raw(t *testing.T, v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestLiveCollectionRefetch(t *testing.T) {
	hub := NewHub(8, nil)
	st := &store{rows: []item{{ID: "1", Name: "a"}}}

	c, err := NewLiveCollection(context.Background(), hub, st.fetch, LiveOptions[item]{}, models.TableLeads)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, []item{{ID: "1", Name: "a"}}, c.Items())

	st.set(item{ID: "1", Name: "a"}, item{ID: "2", Name: "b"})
	hub.Publish(models.ChangeEvent{Event: models.ChangeInsert, Table: models.TableLeads})
	waitUpdate(t, c)

	assert.Len(t, c.Items(), 2)
	assert.Equal(t, 2, st.fetches(), "initial fetch plus one refetch")

	// other tables are ignored
	hub.Publish(models.ChangeEvent{Event: models.ChangeInsert, Table: models.TableOrders})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, st.fetches())
}

func TestLiveCollectionPatch(t *testing.T) {
	hub := NewHub(8, nil)
	st := &store{rows: []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}}

	c, err := NewLiveCollection(context.Background(), hub, st.fetch,
		LiveOptions[item]{Mode: ModePatch, Decode: DecodeJSON[item]}, models.TableLeads)
	require.NoError(t, err)
	defer c.Close()

	hub.Publish(models.ChangeEvent{Event: models.ChangeInsert, Table: models.TableLeads, New: raw(t, item{ID: "3", Name: "c"})})
	waitUpdate(t, c)
	hub.Publish(models.ChangeEvent{Event: models.ChangeUpdate, Table: models.TableLeads, New: raw(t, item{ID: "1", Name: "A"})})
	waitUpdate(t, c)
	hub.Publish(models.ChangeEvent{Event: models.ChangeDelete, Table: models.TableLeads, Old: raw(t, item{ID: "2"})})
	waitUpdate(t, c)

	assert.Equal(t, []item{{ID: "1", Name: "A"}, {ID: "3", Name: "c"}}, c.Items())
	assert.Equal(t, 1, st.fetches(), "patch mode does not refetch")
}

func TestLiveCollectionPatchFallsBackToRefetch(t *testing.T) {
	hub := NewHub(8, nil)
	st := &store{rows: []item{{ID: "1"}}}

	c, err := NewLiveCollection(context.Background(), hub, st.fetch,
		LiveOptions[item]{Mode: ModePatch, Decode: DecodeJSON[item]}, models.TableLeads)
	require.NoError(t, err)
	defer c.Close()

	st.set(item{ID: "9"})
	hub.Publish(models.ChangeEvent{Event: models.ChangeDelete, Table: models.TableLeads})
	waitUpdate(t, c)
	assert.Equal(t, []item{{ID: "9"}}, c.Items())
}

func TestLiveCollectionCloseUnsubscribes(t *testing.T) {
	hub := NewHub(8, nil)
	st := &store{}

	c, err := NewLiveCollection(context.Background(), hub, st.fetch, LiveOptions[item]{}, models.TableLeads)
	require.NoError(t, err)
	require.Equal(t, 1, hub.Len())

	c.Close()
	assert.Equal(t, 0, hub.Len())
}

func TestLiveCollectionInitialFetchError(t *testing.T) {
	hub := NewHub(8, nil)
	st := &store{err: errors.New("offline")}

	_, err := NewLiveCollection(context.Background(), hub, st.fetch, LiveOptions[item]{})
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Len())

	_, err = NewLiveCollection(context.Background(), hub, (&store{}).fetch, LiveOptions[item]{Mode: ModePatch})
	assert.Error(t, err)
}

func TestLiveCollectionPatchResyncsAfterDrop(t *testing.T) {
	hub := NewHub(1, nil)
	st := &store{rows: []item{{ID: "1", Name: "a"}}}

	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	var once sync.Once
	decode := func(raw json.RawMessage) (item, error) {
		once.Do(func() {
			entered <- struct{}{}
			<-gate
		})
		return DecodeJSON[item](raw)
	}

	c, err := NewLiveCollection(context.Background(), hub, st.fetch,
		LiveOptions[item]{Mode: ModePatch, Decode: decode}, models.TableLeads)
	require.NoError(t, err)
	defer c.Close()

	hub.Publish(models.ChangeEvent{Event: models.ChangeInsert, Table: models.TableLeads, New: raw(t, item{ID: "2", Name: "b"})})
	<-entered
	// one event fits the buffer, the next is dropped
	hub.Publish(models.ChangeEvent{Event: models.ChangeInsert, Table: models.TableLeads, New: raw(t, item{ID: "3", Name: "c"})})
	hub.Publish(models.ChangeEvent{Event: models.ChangeDelete, Table: models.TableLeads, Old: raw(t, item{ID: "1"})})

	st.set(item{ID: "2", Name: "b"}, item{ID: "3", Name: "c"})
	close(gate)

	assert.Eventually(t, func() bool {
		return st.fetches() >= 2 && assert.ObjectsAreEqual([]item{{ID: "2", Name: "b"}, {ID: "3", Name: "c"}}, c.Items())
	}, time.Second, 5*time.Millisecond)
}
