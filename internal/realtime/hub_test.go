package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

func recv(t *testing.T, s *Subscription) models.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-s.C:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return models.ChangeEvent{}
}

func assertEmpty(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case ev := <-s.C:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestHubRoutesByTable(t *testing.T) {
	hub := NewHub(4, nil)
	leads := hub.Subscribe(models.TableLeads, models.TableActivities)
	orders := hub.Subscribe(models.TableOrders)
	all := hub.Subscribe()
	defer leads.Unsubscribe()
	defer orders.Unsubscribe()
	defer all.Unsubscribe()

	hub.Publish(models.ChangeEvent{Event: models.ChangeInsert, Table: models.TableActivities})
	hub.Publish(models.ChangeEvent{Event: models.ChangeUpdate, Table: models.TableOrders})

	assert.Equal(t, models.TableActivities, recv(t, leads).Table)
	assertEmpty(t, leads)
	assert.Equal(t, models.TableOrders, recv(t, orders).Table)
	assert.Equal(t, models.TableActivities, recv(t, all).Table)
	assert.Equal(t, models.TableOrders, recv(t, all).Table)
	assert.Nil(t, all.Tables())
	assert.ElementsMatch(t, []string{models.TableLeads, models.TableActivities}, leads.Tables())
}

func TestUnsubscribeIdempotent(t *testing.T) {
	hub := NewHub(1, nil)
	s := hub.Subscribe(models.TableLeads)
	require.Equal(t, 1, hub.Len())

	s.Unsubscribe()
	s.Unsubscribe()
	assert.Equal(t, 0, hub.Len())

	_, ok := <-s.C
	assert.False(t, ok)

	// publishing after unsubscribe must not panic
	hub.Publish(models.ChangeEvent{Table: models.TableLeads})
}

func TestPublishDropsWhenFull(t *testing.T) {
	hub := NewHub(1, nil)
	s := hub.Subscribe(models.TableLeads)
	defer s.Unsubscribe()

	hub.Publish(models.ChangeEvent{ID: "1", Table: models.TableLeads})
	hub.Publish(models.ChangeEvent{ID: "2", Table: models.TableLeads})

	assert.Equal(t, "1", recv(t, s).ID)
	assertEmpty(t, s)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(1, nil)
	s := hub.Subscribe()
	hub.Close()

	_, ok := <-s.C
	assert.False(t, ok)
	s.Unsubscribe()

	late := hub.Subscribe(models.TableLeads)
	_, ok = <-late.C
	assert.False(t, ok)
	late.Unsubscribe()
	assert.Equal(t, 0, hub.Len())
}

func TestHubSignalsLostEvents(t *testing.T) {
	hub := NewHub(1, nil)
	s := hub.Subscribe(models.TableLeads)
	defer s.Unsubscribe()

	for i := 0; i < 3; i++ {
		hub.Publish(models.ChangeEvent{Event: models.ChangeInsert, Table: models.TableLeads})
	}

	select {
	case <-s.Lost:
	default:
		t.Fatal("expected a lost signal")
	}
	select {
	case <-s.Lost:
		t.Fatal("lost signals coalesce")
	default:
	}
	recv(t, s)
	assertEmpty(t, s)
}
