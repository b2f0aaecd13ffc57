package api

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sifria/mareh/core/library"
	"github.com/sifria/mareh/internal/metrics"
)

func TestBroadcastEventQueues(t *testing.T) {
	hub := NewHub(metrics.New(prometheus.NewRegistry()))

	hub.BroadcastEvent(library.Event{Op: "add", Title: "Jonah"})

	select {
	case data := <-hub.broadcast:
		var msg EventMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type != "catalog" || msg.Op != "add" || msg.Title != "Jonah" {
			t.Errorf("message = %+v", msg)
		}
		if msg.Timestamp == "" {
			t.Error("timestamp missing")
		}
	default:
		t.Fatal("no message queued")
	}
}

func TestBroadcastEventDropsWhenFull(t *testing.T) {
	hub := NewHub(metrics.New(prometheus.NewRegistry()))

	// Fill the buffer and one more; the overflow event must not block.
	for i := 0; i < cap(hub.broadcast)+1; i++ {
		hub.BroadcastEvent(library.Event{Op: "rebuild"})
	}
	if len(hub.broadcast) != cap(hub.broadcast) {
		t.Errorf("queued = %d, want %d", len(hub.broadcast), cap(hub.broadcast))
	}
}
