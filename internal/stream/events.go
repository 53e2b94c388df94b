package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// EventBuffer is how many events each SSE client buffers.
const EventBuffer = 64

// Event is one server-sent event.
type Event struct {
	Type string
	Data any
}

// EventHub publishes events to server-sent-event clients.
type EventHub struct {
	broadcaster *Broadcaster[Event]
	keepAlive   time.Duration
	seq         atomic.Uint64
}

// NewEventHub creates a hub. A comment line is written to idle clients every
// keepAlive so proxies keep the connection open.
func NewEventHub(keepAlive time.Duration) *EventHub {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &EventHub{
		broadcaster: NewBroadcaster[Event](EventBuffer),
		keepAlive:   keepAlive,
	}
}

// Publish sends an event to every connected client.
func (h *EventHub) Publish(typ string, data any) {
	h.broadcaster.Publish(Event{Type: typ, Data: data})
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	return h.broadcaster.ListenerCount()
}

func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientID := uuid.New()
	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	log.Printf("Event client %s connected (total: %d)", clientID, h.ClientCount())
	defer log.Printf("Event client %s disconnected", clientID)

	fmt.Fprintf(w, "event: hello\ndata: {\"client\":%q}\n\n", clientID)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-listener.C:
			if err := h.write(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventHub) write(w http.ResponseWriter, ev Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		log.Printf("Event %s: encode error: %v", ev.Type, err)
		return nil
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", h.seq.Add(1), ev.Type, data)
	return err
}
