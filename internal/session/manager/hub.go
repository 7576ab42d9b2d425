// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"sync"

	"github.com/ManuGH/wabridge/internal/metrics"
	"github.com/ManuGH/wabridge/internal/session/model"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

// EventKind classifies a hub Event.
type EventKind string

const (
	EventStatus        EventKind = "status"
	EventQR            EventKind = "qr"
	EventOpen          EventKind = "open"
	EventClose         EventKind = "close"
	EventMessages      EventKind = "messages"
	EventPersistFailed EventKind = "persist_failed"
)

// Event is the subscription view of everything the callbacks report.
type Event struct {
	Kind        EventKind
	Identity    string
	Status      model.Status
	QR          string
	PairingCode string
	Reason      model.DisconnectReason
	Err         error
	Batch       *ports.MessagesReceived
}

const defaultSubscriberBuffer = 64

// hub fans events out to subscribers. Publishing never blocks: a full
// subscriber loses the event.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan Event)}
}

func (h *hub) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			metrics.IncHubDrop(string(ev.Kind), "full")
		}
	}
}
