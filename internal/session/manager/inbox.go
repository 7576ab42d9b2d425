// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ManuGH/wabridge/internal/metrics"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

// inbox delivers inbound batches in order on its own goroutine so a slow
// receive callback never stalls the connection loop.
type inbox struct {
	mu      sync.Mutex
	queue   []ports.MessagesReceived
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	deliver func(ports.MessagesReceived)
	depth   prometheus.Gauge
}

func newInbox(identity string, deliver func(ports.MessagesReceived)) *inbox {
	in := &inbox{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		deliver: deliver,
		depth:   metrics.InboxDepth.WithLabelValues(identity),
	}
	go in.loop()
	return in
}

func (in *inbox) signal() {
	select {
	case in.wake <- struct{}{}:
	default:
	}
}

func (in *inbox) push(b ports.MessagesReceived) {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.queue = append(in.queue, b)
	in.depth.Set(float64(len(in.queue)))
	in.mu.Unlock()
	in.signal()
}

// close stops accepting batches. Queued batches are still delivered.
func (in *inbox) close() {
	in.mu.Lock()
	in.closed = true
	in.mu.Unlock()
	in.signal()
}

func (in *inbox) loop() {
	defer close(in.done)
	for {
		in.mu.Lock()
		for len(in.queue) == 0 && !in.closed {
			in.mu.Unlock()
			<-in.wake
			in.mu.Lock()
		}
		if len(in.queue) == 0 {
			in.mu.Unlock()
			return
		}
		b := in.queue[0]
		in.queue[0] = ports.MessagesReceived{}
		in.queue = in.queue[1:]
		in.depth.Set(float64(len(in.queue)))
		in.mu.Unlock()

		in.deliver(b)
	}
}
