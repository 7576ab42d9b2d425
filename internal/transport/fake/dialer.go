// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fake

import (
	"context"
	"sync"

	"github.com/ManuGH/wabridge/internal/auth"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

// Dialer hands out fake transports and remembers them in dial order.
type Dialer struct {
	// OnDial runs synchronously after the n-th dial (1-based), before the
	// transport is returned. Scripted events are buffered until the
	// manager starts reading.
	OnDial func(n int, t *Transport)
	// FailDial, when set, is consulted before every dial and may reject it.
	FailDial func(n int) error

	mu         sync.Mutex
	transports []*Transport
	seeds      []*auth.Record
	dials      int
}

var _ ports.Dialer = (*Dialer)(nil)

func (d *Dialer) Dial(ctx context.Context, seed *auth.Record, opts ports.DialOptions) (ports.Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.dials++
	n := d.dials
	d.seeds = append(d.seeds, seed.Clone())
	fail := d.FailDial
	d.mu.Unlock()

	if fail != nil {
		if err := fail(n); err != nil {
			return nil, err
		}
	}

	t := New(seed.Clone(), opts)
	d.mu.Lock()
	d.transports = append(d.transports, t)
	onDial := d.OnDial
	d.mu.Unlock()

	if onDial != nil {
		onDial(n, t)
	}
	return t, nil
}

// Dials returns the number of Dial calls, failed ones included.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Seeds returns the record each dial was seeded with.
func (d *Dialer) Seeds() []*auth.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*auth.Record(nil), d.seeds...)
}

// Transports returns every successfully dialed transport.
func (d *Dialer) Transports() []*Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Transport(nil), d.transports...)
}

// Last returns the most recent transport or nil.
func (d *Dialer) Last() *Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}

// AutoPair returns a Dialer whose transports pair immediately: an unseeded
// dial offers qr and then opens as user with fresh credentials.
func AutoPair(user ports.User, qr string) *Dialer {
	return &Dialer{OnDial: func(_ int, t *Transport) {
		if !t.Seed.Paired() {
			t.EmitQR(qr)
			t.RotateCredentials(auth.Credentials{
				"me":             map[string]any{"id": user.ID, "name": user.Name},
				"registrationId": float64(1),
				"noiseKey":       map[string]any{"private": []byte("fake-private"), "public": []byte("fake-public")},
			}, nil)
		}
		t.Open(user)
	}}
}
