// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package fake provides a scriptable in-memory Transport. Tests drive the
// handshake with EmitQR, Open and Close and inspect what was sent through
// Sent and Calls.
package fake

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/wabridge/internal/auth"
	"github.com/ManuGH/wabridge/internal/session/model"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

// ErrEnded is returned by calls on an ended transport.
var ErrEnded = errors.New("fake: transport ended")

const eventBuffer = 64

// Send records one outbound call.
type Send struct {
	To      string
	Payload ports.Payload  // set for Relay
	Content *ports.Content // set for SendMessage
	ID      string
	Quoted  string
}

// Call records one group or profile primitive.
type Call struct {
	Method string
	Args   []any
}

// Transport is a ports.Transport held entirely in memory.
type Transport struct {
	Seed    *auth.Record
	Options ports.DialOptions

	emitMu sync.Mutex // serializes emits against End
	events chan ports.Event
	ended  bool

	mu          sync.Mutex
	user        *ports.User
	sent        []Send
	calls       []Call
	seq         int
	pairingCode string

	// Fail, when set, is consulted before every call; a non-nil result is
	// returned as that call's error.
	Fail func(method string) error
	// Groups backs the group primitives.
	Groups map[string]ports.GroupMetadata
}

var _ ports.Transport = (*Transport)(nil)

// New returns a transport seeded with rec.
func New(rec *auth.Record, opts ports.DialOptions) *Transport {
	return &Transport{
		Seed:        rec,
		Options:     opts,
		events:      make(chan ports.Event, eventBuffer),
		pairingCode: "ABCD1234",
		Groups:      map[string]ports.GroupMetadata{},
	}
}

func (t *Transport) emit(ev ports.Event) bool {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	if t.ended {
		return false
	}
	t.events <- ev
	return true
}

// EmitConnecting reports the connecting phase.
func (t *Transport) EmitConnecting() bool {
	return t.emit(ports.HandshakeUpdate{Phase: ports.PhaseConnecting})
}

// EmitQR offers a QR payload.
func (t *Transport) EmitQR(qr string) bool {
	return t.emit(ports.HandshakeUpdate{Phase: ports.PhaseQR, QR: qr})
}

// Open authenticates as user and reports the open phase.
func (t *Transport) Open(user ports.User) bool {
	t.mu.Lock()
	u := user
	t.user = &u
	t.mu.Unlock()
	return t.emit(ports.HandshakeUpdate{Phase: ports.PhaseOpen})
}

// Close reports a close with reason and ends the transport.
func (t *Transport) Close(reason model.DisconnectReason) bool {
	ok := t.emit(ports.HandshakeUpdate{
		Phase:  ports.PhaseClose,
		Reason: reason,
		Err:    fmt.Errorf("fake: connection closed (%s)", reason),
	})
	t.End()
	return ok
}

// RotateCredentials emits a credential/key delta.
func (t *Transport) RotateCredentials(creds auth.Credentials, keys map[auth.KeyRef]any) bool {
	return t.emit(ports.CredentialsRotated{Creds: creds, Keys: keys})
}

// Deliver emits an inbound batch.
func (t *Transport) Deliver(kind string, msgs ...ports.Message) bool {
	return t.emit(ports.MessagesReceived{Kind: kind, Messages: msgs})
}

// SetPairingCode changes the code returned by RequestPairingCode.
func (t *Transport) SetPairingCode(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pairingCode = code
}

func (t *Transport) Events() <-chan ports.Event { return t.events }

func (t *Transport) User() *ports.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.user == nil {
		return nil
	}
	u := *t.user
	return &u
}

// Ended reports whether End was called.
func (t *Transport) Ended() bool {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	return t.ended
}

func (t *Transport) End() {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	if t.ended {
		return
	}
	t.ended = true
	close(t.events)
	t.mu.Lock()
	t.user = nil
	t.mu.Unlock()
}

func (t *Transport) check(method string, args ...any) error {
	t.mu.Lock()
	t.calls = append(t.calls, Call{Method: method, Args: args})
	fail := t.Fail
	t.mu.Unlock()
	if t.Ended() {
		return ErrEnded
	}
	if fail != nil {
		return fail(method)
	}
	return nil
}

func (t *Transport) record(s Send) ports.SentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	if s.ID == "" {
		s.ID = fmt.Sprintf("FAKE%04d", t.seq)
	}
	t.sent = append(t.sent, s)
	return ports.SentMessage{ID: s.ID, Timestamp: time.Now().Unix()}
}

func (t *Transport) Relay(_ context.Context, to string, msg ports.Payload, opts ports.RelayOptions) (ports.SentMessage, error) {
	if err := t.check("Relay", to); err != nil {
		return ports.SentMessage{}, err
	}
	return t.record(Send{To: to, Payload: msg, ID: opts.MessageID}), nil
}

func (t *Transport) SendMessage(_ context.Context, to string, content ports.Content, opts ports.SendOptions) (ports.SentMessage, error) {
	method := "SendMessage"
	if content.Media != nil {
		method = "SendMessage." + string(content.Media.Kind)
	}
	if err := t.check(method, to); err != nil {
		return ports.SentMessage{}, err
	}
	c := content
	return t.record(Send{To: to, Content: &c, ID: opts.MessageID, Quoted: opts.QuotedID}), nil
}

func (t *Transport) RequestPairingCode(_ context.Context, phone string) (string, error) {
	if err := t.check("RequestPairingCode", phone); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pairingCode, nil
}

// Sent returns every recorded send.
func (t *Transport) Sent() []Send {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Send(nil), t.sent...)
}

// Calls returns every recorded call, sends included.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// LastCall returns the most recent call named method.
func (t *Transport) LastCall(method string) (Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.calls) - 1; i >= 0; i-- {
		if t.calls[i].Method == method {
			return t.calls[i], true
		}
	}
	return Call{}, false
}
