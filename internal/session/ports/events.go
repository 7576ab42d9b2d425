// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"github.com/ManuGH/wabridge/internal/auth"
	"github.com/ManuGH/wabridge/internal/session/model"
)

// Event is anything a Transport reports on its event channel.
type Event interface {
	isEvent()
}

// Phase is the handshake phase carried by a HandshakeUpdate.
type Phase string

const (
	PhaseConnecting Phase = "connecting"
	PhaseQR         Phase = "qr"
	PhaseOpen       Phase = "open"
	PhaseClose      Phase = "close"
)

// HandshakeUpdate reports connection progress. QR is set for PhaseQR,
// Reason and Err for PhaseClose.
type HandshakeUpdate struct {
	Phase  Phase
	QR     string
	Reason model.DisconnectReason
	Err    error
}

// CredentialsRotated carries a credential/key delta to persist. A nil key
// value deletes that key.
type CredentialsRotated struct {
	Creds auth.Credentials
	Keys  map[auth.KeyRef]any
}

// MessagesReceived is one inbound batch.
type MessagesReceived struct {
	Kind     string // "notify" for live messages, "append" for history
	Messages []Message
}

func (HandshakeUpdate) isEvent()    {}
func (CredentialsRotated) isEvent() {}
func (MessagesReceived) isEvent()   {}

// Message is an inbound message as delivered by the transport.
type Message struct {
	ID        string
	Chat      string
	Sender    string
	FromMe    bool
	Timestamp int64
	PushName  string
	Text      string
	Raw       map[string]any
}
