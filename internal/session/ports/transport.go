// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"

	"github.com/ManuGH/wabridge/internal/auth"
)

// User is the authenticated account of a transport.
type User struct {
	ID   string // canonical contact address
	Name string
}

// Payload is a pre-built protocol message relayed verbatim.
type Payload map[string]any

// RelayOptions controls a raw relay.
type RelayOptions struct {
	MessageID string
}

// MediaKind selects how a media payload is presented.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
)

// MediaContent is a media attachment with resolved bytes.
type MediaContent struct {
	Kind     MediaKind
	Data     []byte
	MimeType string
	FileName string
	Caption  string
	PTT      bool // send audio as a voice note
	Seconds  int  // audio duration, 0 when unknown
}

// Content is a high-level message the transport knows how to build.
// Exactly one of Text or Media is set.
type Content struct {
	Text  string
	Media *MediaContent
}

// SendOptions controls a high-level send.
type SendOptions struct {
	MessageID string
	QuotedID  string
}

// SentMessage identifies an accepted outbound message.
type SentMessage struct {
	ID        string
	Timestamp int64
}

// Transport is one live connection of the lower-level protocol library.
//
// Events is closed once the transport has ended. End is idempotent.
type Transport interface {
	Events() <-chan Event
	// User returns nil until the connection is authenticated.
	User() *User
	Relay(ctx context.Context, to string, msg Payload, opts RelayOptions) (SentMessage, error)
	SendMessage(ctx context.Context, to string, content Content, opts SendOptions) (SentMessage, error)
	RequestPairingCode(ctx context.Context, phone string) (string, error)
	End()

	GroupTransport
}

// DialOptions carries the per-connection handshake settings.
type DialOptions struct {
	PairingPhone string
	Browser      [3]string
}

// Dialer opens transports. Seed is nil for an identity that never paired.
type Dialer interface {
	Dial(ctx context.Context, seed *auth.Record, opts DialOptions) (Transport, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, seed *auth.Record, opts DialOptions) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context, seed *auth.Record, opts DialOptions) (Transport, error) {
	return f(ctx, seed, opts)
}
