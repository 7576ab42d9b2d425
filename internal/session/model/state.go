// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// SessionState is the connection state of one logical session.
type SessionState string

const (
	StateDisconnected SessionState = "disconnected"
	StateConnecting   SessionState = "connecting"
	StateOpen         SessionState = "open"
	StateClosing      SessionState = "closing"
)

func (s SessionState) String() string { return string(s) }

// Status is the coarse connection status reported to callbacks.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusOpen       Status = "open"
	StatusClose      Status = "close"
)

// StatusFor maps a state to the status reported for it.
func StatusFor(s SessionState) Status {
	switch s {
	case StateConnecting:
		return StatusConnecting
	case StateOpen:
		return StatusOpen
	default:
		return StatusClose
	}
}

// PendingHandshake is the pairing material of the latest QR offer.
type PendingHandshake struct {
	QR          string
	PairingCode string
}
