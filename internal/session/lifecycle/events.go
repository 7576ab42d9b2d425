// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

// EventKind is a connection event that may move the state machine.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvStartRequested
	EvQROffered
	EvOpened
	EvClosedRetryable
	EvClosedTerminal
	EvCloseRequested
	EvClosed
)

var eventNames = [...]string{
	EvUnknown:         "unknown",
	EvStartRequested:  "start_requested",
	EvQROffered:       "qr_offered",
	EvOpened:          "opened",
	EvClosedRetryable: "closed_retryable",
	EvClosedTerminal:  "closed_terminal",
	EvCloseRequested:  "close_requested",
	EvClosed:          "closed",
}

func (e EventKind) String() string {
	if int(e) >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}
