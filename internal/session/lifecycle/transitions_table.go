// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"fmt"

	"github.com/ManuGH/wabridge/internal/session/model"
)

// ErrIllegalTransition is returned for a state+event pair with no edge.
var ErrIllegalTransition = errors.New("illegal transition")

// Transition is a single allowed edge in the connection state machine.
type Transition struct {
	From  model.SessionState
	To    model.SessionState
	Event EventKind
}

var transitionsTable = []Transition{
	// Start path
	{From: model.StateDisconnected, To: model.StateConnecting, Event: EvStartRequested},
	{From: model.StateConnecting, To: model.StateConnecting, Event: EvQROffered},
	{From: model.StateConnecting, To: model.StateOpen, Event: EvOpened},

	// Reconnect
	{From: model.StateConnecting, To: model.StateConnecting, Event: EvClosedRetryable},
	{From: model.StateOpen, To: model.StateConnecting, Event: EvClosedRetryable},

	// Attempts exhausted or logged out
	{From: model.StateConnecting, To: model.StateDisconnected, Event: EvClosedTerminal},
	{From: model.StateOpen, To: model.StateDisconnected, Event: EvClosedTerminal},

	// Explicit close
	{From: model.StateConnecting, To: model.StateClosing, Event: EvCloseRequested},
	{From: model.StateOpen, To: model.StateClosing, Event: EvCloseRequested},
	{From: model.StateClosing, To: model.StateDisconnected, Event: EvClosed},
	{From: model.StateClosing, To: model.StateDisconnected, Event: EvClosedTerminal},
	{From: model.StateClosing, To: model.StateDisconnected, Event: EvClosedRetryable},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from model.SessionState, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// Next returns the target state or ErrIllegalTransition.
func Next(from model.SessionState, ev EventKind) (model.SessionState, error) {
	tr, ok := TransitionFor(from, ev)
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, from)
	}
	return tr.To, nil
}
