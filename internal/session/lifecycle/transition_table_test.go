// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/wabridge/internal/session/model"
)

func TestTransitionTable_Coverage(t *testing.T) {
	states := []model.SessionState{
		model.StateDisconnected,
		model.StateConnecting,
		model.StateOpen,
		model.StateClosing,
	}
	events := []EventKind{
		EvStartRequested,
		EvQROffered,
		EvOpened,
		EvClosedRetryable,
		EvClosedTerminal,
		EvCloseRequested,
		EvClosed,
	}

	allowed := map[model.SessionState]map[EventKind]struct{}{}
	for _, tr := range transitionsTable {
		if allowed[tr.From] == nil {
			allowed[tr.From] = map[EventKind]struct{}{}
		}
		_, dup := allowed[tr.From][tr.Event]
		require.False(t, dup, "duplicate edge %s on %s", tr.Event, tr.From)
		allowed[tr.From][tr.Event] = struct{}{}
	}

	for _, st := range states {
		for _, ev := range events {
			_, ok := TransitionFor(st, ev)
			_, want := allowed[st][ev]
			require.Equal(t, want, ok, "state=%s event=%s", st, ev)
		}
	}
}

func TestTransitionTable_Paths(t *testing.T) {
	walk := func(evs ...EventKind) model.SessionState {
		st := model.StateDisconnected
		for _, ev := range evs {
			next, err := Next(st, ev)
			require.NoError(t, err, "%s on %s", ev, st)
			st = next
		}
		return st
	}

	require.Equal(t, model.StateOpen, walk(EvStartRequested, EvQROffered, EvQROffered, EvOpened))
	require.Equal(t, model.StateOpen, walk(EvStartRequested, EvOpened, EvClosedRetryable, EvOpened))
	require.Equal(t, model.StateDisconnected, walk(EvStartRequested, EvClosedRetryable, EvClosedTerminal))
	require.Equal(t, model.StateDisconnected, walk(EvStartRequested, EvOpened, EvCloseRequested, EvClosed))
}

func TestTransitionTable_Illegal(t *testing.T) {
	for _, c := range []struct {
		from model.SessionState
		ev   EventKind
	}{
		{model.StateDisconnected, EvOpened},
		{model.StateDisconnected, EvCloseRequested},
		{model.StateOpen, EvStartRequested},
		{model.StateOpen, EvQROffered},
		{model.StateClosing, EvOpened},
	} {
		got, err := Next(c.from, c.ev)
		require.ErrorIs(t, err, ErrIllegalTransition)
		require.Equal(t, c.from, got)
	}
}
