// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveIdentity(t *testing.T) {
	assert.Equal(t, "shop", DeriveIdentity("shop", "972501234567", "auth"))
	assert.Equal(t, "972501234567", DeriveIdentity(" ", "972501234567", "auth"))
	assert.Equal(t, "auth", DeriveIdentity("", "", "auth"))
	assert.Equal(t, DefaultIdentity, DeriveIdentity("", "", ""))
}

func TestReasonTerminal(t *testing.T) {
	assert.True(t, ReasonLoggedOut.Terminal())
	for _, r := range []DisconnectReason{ReasonConnectionLost, ReasonConnectionClosed, ReasonRestartRequired, ReasonBadSession, ReasonUnknown} {
		assert.False(t, r.Terminal(), r.String())
	}
	assert.Equal(t, "code_499", DisconnectReason(499).String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusConnecting, StatusFor(StateConnecting))
	assert.Equal(t, StatusOpen, StatusFor(StateOpen))
	assert.Equal(t, StatusClose, StatusFor(StateClosing))
	assert.Equal(t, StatusClose, StatusFor(StateDisconnected))
}
