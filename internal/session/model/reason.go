// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "strconv"

// DisconnectReason is the status code a transport reports on close.
type DisconnectReason int

const (
	ReasonUnknown             DisconnectReason = 0
	ReasonLoggedOut           DisconnectReason = 401
	ReasonConnectionLost      DisconnectReason = 408
	ReasonMultideviceMismatch DisconnectReason = 411
	ReasonConnectionClosed    DisconnectReason = 428
	ReasonConnectionReplaced  DisconnectReason = 440
	ReasonBadSession          DisconnectReason = 500
	ReasonRestartRequired     DisconnectReason = 515
)

var reasonNames = map[DisconnectReason]string{
	ReasonUnknown:             "unknown",
	ReasonLoggedOut:           "logged_out",
	ReasonConnectionLost:      "connection_lost",
	ReasonMultideviceMismatch: "multidevice_mismatch",
	ReasonConnectionClosed:    "connection_closed",
	ReasonConnectionReplaced:  "connection_replaced",
	ReasonBadSession:          "bad_session",
	ReasonRestartRequired:     "restart_required",
}

func (r DisconnectReason) String() string {
	if n, ok := reasonNames[r]; ok {
		return n
	}
	return "code_" + strconv.Itoa(int(r))
}

// Terminal reports whether a close with this reason must not be retried.
// Only an explicit logout invalidates the stored credentials.
func (r DisconnectReason) Terminal() bool {
	return r == ReasonLoggedOut
}
