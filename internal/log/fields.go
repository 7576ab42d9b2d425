// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldIdentity  = "identity"
	FieldJID       = "jid"
	FieldMessageID = "message_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"

	// Process fields
	FieldComponent = "component"
	FieldEvent     = "event"
	FieldOperation = "op"

	// State fields
	FieldState    = "state"
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldReason   = "reason"
	FieldAttempt  = "attempt"

	// Storage fields
	FieldBackend = "backend"
	FieldPath    = "path"
)
