// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Session attributes
	SessionIdentityKey = "session.identity"
	SessionStateKey    = "session.state"
	SessionAttemptKey  = "session.attempt"

	// Messaging attributes
	MessageKindKey      = "message.kind"
	MessageIDKey        = "message.id"
	MessageRecipientKey = "message.recipient"
	MessageMimeTypeKey  = "message.mime_type"
	MessageBytesKey     = "message.bytes"
	MessageFallbackKey  = "message.fallback"

	// Group attributes
	GroupIDKey        = "group.id"
	GroupOperationKey = "group.operation"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// MessageAttributes describes one outbound message.
func MessageAttributes(kind, recipient, messageID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(MessageKindKey, kind),
		attribute.String(MessageRecipientKey, recipient),
	}
	if messageID != "" {
		attrs = append(attrs, attribute.String(MessageIDKey, messageID))
	}
	return attrs
}

// MediaAttributes describes a media payload.
func MediaAttributes(mimeType string, size int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(MessageMimeTypeKey, mimeType),
		attribute.Int(MessageBytesKey, size),
	}
}

// GroupAttributes describes a group operation.
func GroupAttributes(op, group string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(GroupOperationKey, op)}
	if group != "" {
		attrs = append(attrs, attribute.String(GroupIDKey, group))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
