// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, provider.tp)

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "invalid"})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: invalid (supported: grpc, http)", err.Error())
}

func TestNewProvider_HTTPExporterShutsDown(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ExporterType: "http",
		Endpoint:     "127.0.0.1:1",
		SamplingRate: 0,
	})
	require.NoError(t, err)
	require.NotNil(t, provider.tp)
	t.Cleanup(func() { _, _ = NewProvider(context.Background(), Config{}) })

	_, span := Tracer("test").Start(context.Background(), "sampled-out")
	assert.False(t, span.IsRecording(), "rate 0 never samples")
	span.End()
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", samplerFor(1.5).Description())
	assert.Equal(t, "AlwaysOffSampler", samplerFor(-1).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestAttributes(t *testing.T) {
	attrs := MessageAttributes("text", "972500000001@s.whatsapp.net", "")
	assert.Len(t, attrs, 2)
	assert.Contains(t, attrs, attribute.String(MessageKindKey, "text"))

	attrs = GroupAttributes("create", "")
	assert.Equal(t, []attribute.KeyValue{attribute.String(GroupOperationKey, "create")}, attrs)

	attrs = MediaAttributes("image/png", 42)
	assert.Contains(t, attrs, attribute.Int(MessageBytesKey, 42))

	attrs = ErrorAttributes(errors.New("x"), "timeout")
	assert.Contains(t, attrs, attribute.Bool(ErrorKey, true))
}
