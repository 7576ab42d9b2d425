// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/wabridge/internal/session/model"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

func drain(t *Transport) []ports.Event {
	var out []ports.Event
	for ev := range t.Events() {
		out = append(out, ev)
	}
	return out
}

func TestScriptedHandshake(t *testing.T) {
	tr := New(nil, ports.DialOptions{})
	assert.Nil(t, tr.User())

	require.True(t, tr.EmitQR("qr-1"))
	require.True(t, tr.Open(ports.User{ID: "972500000001@s.whatsapp.net"}))
	require.NotNil(t, tr.User())
	require.True(t, tr.Close(model.ReasonConnectionLost))

	evs := drain(tr)
	require.Len(t, evs, 3)
	assert.Equal(t, ports.HandshakeUpdate{Phase: ports.PhaseQR, QR: "qr-1"}, evs[0])
	closed := evs[2].(ports.HandshakeUpdate)
	assert.Equal(t, model.ReasonConnectionLost, closed.Reason)
	assert.Nil(t, tr.User())

	assert.False(t, tr.EmitQR("late"), "emits after End are dropped")
	tr.End()
}

func TestCallsRecordedAndFailable(t *testing.T) {
	ctx := context.Background()
	tr := New(nil, ports.DialOptions{})
	boom := errors.New("boom")
	tr.Fail = func(method string) error {
		if method == "SendMessage.video" {
			return boom
		}
		return nil
	}

	_, err := tr.SendMessage(ctx, "a@s.whatsapp.net", ports.Content{Text: "hi"}, ports.SendOptions{QuotedID: "Q1"})
	require.NoError(t, err)
	_, err = tr.SendMessage(ctx, "a@s.whatsapp.net", ports.Content{Media: &ports.MediaContent{Kind: ports.MediaVideo}}, ports.SendOptions{})
	assert.ErrorIs(t, err, boom)

	sent := tr.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Q1", sent[0].Quoted)
	assert.Len(t, tr.Calls(), 2)

	tr.End()
	_, err = tr.Relay(ctx, "a@s.whatsapp.net", ports.Payload{}, ports.RelayOptions{})
	assert.ErrorIs(t, err, ErrEnded)
}

func TestDialerAutoPair(t *testing.T) {
	d := AutoPair(ports.User{ID: "972500000001@s.whatsapp.net", Name: "bot"}, "qr")
	tr, err := d.Dial(context.Background(), nil, ports.DialOptions{})
	require.NoError(t, err)
	ft := tr.(*Transport)

	assert.Equal(t, 1, d.Dials())
	assert.Same(t, ft, d.Last())
	assert.NotNil(t, ft.User())
	assert.Len(t, ft.events, 3)
}
