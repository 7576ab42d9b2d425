// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compose

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/wabridge/internal/compose/mediasrc"
	wlog "github.com/ManuGH/wabridge/internal/log"
	"github.com/ManuGH/wabridge/internal/metrics"
	"github.com/ManuGH/wabridge/internal/session/ports"
	"github.com/ManuGH/wabridge/internal/telemetry"
)

const defaultDocumentName = "file"

// SendMedia resolves the source and sends it as msg.Kind, detecting the kind
// from the MIME type when unset.
func (c *Composer) SendMedia(ctx context.Context, to string, msg Media) (ports.SentMessage, error) {
	addr, err := c.address(to)
	if err != nil {
		return ports.SentMessage{}, err
	}
	res, err := c.resolver.Resolve(ctx, msg.Source)
	if err != nil {
		return ports.SentMessage{}, fmt.Errorf("resolve media: %w", err)
	}

	mimeType := firstNonEmpty(res.MimeType, extensionMIME(res.FileName), res.ContentType)
	if mimeType == "" {
		mimeType = mediasrc.Sniff(res.Data)
	}
	kind := msg.Kind
	if kind == "" {
		kind = mediasrc.KindFor(mimeType)
	}
	return c.sendMedia(ctx, addr, kind, res, mimeType, msg.Caption, msg.PTT, msg.Seconds)
}

// SendFile classifies the file by MIME type (hint, then extension) and
// sends it as that kind. A failed send is retried once as a plain office
// document so the recipient still gets the file.
func (c *Composer) SendFile(ctx context.Context, to string, f File) (ports.SentMessage, error) {
	addr, err := c.address(to)
	if err != nil {
		return ports.SentMessage{}, err
	}
	res, err := c.resolver.Resolve(ctx, f.Source)
	if err != nil {
		return ports.SentMessage{}, fmt.Errorf("resolve file: %w", err)
	}

	mimeType := firstNonEmpty(res.MimeType, extensionMIME(res.FileName))
	if mimeType == "" {
		mimeType = mediasrc.OfficeDocumentMIME
	}
	kind := mediasrc.KindFor(mimeType)

	sent, err := c.sendMedia(ctx, addr, kind, res, mimeType, f.Caption, false, 0)
	if err == nil || !fallbackAllowed(ctx, err) {
		return sent, err
	}

	metrics.MediaFallbackTotal.WithLabelValues(string(kind)).Inc()
	logger := wlog.WithContext(ctx, c.logger)
	logger.Warn().Err(err).
		Str("kind", string(kind)).
		Str("mime", mimeType).
		Msg("file send failed, retrying as document")

	sent, ferr := c.sendMedia(ctx, addr, ports.MediaDocument, res, mediasrc.OfficeDocumentMIME, f.Caption, false, 0)
	if ferr != nil {
		return ports.SentMessage{}, fmt.Errorf("send file: %w (document fallback: %w)", err, ferr)
	}
	return sent, nil
}

func fallbackAllowed(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, ErrNotConnected)
}

func (c *Composer) sendMedia(ctx context.Context, addr string, kind ports.MediaKind, res *mediasrc.Resolved, mimeType, caption string, ptt bool, seconds int) (ports.SentMessage, error) {
	content := &ports.MediaContent{
		Kind:     kind,
		Data:     res.Data,
		MimeType: mimeType,
		FileName: res.FileName,
		Caption:  caption,
	}
	switch kind {
	case ports.MediaAudio:
		content.PTT = ptt
		content.Seconds = seconds
		if content.Seconds <= 0 {
			content.Seconds = c.probe(ctx, res.Data)
		}
		// audio carries no caption on the wire
		content.Caption = ""
	case ports.MediaDocument:
		if content.FileName == "" {
			content.FileName = defaultDocumentName + mediasrc.ExtensionFor(mimeType)
		}
	case ports.MediaImage, ports.MediaVideo:
	default:
		content.Kind = ports.MediaDocument
	}

	metrics.MediaBytes.WithLabelValues(string(content.Kind)).Observe(float64(len(res.Data)))
	return c.deliver(ctx, string(content.Kind), addr, func(ctx context.Context, t ports.Transport, id string) (ports.SentMessage, error) {
		trace.SpanFromContext(ctx).SetAttributes(telemetry.MediaAttributes(mimeType, len(res.Data))...)
		return t.SendMessage(ctx, addr, ports.Content{Media: content}, ports.SendOptions{MessageID: id})
	})
}

// probe returns the audio duration in seconds, or 0 when it is unknown.
func (c *Composer) probe(ctx context.Context, data []byte) int {
	if c.prober == nil {
		return 0
	}
	secs, err := c.prober.Duration(ctx, data)
	if err != nil {
		c.logger.Debug().Err(err).Msg("audio duration probe failed")
		return 0
	}
	return secs
}

func extensionMIME(name string) string {
	mt, _ := mediasrc.MIMEByExtension(name)
	return mt
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
