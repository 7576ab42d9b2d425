// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package compose builds outbound messages (text, call-to-action buttons,
// quick replies, lists and media) and relays them through a session's
// transport.
package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/wabridge/internal/compose/mediasrc"
	"github.com/ManuGH/wabridge/internal/jid"
	wlog "github.com/ManuGH/wabridge/internal/log"
	"github.com/ManuGH/wabridge/internal/metrics"
	"github.com/ManuGH/wabridge/internal/ratelimit"
	"github.com/ManuGH/wabridge/internal/session/ports"
	"github.com/ManuGH/wabridge/internal/telemetry"
)

// Connector yields a live transport, connecting on demand. It returns nil
// when no connection could be made.
type Connector interface {
	EnsureConnected(ctx context.Context) ports.Transport
}

// Config configures a Composer. Every field is optional.
type Config struct {
	CountryCode string
	Limiter     *ratelimit.Limiter
	Resolver    *mediasrc.Resolver
	Prober      mediasrc.Prober
	Tracer      trace.Tracer
	Logger      *zerolog.Logger
	// NewMessageID overrides message id generation.
	NewMessageID func() string
}

// Composer sends messages for one session. It holds no per-message state
// and is safe for concurrent use.
type Composer struct {
	conn        Connector
	countryCode string
	limiter     *ratelimit.Limiter
	resolver    *mediasrc.Resolver
	prober      mediasrc.Prober
	tracer      trace.Tracer
	logger      zerolog.Logger
	newID       func() string
}

// New returns a Composer sending through conn.
func New(conn Connector, cfg Config) *Composer {
	c := &Composer{
		conn:        conn,
		countryCode: cfg.CountryCode,
		limiter:     cfg.Limiter,
		resolver:    cfg.Resolver,
		prober:      cfg.Prober,
		tracer:      cfg.Tracer,
		newID:       cfg.NewMessageID,
	}
	if c.countryCode == "" {
		c.countryCode = jid.DefaultCountryCode
	}
	if c.resolver == nil {
		c.resolver = mediasrc.NewResolver(nil, 0)
	}
	if c.tracer == nil {
		c.tracer = telemetry.Tracer("wabridge/compose")
	}
	if cfg.Logger != nil {
		c.logger = *cfg.Logger
	} else {
		c.logger = wlog.WithComponent("compose")
	}
	if c.newID == nil {
		c.newID = NewMessageID
	}
	return c
}

// NewMessageID returns a fresh outbound message id.
func NewMessageID() string {
	id := uuid.New()
	return "3EB0" + strings.ToUpper(fmt.Sprintf("%x", id[:8]))
}

func (c *Composer) address(to string) (string, error) {
	addr := jid.Address(to, c.countryCode)
	if addr == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, to)
	}
	return addr, nil
}

type sendFunc func(ctx context.Context, t ports.Transport, id string) (ports.SentMessage, error)

// deliver obtains the transport, waits for a send slot and runs send inside
// a span. addr must already be canonical.
func (c *Composer) deliver(ctx context.Context, kind, addr string, send sendFunc) (ports.SentMessage, error) {
	id := c.newID()
	ctx, span := c.tracer.Start(ctx, "compose.send",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(telemetry.MessageAttributes(kind, addr, id)...),
	)
	defer span.End()

	sent, err := c.deliverSpan(ctx, addr, id, send)
	metrics.ObserveSend(kind, err)
	logger := wlog.WithContext(ctx, c.logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(telemetry.ErrorAttributes(err, errorType(err))...)
		logger.Warn().Err(err).Str(wlog.FieldJID, addr).Str("kind", kind).Msg("send failed")
		return ports.SentMessage{}, err
	}
	span.SetStatus(codes.Ok, "")
	logger.Debug().
		Str(wlog.FieldJID, addr).
		Str(wlog.FieldMessageID, sent.ID).
		Str("kind", kind).
		Msg("message sent")
	return sent, nil
}

func (c *Composer) deliverSpan(ctx context.Context, addr, id string, send sendFunc) (ports.SentMessage, error) {
	t := c.conn.EnsureConnected(ctx)
	if t == nil {
		return ports.SentMessage{}, ErrNotConnected
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, addr); err != nil {
			return ports.SentMessage{}, fmt.Errorf("rate limit: %w", err)
		}
	}
	return send(ctx, t, id)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "transport"
	}
}

// SendText sends a plain text message, quoting replyToID when set.
func (c *Composer) SendText(ctx context.Context, to, body, replyToID string) (ports.SentMessage, error) {
	if strings.TrimSpace(body) == "" {
		return ports.SentMessage{}, fmt.Errorf("%w: empty text body", ErrInvalidMessage)
	}
	addr, err := c.address(to)
	if err != nil {
		return ports.SentMessage{}, err
	}
	return c.deliver(ctx, "text", addr, func(ctx context.Context, t ports.Transport, id string) (ports.SentMessage, error) {
		return t.SendMessage(ctx, addr, ports.Content{Text: body}, ports.SendOptions{MessageID: id, QuotedID: replyToID})
	})
}

// relay sends a pre-built protocol payload.
func (c *Composer) relay(ctx context.Context, kind, to string, payload ports.Payload) (ports.SentMessage, error) {
	addr, err := c.address(to)
	if err != nil {
		return ports.SentMessage{}, err
	}
	return c.deliver(ctx, kind, addr, func(ctx context.Context, t ports.Transport, id string) (ports.SentMessage, error) {
		return t.Relay(ctx, addr, payload, ports.RelayOptions{MessageID: id})
	})
}

// SendCtaButtons sends call-to-action buttons.
func (c *Composer) SendCtaButtons(ctx context.Context, to string, msg CtaButtons) (ports.SentMessage, error) {
	payload, err := BuildCtaButtons(msg)
	if err != nil {
		return ports.SentMessage{}, err
	}
	return c.relay(ctx, "cta_buttons", to, payload)
}

// SendReplyButtons sends quick-reply buttons.
func (c *Composer) SendReplyButtons(ctx context.Context, to string, msg ReplyButtons) (ports.SentMessage, error) {
	payload, err := BuildReplyButtons(msg)
	if err != nil {
		return ports.SentMessage{}, err
	}
	return c.relay(ctx, "reply_buttons", to, payload)
}

// SendList sends a single-select list.
func (c *Composer) SendList(ctx context.Context, to string, msg List) (ports.SentMessage, error) {
	payload, err := BuildList(msg)
	if err != nil {
		return ports.SentMessage{}, err
	}
	return c.relay(ctx, "list", to, payload)
}
