// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package manager drives the connection lifecycle of one session: it dials
// the transport with persisted credentials, walks the QR/pairing handshake,
// reconnects after retryable closes and persists credential rotations.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/wabridge/internal/auth"
	"github.com/ManuGH/wabridge/internal/jid"
	wlog "github.com/ManuGH/wabridge/internal/log"
	"github.com/ManuGH/wabridge/internal/qr"
	"github.com/ManuGH/wabridge/internal/session/lifecycle"
	"github.com/ManuGH/wabridge/internal/session/model"
	"github.com/ManuGH/wabridge/internal/session/ports"
)

var errTransportEnded = errors.New("transport ended without close reason")

type startResult struct {
	t   ports.Transport
	err error
}

// Manager owns one logical session. It is safe for concurrent use.
type Manager struct {
	opts   Options
	logger zerolog.Logger
	hub    *hub
	sf     singleflight.Group

	mu      sync.Mutex
	state   model.SessionState
	gen     uint64          // bumped by Close to orphan a running loop
	handle  ports.Transport // set while open
	current ports.Transport // dialed transport, open or not
	record  *auth.Record
	pending *model.PendingHandshake
	waiters []chan startResult
	cancel  context.CancelFunc
	done    chan struct{} // closed when the current loop exits
}

// New returns a disconnected manager.
func New(opts Options) (*Manager, error) {
	if opts.Dialer == nil {
		return nil, ErrNoDialer
	}
	if opts.Store == nil {
		return nil, auth.ErrNoStoreConfigured
	}
	opts.setDefaults()

	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = wlog.WithComponent("session")
	}
	logger = logger.With().Str(wlog.FieldIdentity, opts.Identity).Logger()

	return &Manager{
		opts:   opts,
		logger: logger,
		hub:    newHub(),
		state:  model.StateDisconnected,
	}, nil
}

// Identity returns the session identity.
func (m *Manager) Identity() string { return m.opts.Identity }

// State returns the current connection state.
func (m *Manager) State() model.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pending returns the latest unconsumed QR offer, or nil.
func (m *Manager) Pending() *model.PendingHandshake {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil
	}
	p := *m.pending
	return &p
}

// Transport returns the live transport handle, or nil.
func (m *Manager) Transport() ports.Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// IsConnected reports whether a live transport has an authenticated user.
func (m *Manager) IsConnected() bool {
	t := m.Transport()
	return t != nil && t.User() != nil
}

// Subscribe returns an ordered stream of session events. The returned func
// cancels the subscription and closes the channel.
func (m *Manager) Subscribe(buffer int) (<-chan Event, func()) {
	return m.hub.subscribe(buffer)
}

// Start connects the session and blocks until it is open or has settled to
// disconnected. A session that is already starting is joined rather than
// dialed twice. Canceling ctx abandons the wait; the connection attempt
// continues in the background.
func (m *Manager) Start(ctx context.Context, so StartOptions) (ports.Transport, error) {
	m.mu.Lock()
	if m.state == model.StateOpen && m.handle != nil {
		t := m.handle
		m.mu.Unlock()
		return t, nil
	}

	ch := make(chan startResult, 1)
	m.waiters = append(m.waiters, ch)

	if m.state == model.StateDisconnected {
		attempts := so.ConnectionAttempts
		if attempts == 0 {
			attempts = m.opts.ConnectionAttempts
		}
		phone := so.PairingPhone
		if phone == "" {
			phone = m.opts.PairingPhone
		}

		m.transitionLocked(lifecycle.EvStartRequested)
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		m.cancel = cancel
		m.done = make(chan struct{})
		m.pending = nil
		go m.run(runCtx, m.gen, m.done, attemptsBudget(attempts), phone)
	}
	m.mu.Unlock()

	select {
	case res := <-ch:
		return res.t, res.err
	case <-ctx.Done():
		m.dropWaiter(ch)
		return nil, ctx.Err()
	}
}

// EnsureConnected returns the live transport, starting the session with
// default options if needed. Failures are reported to
// OnPreConnectionSendMessageFailed and yield nil.
func (m *Manager) EnsureConnected(ctx context.Context) ports.Transport {
	if t := m.Transport(); t != nil {
		return t
	}
	v, err, _ := m.sf.Do("start", func() (any, error) {
		return m.Start(ctx, StartOptions{})
	})
	if err == nil && v == nil {
		err = ErrConnectionClosed
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("ensure connected failed")
		if hook := m.opts.Callbacks.OnPreConnectionSendMessageFailed; hook != nil {
			hook(err)
		}
		return nil
	}
	t, _ := v.(ports.Transport)
	return t
}

// Close ends the transport and settles the session to disconnected. Closing
// a disconnected session is a no-op. Pending Start calls return
// ErrSessionClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == model.StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(lifecycle.EvCloseRequested)
	m.gen++
	cancel, t := m.cancel, m.current
	m.cancel, m.handle, m.current, m.pending = nil, nil, nil, nil
	waiters := m.takeWaitersLocked()
	m.transitionLocked(lifecycle.EvClosed)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if t != nil {
		t.End()
	}

	m.logger.Info().Msg("session closed")
	if cb := m.opts.Callbacks.OnClose; cb != nil {
		cb(model.ReasonConnectionClosed, ErrSessionClosed)
	}
	m.hub.publish(Event{Kind: EventClose, Identity: m.opts.Identity, Reason: model.ReasonConnectionClosed, Err: ErrSessionClosed})
	m.emitStatus(model.StatusClose)
	m.resolve(waiters, startResult{err: ErrSessionClosed})
}

// Wait blocks until the most recent connection loop has exited.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResetConnection closes the session, deletes its persisted auth state and,
// unless disabled, starts a fresh pairing flow. It waits for the connection
// loop to exit, so it must not be called from a callback.
func (m *Manager) ResetConnection(ctx context.Context, ro ResetOptions) (ports.Transport, error) {
	m.Close()
	if err := m.Wait(ctx); err != nil {
		return nil, err
	}

	unlock := credentialWrites.lock(m.opts.Identity)
	err := m.opts.Store.Remove(ctx, m.opts.Identity)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("reset auth state: %w", err)
	}

	m.mu.Lock()
	m.record = nil
	if ro.PairingPhone != "" {
		m.opts.PairingPhone = ro.PairingPhone
	}
	m.mu.Unlock()
	m.logger.Info().Msg("auth state reset")

	if err := m.opts.Sleep(ctx, m.opts.ResetDelay); err != nil {
		return nil, err
	}
	if ro.DisableAutoConnect {
		return nil, nil
	}
	return m.Start(ctx, StartOptions{PairingPhone: ro.PairingPhone})
}

func (m *Manager) run(ctx context.Context, gen uint64, done chan struct{}, attempts int, phone string) {
	defer close(done)
	m.emitStatus(model.StatusConnecting)

	var in *inbox
	if cb := m.opts.Callbacks.OnReceiveMessages; cb != nil {
		in = newInbox(m.opts.Identity, cb)
		defer in.close()
	}

	rec, err := m.opts.Store.Load(ctx, m.opts.Identity)
	if err != nil {
		if ctx.Err() == nil {
			m.finish(gen, model.ReasonUnknown, fmt.Errorf("load auth state: %w", err))
		}
		return
	}
	if rec == nil {
		rec = auth.NewRecord()
	}
	m.mu.Lock()
	if m.gen == gen {
		m.record = rec
	}
	m.mu.Unlock()

	remaining := attempts
	for attempt := 1; ; attempt++ {
		logger := m.logger.With().Int(wlog.FieldAttempt, attempt).Logger()

		reason, opened, cerr := m.connect(ctx, gen, in, phone, logger)
		if ctx.Err() != nil {
			return
		}
		if opened {
			remaining = attempts
		}
		if reason.Terminal() || remaining <= 0 {
			m.finish(gen, reason, cerr)
			return
		}
		remaining--

		logger.Warn().Err(cerr).
			Str(wlog.FieldReason, reason.String()).
			Int("remaining", remaining).
			Msg("connection closed, reconnecting")
		reconnectsTotal.WithLabelValues(reason.String()).Inc()

		m.mu.Lock()
		stale := m.gen != gen
		if !stale {
			m.handle, m.current = nil, nil
			m.transitionLocked(lifecycle.EvClosedRetryable)
		}
		m.mu.Unlock()
		if stale {
			return
		}
		m.emitStatus(model.StatusConnecting)

		if err := m.opts.Sleep(ctx, m.opts.ReconnectBackoff); err != nil {
			return
		}
	}
}

// connect dials once and pumps events until the transport closes.
func (m *Manager) connect(ctx context.Context, gen uint64, in *inbox, phone string, logger zerolog.Logger) (model.DisconnectReason, bool, error) {
	m.mu.Lock()
	seed := m.record.Clone()
	m.mu.Unlock()
	if !seed.Paired() {
		seed = nil
	}

	t, err := m.opts.Dialer.Dial(ctx, seed, ports.DialOptions{PairingPhone: phone, Browser: m.opts.Browser})
	if err != nil {
		logger.Warn().Err(err).Msg("dial failed")
		return model.ReasonUnknown, false, fmt.Errorf("dial transport: %w", err)
	}
	defer t.End()

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return model.ReasonConnectionClosed, false, ErrSessionClosed
	}
	m.current = t
	m.mu.Unlock()

	opened := false
	for {
		select {
		case <-ctx.Done():
			return model.ReasonConnectionClosed, opened, ctx.Err()
		case ev, ok := <-t.Events():
			if !ok {
				return model.ReasonConnectionClosed, opened, errTransportEnded
			}
			switch e := ev.(type) {
			case ports.HandshakeUpdate:
				switch e.Phase {
				case ports.PhaseQR:
					m.handleQR(ctx, gen, t, phone, e.QR)
				case ports.PhaseOpen:
					if m.handleOpen(gen, t) {
						opened = true
					}
				case ports.PhaseClose:
					return e.Reason, opened, e.Err
				}
			case ports.CredentialsRotated:
				m.handleRotation(ctx, gen, e)
			case ports.MessagesReceived:
				batch := e
				m.hub.publish(Event{Kind: EventMessages, Identity: m.opts.Identity, Batch: &batch})
				if in != nil {
					in.push(e)
				}
			}
		}
	}
}

func (m *Manager) handleQR(ctx context.Context, gen uint64, t ports.Transport, phone, payload string) {
	code := ""
	if phone != "" {
		c, err := t.RequestPairingCode(ctx, jid.Digits(phone))
		if err != nil {
			m.logger.Warn().Err(err).Msg("pairing code request failed")
		} else {
			code = c
		}
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(lifecycle.EvQROffered)
	m.pending = &model.PendingHandshake{QR: payload, PairingCode: code}
	m.mu.Unlock()
	qrOffersTotal.Inc()

	if m.opts.PrintQRInTerminal && m.opts.QRWriter != nil {
		if err := qr.Terminal(m.opts.QRWriter, payload); err != nil {
			m.logger.Debug().Err(err).Msg("terminal qr render failed")
		}
	}
	if cb := m.opts.Callbacks.OnQR; cb != nil {
		cb(payload, code)
	}
	m.hub.publish(Event{Kind: EventQR, Identity: m.opts.Identity, QR: payload, PairingCode: code})
}

func (m *Manager) handleOpen(gen uint64, t ports.Transport) bool {
	m.mu.Lock()
	if m.gen != gen || m.state != model.StateConnecting {
		m.mu.Unlock()
		return false
	}
	m.transitionLocked(lifecycle.EvOpened)
	m.handle = t
	m.pending = nil
	waiters := m.takeWaitersLocked()
	m.mu.Unlock()

	ev := m.logger.Info()
	if u := t.User(); u != nil {
		ev = ev.Str(wlog.FieldJID, u.ID)
	}
	ev.Msg("session open")

	if cb := m.opts.Callbacks.OnOpen; cb != nil {
		cb(t)
	}
	m.hub.publish(Event{Kind: EventOpen, Identity: m.opts.Identity})
	m.emitStatus(model.StatusOpen)
	m.resolve(waiters, startResult{t: t})
	return true
}

func (m *Manager) handleRotation(ctx context.Context, gen uint64, e ports.CredentialsRotated) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	if m.record == nil {
		m.record = auth.NewRecord()
	}
	m.record.Apply(e.Creds, e.Keys)
	snapshot := m.record.Clone()
	m.mu.Unlock()

	unlock := credentialWrites.lock(m.opts.Identity)
	err := m.opts.Store.Save(context.WithoutCancel(ctx), m.opts.Identity, snapshot)
	unlock()
	if err != nil {
		rotationsTotal.WithLabelValues("error").Inc()
		m.logger.Error().Err(err).Msg("persisting rotated credentials failed")
		m.hub.publish(Event{Kind: EventPersistFailed, Identity: m.opts.Identity, Err: err})
		return
	}
	rotationsTotal.WithLabelValues("ok").Inc()
}

// finish settles a loop that will not reconnect.
func (m *Manager) finish(gen uint64, reason model.DisconnectReason, err error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(lifecycle.EvClosedTerminal)
	cancel := m.cancel
	m.cancel, m.handle, m.current, m.pending = nil, nil, nil, nil
	waiters := m.takeWaitersLocked()
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	closesTotal.WithLabelValues(reason.String()).Inc()
	m.logger.Warn().Err(err).Str(wlog.FieldReason, reason.String()).Msg("session disconnected")

	if cb := m.opts.Callbacks.OnClose; cb != nil {
		cb(reason, err)
	}
	m.hub.publish(Event{Kind: EventClose, Identity: m.opts.Identity, Reason: reason, Err: err})
	m.emitStatus(model.StatusClose)
	m.resolve(waiters, startResult{err: fmt.Errorf("%w: %s", ErrConnectionClosed, reason)})
}

func (m *Manager) transitionLocked(ev lifecycle.EventKind) {
	next, err := lifecycle.Next(m.state, ev)
	if err != nil {
		m.logger.Warn().Err(err).Msg("ignoring event")
		return
	}
	if next != m.state {
		m.logger.Debug().
			Str(wlog.FieldOldState, m.state.String()).
			Str(wlog.FieldNewState, next.String()).
			Str(wlog.FieldEvent, ev.String()).
			Msg("session transition")
		recordTransition(m.state, next)
	}
	m.state = next
}

func (m *Manager) emitStatus(s model.Status) {
	if cb := m.opts.Callbacks.OnConnectionStatusChange; cb != nil {
		cb(s)
	}
	m.hub.publish(Event{Kind: EventStatus, Identity: m.opts.Identity, Status: s})
}

func (m *Manager) takeWaitersLocked() []chan startResult {
	w := m.waiters
	m.waiters = nil
	return w
}

func (m *Manager) dropWaiter(ch chan startResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.waiters {
		if w == ch {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return
		}
	}
}

func (m *Manager) resolve(waiters []chan startResult, res startResult) {
	for _, ch := range waiters {
		ch <- res
	}
}
