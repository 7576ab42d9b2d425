// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ratelimit paces outbound sends so a session does not trip the
// network's spam heuristics.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var sendThrottled = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "wabridge",
		Name:      "send_throttled_total",
		Help:      "Outbound sends that had to wait for a rate limit token",
	},
	[]string{"scope"},
)

// Config holds rate limiting configuration.
type Config struct {
	// Global limits across all recipients of one session
	GlobalRate  rate.Limit // messages per second
	GlobalBurst int

	// Per-recipient limits
	PerChatRate  rate.Limit
	PerChatBurst int

	// Idle per-recipient limiters are dropped after this long
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		GlobalRate:      20,
		GlobalBurst:     40,
		PerChatRate:     1,
		PerChatBurst:    5,
		CleanupInterval: 10 * time.Minute,
	}
}

// Unlimited returns a config that never blocks.
func Unlimited() Config {
	return Config{GlobalRate: rate.Inf, PerChatRate: rate.Inf, CleanupInterval: time.Hour}
}

type chatLimiter struct {
	lim      *rate.Limiter
	lastUsed time.Time
}

// Limiter manages outbound pacing for one session.
type Limiter struct {
	config Config

	global  *rate.Limiter
	perChat map[string]*chatLimiter
	mu      sync.Mutex

	lastCleanup time.Time
	now         func() time.Time
}

// New creates a new limiter with the given config.
func New(config Config) *Limiter {
	return &Limiter{
		config:      config,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perChat:     make(map[string]*chatLimiter),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Wait blocks until a send to chat is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, chat string) error {
	if err := wait(ctx, l.global, "global"); err != nil {
		return err
	}
	return wait(ctx, l.chatLimiter(chat), "per_chat")
}

func wait(ctx context.Context, lim *rate.Limiter, scope string) error {
	if lim.Allow() {
		return nil
	}
	sendThrottled.WithLabelValues(scope).Inc()
	return lim.Wait(ctx)
}

// Allow reports whether a send to chat may happen now without waiting.
func (l *Limiter) Allow(chat string) bool {
	if !l.global.Allow() {
		sendThrottled.WithLabelValues("global").Inc()
		return false
	}
	if !l.chatLimiter(chat).Allow() {
		sendThrottled.WithLabelValues("per_chat").Inc()
		return false
	}
	return true
}

func (l *Limiter) chatLimiter(chat string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) >= l.config.CleanupInterval {
		for k, cl := range l.perChat {
			if now.Sub(cl.lastUsed) >= l.config.CleanupInterval {
				delete(l.perChat, k)
			}
		}
		l.lastCleanup = now
	}

	cl, ok := l.perChat[chat]
	if !ok {
		cl = &chatLimiter{lim: rate.NewLimiter(l.config.PerChatRate, l.config.PerChatBurst)}
		l.perChat[chat] = cl
	}
	cl.lastUsed = now
	return cl.lim
}

// Tracked returns the number of recipients with a live limiter.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perChat)
}
