// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestAllowPerChatBurst(t *testing.T) {
	l := New(Config{GlobalRate: rate.Inf, PerChatRate: rate.Every(time.Hour), PerChatBurst: 2, CleanupInterval: time.Hour})

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "other chats are independent")
}

func TestAllowGlobal(t *testing.T) {
	l := New(Config{GlobalRate: rate.Every(time.Hour), GlobalBurst: 1, PerChatRate: rate.Inf, CleanupInterval: time.Hour})
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("b"))
}

func TestWaitHonoursContext(t *testing.T) {
	l := New(Config{GlobalRate: rate.Inf, PerChatRate: rate.Every(time.Hour), PerChatBurst: 1, CleanupInterval: time.Hour})
	require.NoError(t, l.Wait(context.Background(), "a"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "a"))
}

func TestUnlimitedNeverBlocks(t *testing.T) {
	l := New(Unlimited())
	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Wait(context.Background(), "a"))
	}
}

func TestCleanupDropsIdleChats(t *testing.T) {
	l := New(DefaultConfig())
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Tracked())

	now = now.Add(DefaultConfig().CleanupInterval + time.Second)
	l.Allow("c")
	assert.Equal(t, 1, l.Tracked())
}
