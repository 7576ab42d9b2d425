// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/wabridge/internal/auth"
	"github.com/ManuGH/wabridge/internal/auth/docstore"
	"github.com/ManuGH/wabridge/internal/auth/filestore"
	"github.com/ManuGH/wabridge/internal/compose"
	"github.com/ManuGH/wabridge/internal/compose/mediasrc"
	"github.com/ManuGH/wabridge/internal/config"
	"github.com/ManuGH/wabridge/internal/session/manager"
	"github.com/ManuGH/wabridge/internal/session/model"
	"github.com/ManuGH/wabridge/internal/session/ports"
	"github.com/ManuGH/wabridge/internal/session/registry"
	"github.com/ManuGH/wabridge/internal/transport/fake"
)

var botUser = ports.User{ID: "972500000001:3@s.whatsapp.net", Name: "bot"}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func memoryOptions(d ports.Dialer) Options {
	return Options{
		AppName:   "bot",
		Documents: &docstore.Config{Backend: docstore.BackendMemory},
		Dialer:    d,
		Logger:    nopLogger(),
	}
}

func shutdown(t *testing.T, s *Session) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Shutdown(ctx))
	})
}

func TestIdentityPrecedence(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"app name wins", Options{AppName: "shop", PairingPhone: "972501234567", AuthDir: "auth"}, "shop"},
		{"phone next", Options{PairingPhone: "972501234567", AuthDir: "auth"}, "972501234567"},
		{"auth dir", Options{AuthDir: "auth_info"}, "auth_info"},
		{"collection", Options{Documents: &docstore.Config{Backend: "redis", Collection: "sessions"}}, "sessions"},
		{"nothing", Options{}, model.DefaultIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Identity())
		})
	}
}

func TestNewWithoutStoreFailsBeforeDialing(t *testing.T) {
	d := &fake.Dialer{}
	_, err := New("bot", Options{Dialer: d})
	require.ErrorIs(t, err, auth.ErrNoStoreConfigured)
	assert.Zero(t, d.Dials())
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New("bot", Options{Dialer: &fake.Dialer{}, Documents: &docstore.Config{Backend: "mongo"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend: mongo")
}

func TestNewRequiresDialer(t *testing.T) {
	_, err := New("bot", Options{AuthDir: t.TempDir()})
	assert.ErrorIs(t, err, manager.ErrNoDialer)
}

func TestStoreSelection(t *testing.T) {
	explicit := docstore.NewShared("", docstore.NewMemory(), zerolog.Nop())

	s, err := New("bot", Options{Dialer: &fake.Dialer{}, Store: explicit, AuthDir: t.TempDir()})
	require.NoError(t, err)
	assert.Same(t, explicit, s.Store())

	s, err = New("bot", Options{Dialer: &fake.Dialer{}, AuthDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &filestore.Store{}, s.Store())
}

func TestGetReturnsSingleton(t *testing.T) {
	reg := registry.New[*Session]()
	d := &fake.Dialer{}

	first, err := Get(reg, memoryOptions(d))
	require.NoError(t, err)

	other := memoryOptions(d)
	other.CountryCode = "1"
	other.ConnectionAttempts = 9
	second, err := Get(reg, other)
	require.NoError(t, err)
	assert.Same(t, first, second, "later options are ignored for an existing identity")

	reg.Clear("bot")
	third, err := Get(reg, memoryOptions(d))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestGetNilRegistryUsesDefault(t *testing.T) {
	t.Cleanup(func() { DefaultRegistry.Clear() })
	opts := memoryOptions(&fake.Dialer{})
	opts.AppName = "default-registry-test"

	s, err := Get(nil, opts)
	require.NoError(t, err)
	got, ok := DefaultRegistry.Lookup("default-registry-test")
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestPairThenSendText(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var qrs []string
	d := fake.AutoPair(botUser, "qr-payload")
	opts := memoryOptions(d)
	opts.Callbacks.OnQR = func(qr, _ string) { qrs = append(qrs, qr) }

	s, err := Get(registry.New[*Session](), opts)
	require.NoError(t, err)

	ctx := context.Background()
	tr, err := s.Start(ctx, manager.StartOptions{})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, []string{"qr-payload"}, qrs)
	assert.True(t, s.IsConnected())

	sent, err := s.Messages().SendText(ctx, "0501234567", "hi", "")
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)

	out := d.Last().Sent()
	require.Len(t, out, 1)
	assert.Equal(t, "972501234567@s.whatsapp.net", out[0].To)
	assert.Equal(t, "hi", out[0].Content.Text)

	saved, err := s.Store().Load(ctx, "bot")
	require.NoError(t, err)
	assert.True(t, saved.Paired())

	require.NoError(t, s.Shutdown(ctx))
}

func TestSendConnectsOnDemand(t *testing.T) {
	d := fake.AutoPair(botUser, "qr")
	s, err := New("bot", memoryOptions(d))
	require.NoError(t, err)
	shutdown(t, s)

	_, err = s.Messages().SendFile(context.Background(), "0501234567", compose.File{
		Source: mediasrc.Source{Data: []byte("??"), FileName: "notes.xyz"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, d.Dials())

	media := d.Last().Sent()[0].Content.Media
	assert.Equal(t, ports.MediaDocument, media.Kind)
	assert.Equal(t, mediasrc.OfficeDocumentMIME, media.MimeType)
}

func TestGroupsShareConnection(t *testing.T) {
	d := fake.AutoPair(botUser, "qr")
	s, err := New("bot", memoryOptions(d))
	require.NoError(t, err)
	shutdown(t, s)

	ctx := context.Background()
	meta, err := s.Groups().CreateGroup(ctx, "team", []string{"0501234567"})
	require.NoError(t, err)
	_, err = s.Messages().SendText(ctx, meta.ID, "welcome", "")
	require.NoError(t, err)

	assert.Equal(t, 1, d.Dials())
	assert.Equal(t, meta.ID, d.Last().Sent()[0].To)
}

func TestResetClearsCredentials(t *testing.T) {
	d := fake.AutoPair(botUser, "qr")
	opts := memoryOptions(d)
	opts.ResetDelay = -1
	s, err := New("bot", opts)
	require.NoError(t, err)
	shutdown(t, s)

	ctx := context.Background()
	_, err = s.Start(ctx, manager.StartOptions{})
	require.NoError(t, err)

	tr, err := s.ResetConnection(ctx, manager.ResetOptions{DisableAutoConnect: true})
	require.NoError(t, err)
	assert.Nil(t, tr)

	rec, err := s.Store().Load(ctx, "bot")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, model.StateDisconnected, s.State())
}

func TestFromConfig(t *testing.T) {
	cfg, err := config.NewLoader("", "").Load()
	require.NoError(t, err)
	cfg.AppName = "shop"
	cfg.Auth.Path = filepath.Join(t.TempDir(), "auth")

	opts := FromConfig(cfg, &fake.Dialer{})
	assert.Equal(t, "shop", opts.Identity())
	assert.Equal(t, cfg.Auth.Path, opts.AuthDir)
	assert.Nil(t, opts.Documents)
	assert.NotNil(t, opts.Limiter)
	assert.Equal(t, [3]string{"wabridge", "Chrome", "1.0"}, opts.Browser)
	assert.Equal(t, cfg.Session.ConnectionAttempts, opts.ConnectionAttempts)

	cfg.Session.ConnectionAttempts = 0
	assert.Equal(t, manager.NoReconnect, FromConfig(cfg, &fake.Dialer{}).ConnectionAttempts,
		"a configured zero means no reconnects")
	cfg.Session.ConnectionAttempts = 3

	cfg.Auth.Backend = config.BackendRedis
	cfg.Auth.Redis.Addr = "localhost:6379"
	cfg.Auth.Collection = "shop-auth"
	opts = FromConfig(cfg, &fake.Dialer{})
	require.NotNil(t, opts.Documents)
	assert.Equal(t, docstore.BackendRedis, opts.Documents.Backend)
	assert.Equal(t, "localhost:6379", opts.Documents.Redis.Addr)
	assert.Empty(t, opts.AuthDir)
}
