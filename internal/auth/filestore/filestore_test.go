// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/wabridge/internal/auth"
)

func record() *auth.Record {
	rec := auth.NewRecord()
	rec.Creds = auth.Credentials{
		"noiseKey":       map[string]any{"private": []byte{1, 2, 3}, "public": []byte{4}},
		"registrationId": float64(77),
		"me":             map[string]any{"id": "972501234567:1@s.whatsapp.net"},
	}
	rec.Keys[auth.KeyRef{Category: auth.CategoryPreKey, ID: "1"}] = map[string]any{"private": []byte{9}}
	rec.Keys[auth.KeyRef{Category: auth.CategorySession, ID: "972501234567.0"}] = []byte("s")
	rec.Keys[auth.KeyRef{Category: auth.CategorySenderKey, ID: "g/1:2"}] = []byte("sk")
	return rec
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, auth.ErrNoStoreConfigured)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	want := record()

	require.NoError(t, s.Save(ctx, "bot-1", want))
	got, err := s.Load(ctx, "bot-1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	names, err := filepath.Glob(filepath.Join(s.Dir("bot-1"), "*.json"))
	require.NoError(t, err)
	var base []string
	for _, n := range names {
		base = append(base, filepath.Base(n))
	}
	assert.ElementsMatch(t, []string{
		"creds.json",
		"pre-key-1.json",
		"session-972501234567.0.json",
		"sender-key-g%2F1%3A2.json",
	}, base)
}

func TestCredsFileUsesBufferEnvelope(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, "bot", record()))

	data, err := os.ReadFile(filepath.Join(s.Dir("bot"), "creds.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"private":{"type":"Buffer","data":"AQID"}`)
}

func TestSaveDropsStaleKeys(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	rec := record()
	require.NoError(t, s.Save(ctx, "bot", rec))

	rec.Apply(nil, map[auth.KeyRef]any{{Category: auth.CategoryPreKey, ID: "1"}: nil})
	require.NoError(t, s.Save(ctx, "bot", rec))

	_, err := os.Stat(filepath.Join(s.Dir("bot"), "pre-key-1.json"))
	assert.True(t, os.IsNotExist(err))

	got, err := s.Load(ctx, "bot")
	require.NoError(t, err)
	assert.Len(t, got.Keys, 2)
}

func TestLoadMissingIsNil(t *testing.T) {
	got, err := newStore(t).Load(context.Background(), "never")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadCorruptCredsIsUnpaired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, os.MkdirAll(s.Dir("bot"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir("bot"), "creds.json"), []byte("{nope"), 0o600))

	got, err := s.Load(ctx, "bot")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Paired())
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, "bot", record()))
	require.NoError(t, s.Remove(ctx, "bot"))

	got, err := s.Load(ctx, "bot")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Remove(ctx, "bot"), "removing twice is fine")
}

func TestEmptyIdentityRejected(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_, err := s.Load(ctx, "")
	assert.ErrorIs(t, err, auth.ErrEmptyIdentity)
	assert.ErrorIs(t, s.Save(ctx, "", record()), auth.ErrEmptyIdentity)
	assert.ErrorIs(t, s.Remove(ctx, ""), auth.ErrEmptyIdentity)
}

func TestDotIdentitiesStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, "other-bot", record()))

	for _, id := range []string{".", "..", "..."} {
		t.Run(id, func(t *testing.T) {
			dir := s.Dir(id)
			assert.Equal(t, s.root, filepath.Dir(dir))
			assert.NotEqual(t, s.root, dir)

			require.NoError(t, s.Save(ctx, id, record()))
			require.NoError(t, s.Remove(ctx, id))

			_, err := os.Stat(s.Dir("other-bot"))
			require.NoError(t, err, "removing %q must not touch other identities", id)
		})
	}
	_, err := os.Stat(filepath.Dir(s.root))
	require.NoError(t, err)
}

func TestDirNameDoesNotCollide(t *testing.T) {
	assert.NotEqual(t, dirName("."), dirName("%2E"))
	assert.Equal(t, "bot-1", dirName("bot-1"))
	assert.Equal(t, "a.b", dirName("a.b"))
}

func TestSaveLoadTypedValues(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	rec := auth.NewRecord()
	rec.Apply(auth.Credentials{
		"registrationId": 77,
		"list":           []string{"a"},
		"blobs":          map[string][]byte{"k": {1, 2}},
	}, map[auth.KeyRef]any{{Category: auth.CategorySession, ID: "1.0"}: [][]byte{{9}}})

	assert.Equal(t, float64(77), rec.Creds["registrationId"])

	require.NoError(t, s.Save(ctx, "bot-1", rec))
	got, err := s.Load(ctx, "bot-1")
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []byte{1, 2}, got.Creds["blobs"].(map[string]any)["k"])
	assert.Equal(t, []any{[]byte{9}}, got.Keys[auth.KeyRef{Category: auth.CategorySession, ID: "1.0"}])
}
