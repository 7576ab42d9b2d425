// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package auth

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *Record {
	return &Record{
		Creds: Credentials{
			"noiseKey": map[string]any{
				"private": []byte{0x01, 0x02, 0xff},
				"public":  []byte{0x00},
			},
			"registrationId": float64(4242),
			"me":             map[string]any{"id": "972501234567:3@s.whatsapp.net", "name": "ops"},
			"platform":       nil,
			"accountSync":    []any{float64(1), "two", true},
		},
		Keys: map[KeyRef]any{
			{Category: CategoryPreKey, ID: "17"}:                              map[string]any{"public": []byte("pub"), "private": []byte("priv")},
			{Category: CategorySession, ID: "972501234567.0"}:                 []byte("session-blob"),
			{Category: CategorySenderKey, ID: "120363@g.us::972501234567::0"}: []byte{0xde, 0xad},
			{Category: CategorySenderKeyMemory, ID: "120363@g.us"}:            map[string]any{"972501234567:3@s.whatsapp.net": true},
			{Category: CategoryAppStateSyncKey, ID: "AAAAAH/z"}:               map[string]any{"keyData": []byte{9, 9}},
			{Category: CategoryAppStateSyncVersion, ID: "regular_high"}:       map[string]any{"version": float64(3), "hash": []byte{}},
		},
	}
}

func TestEncodeWrapsBytes(t *testing.T) {
	b, err := MarshalValue(map[string]any{"k": []byte("hi"), "n": float64(1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":{"type":"Buffer","data":"aGk="},"n":1}`, string(b))
}

func TestDecodeRevivesBothBufferForms(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"a":{"type":"Buffer","data":"aGk="},"b":{"type":"Buffer","data":[104,105]}}`))
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, []byte("hi"), m["a"])
	assert.Equal(t, []byte("hi"), m["b"])
}

func TestDecodeLeavesLookalikesAlone(t *testing.T) {
	cases := []string{
		`{"type":"Buffer","data":"not base64!"}`,
		`{"type":"Buffer","data":[300]}`,
		`{"type":"Buffer","data":"aGk=","extra":1}`,
		`{"type":"Other","data":"aGk="}`,
	}
	for _, in := range cases {
		v, err := UnmarshalValue([]byte(in))
		require.NoError(t, err)
		var want any
		require.NoError(t, json.Unmarshal([]byte(in), &want))
		assert.Equal(t, want, v, in)
	}
}

func TestDocumentsRoundTrip(t *testing.T) {
	rec := sampleRecord()
	docs, err := rec.Documents()
	require.NoError(t, err)
	assert.Len(t, docs, len(rec.Keys)+1)
	assert.Contains(t, docs, CredsDocument)
	assert.Contains(t, docs, "sender-key-120363%40g.us%3A%3A972501234567%3A%3A0")

	got, bad := RecordFromDocuments(docs)
	assert.Empty(t, bad)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordFromDocumentsSkipsBadEntries(t *testing.T) {
	got, bad := RecordFromDocuments(map[string][]byte{
		CredsDocument:   []byte(`{broken`),
		"pre-key-1":     []byte(`{"type":"Buffer","data":"AQ=="}`),
		"mystery-thing": []byte(`{}`),
	})
	require.NotNil(t, got)
	assert.False(t, got.Paired())
	assert.Equal(t, []byte{1}, got.Keys[KeyRef{Category: CategoryPreKey, ID: "1"}])
	require.Len(t, bad, 2)
	assert.Equal(t, CredsDocument, bad[0].Name)
	assert.Equal(t, "mystery-thing", bad[1].Name)
}

func TestRecordFromNoDocumentsIsNil(t *testing.T) {
	got, bad := RecordFromDocuments(nil)
	assert.Nil(t, got)
	assert.Nil(t, bad)
}

func TestParseDocumentNamePrefersLongestCategory(t *testing.T) {
	ref, err := ParseDocumentName("sender-key-memory-120363%40g.us")
	require.NoError(t, err)
	assert.Equal(t, KeyRef{Category: CategorySenderKeyMemory, ID: "120363@g.us"}, ref)

	ref, err = ParseDocumentName("app-state-sync-version-critical_block")
	require.NoError(t, err)
	assert.Equal(t, KeyRef{Category: CategoryAppStateSyncVersion, ID: "critical_block"}, ref)

	_, err = ParseDocumentName("nope-1")
	assert.True(t, errors.Is(err, ErrUnknownCategory))
}

func TestDocumentsRejectsUnknownCategory(t *testing.T) {
	rec := NewRecord()
	rec.Keys[KeyRef{Category: "bogus", ID: "1"}] = []byte{1}
	_, err := rec.Documents()
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestApplyMergesAndDeletes(t *testing.T) {
	rec := NewRecord()
	pk := KeyRef{Category: CategoryPreKey, ID: "1"}
	rec.Apply(Credentials{"a": float64(1)}, map[KeyRef]any{pk: []byte{1}})
	rec.Apply(Credentials{"b": float64(2)}, nil)
	assert.Equal(t, Credentials{"a": float64(1), "b": float64(2)}, rec.Creds)
	assert.Contains(t, rec.Keys, pk)

	rec.Apply(nil, map[KeyRef]any{pk: nil})
	assert.NotContains(t, rec.Keys, pk)
}

func TestCloneIsDeep(t *testing.T) {
	rec := sampleRecord()
	cp := rec.Clone()
	cp.Creds["noiseKey"].(map[string]any)["private"].([]byte)[0] = 0x7f
	assert.Equal(t, byte(0x01), rec.Creds["noiseKey"].(map[string]any)["private"].([]byte)[0])
	assert.Nil(t, (*Record)(nil).Clone())
}

func TestEncodeWalksTypedContainers(t *testing.T) {
	b, err := MarshalValue(map[string]any{
		"blobs": map[string][]byte{"k": []byte("hi")},
		"list":  [][]byte{[]byte("hi")},
		"arr":   [2]byte{1, 2},
		"n":     7,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"blobs":{"k":{"type":"Buffer","data":"aGk="}},
		"list":[{"type":"Buffer","data":"aGk="}],
		"arr":{"type":"Buffer","data":"AQI="},
		"n":7
	}`, string(b))
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(map[string]any{"n": 77, "s": []string{"a"}, "b": []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(77), "s": []any{"a"}, "b": []byte{1}}, got)

	_, err = Normalize(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestApplyStoresNormalizedValues(t *testing.T) {
	rec := NewRecord()
	pk := KeyRef{Category: CategoryPreKey, ID: "1"}
	rec.Apply(Credentials{"registrationId": 77}, map[KeyRef]any{pk: map[string][]byte{"private": {5}}})

	docs, err := rec.Documents()
	require.NoError(t, err)
	loaded, bad := RecordFromDocuments(docs)
	require.Empty(t, bad)
	if diff := cmp.Diff(rec, loaded); diff != "" {
		t.Fatalf("applied record differs from persisted form (-want +got):\n%s", diff)
	}
}
