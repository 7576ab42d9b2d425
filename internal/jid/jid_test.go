// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package jid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatContact(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		countryCode string
		want        string
	}{
		{name: "national number with trunk prefix", raw: "0501234567", want: "972501234567@s.whatsapp.net"},
		{name: "formatted national number", raw: "050-123-4567", want: "972501234567@s.whatsapp.net"},
		{name: "already international", raw: "+972 50 123 4567", want: "972501234567@s.whatsapp.net"},
		{name: "explicit country code", raw: "07911123456", countryCode: "44", want: "447911123456@s.whatsapp.net"},
		{name: "double zero is not a trunk prefix", raw: "00972501234567", countryCode: "972", want: "97200972501234567@s.whatsapp.net"},
		{name: "already suffixed", raw: "972501234567@s.whatsapp.net", want: "972501234567@s.whatsapp.net"},
		{name: "foreign server suffix is replaced", raw: "972501234567@c.us", want: "972501234567@s.whatsapp.net"},
		{name: "no digits", raw: "abc", want: ""},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatContact(tt.raw, tt.countryCode))
		})
	}
}

func TestFormatContactIdempotent(t *testing.T) {
	inputs := []string{"0501234567", "972501234567", "+1 (555) 010-9999", "0-0-0", "12"}
	for _, in := range inputs {
		once := FormatContact(in, "")
		assert.Equal(t, once, FormatContact(once, ""), "input %q", in)
	}
}

func TestFormatGroup(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "120363025246125244", want: "120363025246125244@g.us"},
		{raw: "120363025246125244@g.us", want: "120363025246125244@g.us"},
		{raw: "120363025246125244@s.whatsapp.net", want: "120363025246125244@g.us"},
		{raw: " 123-456 ", want: "123-456@g.us"},
		{raw: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := FormatGroup(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, FormatGroup(got))
		})
	}
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "123@g.us", Address("123@g.us", ""))
	assert.Equal(t, "972501234567@s.whatsapp.net", Address("0501234567", ""))
}

func TestBuildDeepLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/972501234567", BuildDeepLink("0501234567", ""))
	assert.Equal(t, "https://wa.me/972501234567?text=hello+there%21", BuildDeepLink("972501234567@s.whatsapp.net", "hello there!"))
}

func TestRandomPairingCode(t *testing.T) {
	t.Run("class pattern", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			code := RandomPairingCode("[a-z0-9]", 8)
			assert.Len(t, code, 8)
			assert.Regexp(t, `^[A-Z0-9]{8}$`, code)
		}
	})

	t.Run("literal of target length is deterministic", func(t *testing.T) {
		assert.Equal(t, "ABCDEFGH", RandomPairingCode("ABCDEFGH", 8))
		assert.Equal(t, "abcdefgh", RandomPairingCode("abcdefgh", 8))
	})

	t.Run("short literal is padded by repetition", func(t *testing.T) {
		assert.Equal(t, "ABCABCAB", RandomPairingCode("abc", 8))
	})

	t.Run("long literal is truncated", func(t *testing.T) {
		assert.Equal(t, "ABCDEFGH", RandomPairingCode("abcdefghij", 8))
	})

	t.Run("literal prefix with class", func(t *testing.T) {
		code := RandomPairingCode("WA[0-9]", 6)
		assert.Regexp(t, `^WA[0-9]{4}$`, code)
	})

	t.Run("defaults", func(t *testing.T) {
		code := RandomPairingCode("", 0)
		assert.Len(t, code, DefaultPairingCodeLength)
		assert.Regexp(t, `^[A-Z0-9]+$`, code)
	})
}

func TestParsePattern(t *testing.T) {
	literals, pool := parsePattern("x[a-c][b-d]y[")
	assert.Equal(t, "xy[", string(literals))
	assert.Equal(t, "abcd", string(pool))
}
