// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package jid canonicalizes phone numbers and group tokens into protocol
// addresses. All functions are pure.
package jid

import (
	"net/url"
	"strings"
)

const (
	// ContactSuffix marks an individual (user) address.
	ContactSuffix = "@s.whatsapp.net"
	// GroupSuffix marks a group address.
	GroupSuffix = "@g.us"

	// DefaultCountryCode is prepended to national numbers without one.
	DefaultCountryCode = "972"

	deepLinkBase = "https://wa.me/"
)

// Digits returns only the ASCII digits of raw.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// IsGroup reports whether id is a canonical group address.
func IsGroup(id string) bool {
	return strings.HasSuffix(id, GroupSuffix)
}

// IsContact reports whether id is a canonical contact address.
func IsContact(id string) bool {
	return strings.HasSuffix(id, ContactSuffix)
}

// User returns the part of id before the '@' server separator.
func User(id string) string {
	if i := strings.IndexByte(id, '@'); i >= 0 {
		return id[:i]
	}
	return id
}

// FormatContact converts a raw phone number into a contact address.
//
// Non-digits are stripped, a national trunk prefix ("0" followed by a
// non-zero digit) loses its leading zero, and countryCode is prepended unless
// the number already starts with it. Already-suffixed input is returned
// unchanged, so the function is idempotent. An input without digits yields "".
func FormatContact(raw, countryCode string) string {
	raw = strings.TrimSpace(raw)
	if IsContact(raw) {
		return raw
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	countryCode = Digits(countryCode)

	digits := Digits(User(raw))
	if digits == "" {
		return ""
	}
	if len(digits) >= 2 && digits[0] == '0' && digits[1] != '0' {
		digits = digits[1:]
	}
	if !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}
	return digits + ContactSuffix
}

// FormatGroup converts a raw group token into a group address. Any existing
// server suffix is replaced. Already-suffixed input is returned unchanged.
func FormatGroup(raw string) string {
	raw = strings.TrimSpace(raw)
	if IsGroup(raw) {
		return raw
	}
	token := strings.TrimSpace(User(raw))
	if token == "" {
		return ""
	}
	return token + GroupSuffix
}

// Address canonicalizes a send target: group addresses pass through, anything
// else is treated as a phone number.
func Address(raw, countryCode string) string {
	if IsGroup(strings.TrimSpace(raw)) {
		return strings.TrimSpace(raw)
	}
	return FormatContact(raw, countryCode)
}

// BuildDeepLink returns a click-to-chat URL for contact, optionally with a
// prefilled message.
func BuildDeepLink(contact, message string) string {
	digits := User(FormatContact(contact, ""))
	link := deepLinkBase + digits
	if message != "" {
		link += "?text=" + url.QueryEscape(message)
	}
	return link
}
