// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "strings"

// DefaultIdentity is used when nothing else names the session.
const DefaultIdentity = "default"

// DeriveIdentity picks the first non-empty of the application name, the
// pairing phone and the store name.
func DeriveIdentity(appName, pairingPhone, storeName string) string {
	for _, c := range []string{appName, pairingPhone, storeName} {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return DefaultIdentity
}
