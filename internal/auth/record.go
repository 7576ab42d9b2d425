// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package auth

import (
	"bytes"
	"fmt"
)

// Credentials is the opaque credential tree produced by the transport.
// Values are JSON-compatible (maps, slices, strings, numbers, bools, nil)
// with []byte leaves for binary material.
type Credentials map[string]any

// KeyRef addresses one signal key.
type KeyRef struct {
	Category string
	ID       string
}

func (k KeyRef) String() string {
	return k.Category + "/" + k.ID
}

// Record is the full persisted auth state of one identity.
// A nil Creds means the identity has never completed pairing.
type Record struct {
	Creds Credentials
	Keys  map[KeyRef]any
}

// NewRecord returns an empty record for an unpaired identity.
func NewRecord() *Record {
	return &Record{Keys: make(map[KeyRef]any)}
}

// Paired reports whether the record carries credentials.
func (r *Record) Paired() bool {
	return r != nil && r.Creds != nil
}

// Apply merges a credential/key delta into the record. Non-nil creds are
// merged key by key; a key delta with a nil value deletes that key. Values are
// stored normalized, so the record equals what a store loads back. A value
// that cannot be encoded is kept as given and fails the next Save.
func (r *Record) Apply(creds Credentials, keys map[KeyRef]any) {
	if creds != nil {
		if r.Creds == nil {
			r.Creds = make(Credentials, len(creds))
		}
		for k, v := range creds {
			r.Creds[k] = normalizedOr(v)
		}
	}
	if len(keys) == 0 {
		return
	}
	if r.Keys == nil {
		r.Keys = make(map[KeyRef]any, len(keys))
	}
	for ref, v := range keys {
		if v == nil {
			delete(r.Keys, ref)
			continue
		}
		r.Keys[ref] = normalizedOr(v)
	}
}

func normalizedOr(v any) any {
	n, err := Normalize(v)
	if err != nil {
		return v
	}
	return n
}

// Normalize rewrites every value of the record in place into its persisted
// form. See the package-level Normalize.
func (r *Record) Normalize() error {
	if r == nil {
		return nil
	}
	if r.Creds != nil {
		n, err := Normalize(map[string]any(r.Creds))
		if err != nil {
			return err
		}
		m, _ := n.(map[string]any)
		r.Creds = Credentials(m)
	}
	for ref, v := range r.Keys {
		n, err := Normalize(v)
		if err != nil {
			return fmt.Errorf("key %s: %w", ref, err)
		}
		r.Keys[ref] = n
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{Keys: make(map[KeyRef]any, len(r.Keys))}
	if r.Creds != nil {
		out.Creds = cloneValue(map[string]any(r.Creds)).(map[string]any)
	}
	for ref, v := range r.Keys {
		out.Keys[ref] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return bytes.Clone(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = cloneValue(val)
		}
		return out
	case Credentials:
		return cloneValue(map[string]any(x))
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
