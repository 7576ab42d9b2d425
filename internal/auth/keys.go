// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package auth

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Namespace prefixes every document key written by the document store.
const Namespace = "wabridge-auth"

// CredsDocument is the document name of the credentials record.
const CredsDocument = "creds"

const (
	CategoryPreKey              = "pre-key"
	CategorySession             = "session"
	CategorySenderKey           = "sender-key"
	CategorySenderKeyMemory     = "sender-key-memory"
	CategoryAppStateSyncKey     = "app-state-sync-key"
	CategoryAppStateSyncVersion = "app-state-sync-version"
)

var categories = []string{
	CategoryPreKey,
	CategorySession,
	CategorySenderKey,
	CategorySenderKeyMemory,
	CategoryAppStateSyncKey,
	CategoryAppStateSyncVersion,
}

// longest first so "sender-key-memory" wins over "sender-key"
var categoriesByLength = func() []string {
	out := append([]string(nil), categories...)
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

// Categories returns the known signal key categories.
func Categories() []string {
	return append([]string(nil), categories...)
}

// KnownCategory reports whether c is a signal key category.
func KnownCategory(c string) bool {
	for _, k := range categories {
		if k == c {
			return true
		}
	}
	return false
}

// DocumentName returns the sanitized, reversible document name for a key.
func DocumentName(ref KeyRef) string {
	return ref.Category + "-" + url.QueryEscape(ref.ID)
}

// ParseDocumentName is the inverse of DocumentName.
func ParseDocumentName(name string) (KeyRef, error) {
	for _, c := range categoriesByLength {
		rest, ok := strings.CutPrefix(name, c+"-")
		if !ok {
			continue
		}
		id, err := url.QueryUnescape(rest)
		if err != nil {
			return KeyRef{}, fmt.Errorf("auth: document %q: %w", name, err)
		}
		return KeyRef{Category: c, ID: id}, nil
	}
	return KeyRef{}, fmt.Errorf("%w: document %q", ErrUnknownCategory, name)
}

// Validate rejects keys with unknown categories.
func (r *Record) Validate() error {
	for ref := range r.Keys {
		if !KnownCategory(ref.Category) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, ref.Category)
		}
	}
	return nil
}

// Documents serializes the record into named JSON documents.
func (r *Record) Documents() (map[string][]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	docs := make(map[string][]byte, len(r.Keys)+1)
	if r.Creds != nil {
		b, err := MarshalValue(r.Creds)
		if err != nil {
			return nil, fmt.Errorf("auth: encode creds: %w", err)
		}
		docs[CredsDocument] = b
	}
	for ref, v := range r.Keys {
		b, err := MarshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("auth: encode %s: %w", ref, err)
		}
		docs[DocumentName(ref)] = b
	}
	return docs, nil
}

// DocumentError describes a document that could not be revived.
type DocumentError struct {
	Name string
	Err  error
}

func (e DocumentError) Error() string {
	return fmt.Sprintf("document %q: %v", e.Name, e.Err)
}

// RecordFromDocuments rebuilds a record from named documents. An empty set
// yields nil. Documents that fail to decode are skipped and reported; an
// undecodable creds document leaves the record unpaired.
func RecordFromDocuments(docs map[string][]byte) (*Record, []DocumentError) {
	if len(docs) == 0 {
		return nil, nil
	}
	rec := NewRecord()
	var bad []DocumentError
	for name, data := range docs {
		v, err := UnmarshalValue(data)
		if err != nil {
			bad = append(bad, DocumentError{Name: name, Err: err})
			continue
		}
		if name == CredsDocument {
			m, ok := v.(map[string]any)
			if !ok {
				bad = append(bad, DocumentError{Name: name, Err: fmt.Errorf("creds is %T, want object", v)})
				continue
			}
			rec.Creds = Credentials(m)
			continue
		}
		ref, err := ParseDocumentName(name)
		if err != nil {
			bad = append(bad, DocumentError{Name: name, Err: err})
			continue
		}
		rec.Keys[ref] = v
	}
	sort.Slice(bad, func(i, j int) bool { return bad[i].Name < bad[j].Name })
	return rec, bad
}
