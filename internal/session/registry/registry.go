// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package registry keeps at most one session object per identity.
//
// Get returns the first instance ever built for an identity. A later call
// with a factory carrying different configuration still gets the original
// instance; the new configuration is ignored until the identity is Cleared.
package registry

import (
	"errors"
	"sort"
	"sync"
)

// ErrEmptyIdentity is returned by Get for an empty identity.
var ErrEmptyIdentity = errors.New("registry: empty identity")

// Factory builds the instance for an identity on first use.
type Factory[T any] func(identity string) (T, error)

// Registry maps identities to instances. The zero value is ready to use.
type Registry[T any] struct {
	mu    sync.Mutex
	items map[string]T
}

// New returns an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Get returns the instance stored for identity, building and storing it
// with factory if there is none. A failed factory stores nothing.
func (r *Registry[T]) Get(identity string, factory Factory[T]) (T, error) {
	var zero T
	if identity == "" {
		return zero, ErrEmptyIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.items[identity]; ok {
		return v, nil
	}
	v, err := factory(identity)
	if err != nil {
		return zero, err
	}
	if r.items == nil {
		r.items = make(map[string]T)
	}
	r.items[identity] = v
	return v, nil
}

// Lookup returns the stored instance without building one.
func (r *Registry[T]) Lookup(identity string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[identity]
	return v, ok
}

// Clear forgets the given identities, or every identity when called with
// none. Forgotten instances are not closed.
func (r *Registry[T]) Clear(identities ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(identities) == 0 {
		r.items = nil
		return
	}
	for _, id := range identities {
		delete(r.items, id)
	}
}

// Len returns the number of stored identities.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Identities returns the stored identities in sorted order.
func (r *Registry[T]) Identities() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Each calls fn for every stored instance in identity order.
func (r *Registry[T]) Each(fn func(identity string, v T)) {
	r.mu.Lock()
	snapshot := make(map[string]T, len(r.items))
	for id, v := range r.items {
		snapshot[id] = v
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fn(id, snapshot[id])
	}
}
