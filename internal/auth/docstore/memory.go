// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package docstore

import (
	"bytes"
	"context"
	"strings"
	"sync"
)

// Memory is an in-process Collection. Documents do not survive a restart.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory returns an empty in-memory collection.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Scan(_ context.Context, prefix string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte)
	for k, v := range m.docs {
		if strings.HasPrefix(k, prefix) {
			out[k] = bytes.Clone(v)
		}
	}
	return out, nil
}

func (m *Memory) Replace(_ context.Context, prefix string, docs map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(prefix)
	for k, v := range docs {
		m.docs[k] = bytes.Clone(v)
	}
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(prefix)
	return nil
}

func (m *Memory) deleteLocked(prefix string) {
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			delete(m.docs, k)
		}
	}
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *Memory) Close() error { return nil }
