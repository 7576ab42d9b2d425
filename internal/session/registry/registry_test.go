// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package registry

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	identity string
	appName  string
}

func factoryFor(appName string, built *atomic.Int32) Factory[*session] {
	return func(identity string) (*session, error) {
		built.Add(1)
		return &session{identity: identity, appName: appName}, nil
	}
}

func TestGetReturnsSameInstancePerIdentity(t *testing.T) {
	r := New[*session]()
	var built atomic.Int32

	a1, err := r.Get("app-x", factoryFor("first", &built))
	require.NoError(t, err)
	a2, err := r.Get("app-x", factoryFor("second", &built))
	require.NoError(t, err)
	b, err := r.Get("app-y", factoryFor("other", &built))
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.Equal(t, "first", a2.appName, "later configuration is ignored")
	assert.Equal(t, int32(2), built.Load())
}

func TestGetFactoryErrorStoresNothing(t *testing.T) {
	r := New[*session]()
	boom := errors.New("boom")

	_, err := r.Get("app-x", func(string) (*session, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Len())

	var built atomic.Int32
	s, err := r.Get("app-x", factoryFor("retry", &built))
	require.NoError(t, err)
	assert.Equal(t, "retry", s.appName)
}

func TestGetRejectsEmptyIdentity(t *testing.T) {
	var r Registry[*session]
	var built atomic.Int32
	_, err := r.Get("", factoryFor("x", &built))
	assert.ErrorIs(t, err, ErrEmptyIdentity)
	assert.Zero(t, built.Load())
}

func TestGetConcurrentBuildsOnce(t *testing.T) {
	r := New[*session]()
	var built atomic.Int32

	var wg sync.WaitGroup
	got := make([]*session, 32)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = r.Get("shared", factoryFor("x", &built))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), built.Load())
	for _, s := range got {
		assert.Same(t, got[0], s)
	}
}

func TestClear(t *testing.T) {
	r := New[*session]()
	var built atomic.Int32
	for _, id := range []string{"c", "a", "b"} {
		_, err := r.Get(id, factoryFor(id, &built))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c"}, r.Identities())

	old, _ := r.Lookup("a")
	r.Clear("a")
	_, ok := r.Lookup("a")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())

	fresh, err := r.Get("a", factoryFor("again", &built))
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)

	r.Clear()
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Identities())
}

func TestEachVisitsInOrder(t *testing.T) {
	r := New[*session]()
	var built atomic.Int32
	for _, id := range []string{"z", "m", "a"} {
		_, _ = r.Get(id, factoryFor(id, &built))
	}
	var seen []string
	r.Each(func(id string, s *session) {
		assert.Equal(t, id, s.identity)
		seen = append(seen, id)
	})
	assert.Equal(t, []string{"a", "m", "z"}, seen)
}
