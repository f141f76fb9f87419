// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry_test

import (
	"testing"

	"code.hybscloud.com/romp/registry"
	"github.com/stretchr/testify/require"
)

type dummy struct{ n int }

func TestRegisterGet(t *testing.T) {
	r := registry.New()
	obj := &dummy{n: 1}
	id, err := r.Register(obj)
	require.NoError(t, err)
	require.NotEqual(t, registry.ResolverID, id)

	got, ok := r.Get(id)
	require.True(t, ok)
	require.Same(t, obj, got)
}

func TestBindResolve(t *testing.T) {
	r := registry.New()
	obj := &dummy{}
	id, err := r.Register(obj)
	require.NoError(t, err)

	r.Bind("foo", id)
	gotID, ok := r.Resolve("foo")
	require.True(t, ok)
	require.Equal(t, id, gotID)

	got, ok := r.Get(gotID)
	require.True(t, ok)
	require.Same(t, obj, got)
}

func TestUnregisterLeaksID(t *testing.T) {
	r := registry.New()
	obj := &dummy{}
	id, err := r.Register(obj)
	require.NoError(t, err)

	r.Unregister(obj)
	_, ok := r.Get(id)
	require.False(t, ok, "unregistered object must no longer resolve")

	// The base design never returns the id to the free list, so a
	// subsequent Register must not reuse it.
	second, err := r.Register(&dummy{})
	require.NoError(t, err)
	require.NotEqual(t, id, second)
}

func TestResolverIDNeverAllocated(t *testing.T) {
	r := registry.New()
	for i := 0; i < 10; i++ {
		id, err := r.Register(&dummy{n: i})
		require.NoError(t, err)
		require.NotEqual(t, registry.ResolverID, id)
	}
}

func TestRegisterResolver(t *testing.T) {
	r := registry.New()
	resolver := &dummy{n: -1}
	r.RegisterResolver(resolver)

	got, ok := r.Get(registry.ResolverID)
	require.True(t, ok)
	require.Same(t, resolver, got)
}

func TestLookupID(t *testing.T) {
	r := registry.New()
	obj := &dummy{}
	id, err := r.Register(obj)
	require.NoError(t, err)

	gotID, ok := r.LookupID(obj)
	require.True(t, ok)
	require.Equal(t, id, gotID)

	_, ok = r.LookupID(&dummy{})
	require.False(t, ok)
}
