//go:build unix

package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagetls/internal/page"
	"github.com/joshuapare/pagetls/pkg/types"
)

func newRegion(t *testing.T, a *page.Allocator, owner types.ThreadID, n int) *Region {
	t.Helper()
	refs := make([]page.Ref, n)
	for i := range refs {
		r, err := a.Allocate()
		require.NoError(t, err)
		refs[i] = r
	}
	return NewRegion(owner, n*a.PageSize(), refs)
}

func TestRegister_LookupRemove(t *testing.T) {
	a := page.NewAllocator(nil)
	g := New()

	r := newRegion(t, a, 7, 2)
	require.NoError(t, g.Register(r))
	assert.Equal(t, 1, g.Len())

	got, ok := g.Lookup(7)
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = g.Lookup(8)
	assert.False(t, ok)

	removed, ok := g.Remove(7)
	require.True(t, ok)
	assert.Same(t, r, removed)
	_, ok = g.Remove(7)
	assert.False(t, ok)
	assert.Zero(t, g.Len())

	assert.Equal(t, 2, removed.ReleasePages())
	assert.Zero(t, a.Live())
}

func TestRegister_AlreadyExists(t *testing.T) {
	a := page.NewAllocator(nil)
	g := New()

	first := newRegion(t, a, 1, 1)
	require.NoError(t, g.Register(first))

	second := newRegion(t, a, 1, 1)
	err := g.Register(second)
	require.ErrorIs(t, err, types.ErrAlreadyExists)

	second.ReleasePages()
	r, _ := g.Remove(1)
	r.ReleasePages()
	assert.Zero(t, a.Live())
}

func TestOwns_ScansEveryRegion(t *testing.T) {
	a := page.NewAllocator(nil)
	g := New()

	r1 := newRegion(t, a, 1, 1)
	r2 := newRegion(t, a, 2, 3)
	require.NoError(t, g.Register(r1))
	require.NoError(t, g.Register(r2))

	id, ok := g.Owns(r2.Page(2).Addr() + 17)
	require.True(t, ok)
	assert.Equal(t, types.ThreadID(2), id)

	id, ok = g.Owns(r1.Page(0).Addr())
	require.True(t, ok)
	assert.Equal(t, types.ThreadID(1), id)

	unrelated := make([]byte, 8)
	_, ok = g.Owns(uintptrOf(unrelated))
	assert.False(t, ok)

	addr := r2.Page(0).Addr()
	for _, id := range []types.ThreadID{1, 2} {
		r, _ := g.Remove(id)
		r.ReleasePages()
	}
	assert.Zero(t, r2.NumPages())
	_, ok = g.Owns(addr)
	assert.False(t, ok)
}

func TestReplacePage(t *testing.T) {
	a := page.NewAllocator(nil)
	g := New()

	r := newRegion(t, a, 3, 2)
	require.NoError(t, g.Register(r))
	oldAddr := r.Page(1).Addr()

	fresh, err := a.Allocate()
	require.NoError(t, err)
	newAddr := fresh.Page().Addr()

	old := g.ReplacePage(r, 1, fresh.Take())
	assert.False(t, fresh.Valid(), "handle moved into the region")
	assert.EqualValues(t, 1, r.Page(1).Refs())
	assert.Equal(t, oldAddr, old.Page().Addr())
	assert.Equal(t, newAddr, r.Page(1).Addr())
	assert.True(t, old.Release())

	_, ok := g.Owns(newAddr)
	assert.True(t, ok)

	r, _ = g.Remove(3)
	r.ReleasePages()
	assert.Zero(t, a.Live())
}

func TestSharePages_Deduplicates(t *testing.T) {
	a := page.NewAllocator(nil)
	g := New()

	src := newRegion(t, a, 1, 2)
	require.NoError(t, g.Register(src))

	src.Lock()
	clone := NewRegion(2, src.Size, src.SharePages())
	src.Unlock()
	require.NoError(t, g.Register(clone))
	assert.Equal(t, int32(2), src.Page(0).Refs())

	refs := g.SharePages()
	assert.Len(t, refs, 2)
	assert.Equal(t, int32(3), src.Page(0).Refs())
	for i := range refs {
		refs[i].Release()
	}

	for _, id := range []types.ThreadID{1, 2} {
		r, _ := g.Remove(id)
		r.ReleasePages()
	}
	assert.Zero(t, a.Live())
}

func TestRegistry_Concurrent(t *testing.T) {
	a := page.NewAllocator(nil)
	g := New()

	const workers = 16
	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id types.ThreadID) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				ref, err := a.Allocate()
				if err != nil {
					t.Errorf("allocate: %v", err)
					return
				}
				r := NewRegion(id, a.PageSize(), []page.Ref{ref})
				if err := g.Register(r); err != nil {
					t.Errorf("register %d: %v", id, err)
					return
				}
				g.Owns(r.Page(0).Addr())
				got, ok := g.Remove(id)
				if !ok {
					t.Errorf("remove %d: missing", id)
					return
				}
				got.ReleasePages()
			}
		}(types.ThreadID(w))
	}
	wg.Wait()
	assert.Zero(t, g.Len())
	assert.Zero(t, a.Live())
}
