// Package registry maps thread identities to their TLS regions.
//
// The Registry is the only structure from which a Region can be reached. It
// is guarded by a spinlock rather than a sync.Mutex because the fault
// handler consults it from a goroutine that has just taken a memory fault:
// Owns must never park, never allocate, and only ever wait behind critical
// sections that are themselves short and fault-free.
package registry

import (
	"fmt"
	"sync"

	"github.com/joshuapare/pagetls/internal/page"
	"github.com/joshuapare/pagetls/internal/spin"
	"github.com/joshuapare/pagetls/pkg/types"
)

// Region is one thread's TLS: an ordered list of page handles covering Size
// bytes.
type Region struct {
	Owner types.ThreadID
	Size  int

	// mu serialises the owner's writes and teardown against clones that
	// read this region's page list.
	mu    sync.Mutex
	pages []page.Ref
}

// NewRegion takes ownership of pages.
func NewRegion(owner types.ThreadID, size int, pages []page.Ref) *Region {
	return &Region{Owner: owner, Size: size, pages: pages}
}

// Lock acquires the region's mutex.
func (r *Region) Lock() { r.mu.Lock() }

// Unlock releases the region's mutex.
func (r *Region) Unlock() { r.mu.Unlock() }

// NumPages returns the number of pages in the region.
func (r *Region) NumPages() int { return len(r.pages) }

// Page returns the i-th page.
func (r *Region) Page(i int) *page.Page { return r.pages[i].Page() }

// SharePages returns a new handle to every page, in order. Callers must hold
// the region lock.
func (r *Region) SharePages() []page.Ref {
	out := make([]page.Ref, len(r.pages))
	for i := range r.pages {
		out[i] = r.pages[i].Clone()
	}
	return out
}

// ReleasePages drops every page handle and reports how many pages were
// unmapped as a result. The region must already be unreachable from the
// Registry.
func (r *Region) ReleasePages() int {
	freed := 0
	for i := range r.pages {
		if r.pages[i].Release() {
			freed++
		}
	}
	r.pages = nil
	return freed
}

// Registry is a concurrency-safe map from thread identity to Region.
type Registry struct {
	mu      spin.Lock
	regions map[types.ThreadID]*Region
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{regions: make(map[types.ThreadID]*Region)}
}

// Register adds r under r.Owner. It fails with types.ErrAlreadyExists if the
// owner already has a region.
func (g *Registry) Register(r *Region) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.regions[r.Owner]; ok {
		return fmt.Errorf("register thread %d: %w", r.Owner, types.ErrAlreadyExists)
	}
	g.regions[r.Owner] = r
	return nil
}

// Lookup returns the region owned by id.
func (g *Registry) Lookup(id types.ThreadID) (*Region, bool) {
	g.mu.Lock()
	r, ok := g.regions[id]
	g.mu.Unlock()
	return r, ok
}

// Remove unregisters and returns the region owned by id.
func (g *Registry) Remove(id types.ThreadID) (*Region, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.regions[id]
	if ok {
		delete(g.regions, id)
	}
	return r, ok
}

// ReplacePage installs ref as page i of r and returns the previous handle,
// which the caller must release. The swap is atomic with respect to Owns.
func (g *Registry) ReplacePage(r *Region, i int, ref page.Ref) page.Ref {
	g.mu.Lock()
	defer g.mu.Unlock()
	old := r.pages[i].Take()
	r.pages[i] = ref
	return old
}

// Owns scans every registered region for a page containing addr and returns
// the owner of the first match. It does not allocate.
func (g *Registry) Owns(addr uintptr) (types.ThreadID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, r := range g.regions {
		for i := range r.pages {
			if p := r.pages[i].Page(); p != nil && p.Contains(addr) {
				return id, true
			}
		}
	}
	return 0, false
}

// Len returns the number of registered regions.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.regions)
}

// SharePages takes a new handle to every page referenced by a registered
// region, deduplicated so shared pages appear once. The caller must release
// every returned handle.
func (g *Registry) SharePages() []page.Ref {
	g.mu.Lock()
	defer g.mu.Unlock()
	seen := make(map[*page.Page]struct{})
	var out []page.Ref
	for _, r := range g.regions {
		for i := range r.pages {
			p := r.pages[i].Page()
			if p == nil {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, r.pages[i].Clone())
		}
	}
	return out
}
