package page

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"

	"github.com/joshuapare/pagetls/internal/vmem"
)

// Allocator maps and unmaps pages and owns the fatal path for protection
// failures.
type Allocator struct {
	size int
	log  *zap.Logger
	live atomic.Int64
}

// NewAllocator returns an allocator for host-sized pages. A nil logger is
// replaced with a no-op logger; Fatal still terminates the process.
func NewAllocator(log *zap.Logger) *Allocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Allocator{size: vmem.PageSize(), log: log}
}

// PageSize returns the size of every page this allocator hands out.
func (a *Allocator) PageSize() int { return a.size }

// Live returns the number of pages currently mapped.
func (a *Allocator) Live() int64 { return a.live.Load() }

// Allocate maps one fresh page with no access and a reference count of 1.
func (a *Allocator) Allocate() (Ref, error) {
	mem, err := vmem.Map(a.size)
	if err != nil {
		return Ref{}, fmt.Errorf("page: allocate: %w", err)
	}
	p := &Page{mem: mem, alloc: a}
	p.refs.Store(1)
	a.live.Add(1)
	return Ref{p: p}, nil
}

// CopyOnWrite allocates a private page holding a copy of src's bytes. The
// returned handle has a reference count of 1 and no access permitted. src is
// neither released nor modified.
func (a *Allocator) CopyOnWrite(src *Page) (Ref, error) {
	dst, err := a.Allocate()
	if err != nil {
		return Ref{}, err
	}

	src.Unprotect()
	defer src.Protect()
	dst.p.Unprotect()
	defer dst.p.Protect()

	copy(dst.p.mem, src.mem)
	return dst, nil
}

func (a *Allocator) free(p *Page) {
	if err := vmem.Unmap(p.mem); err != nil {
		a.log.Error("unmap page", zap.Uintptr("addr", p.Addr()), zap.Error(err))
	}
	p.mem = nil
	a.live.Add(-1)
}

func (a *Allocator) fatal(p *Page, prot vmem.Prot, err error) {
	a.log.Fatal("page protection change failed; isolation cannot be maintained",
		zap.Uintptr("addr", p.Addr()),
		zap.Stringer("prot", prot),
		zap.Error(err),
	)
}

// Page is one host page of backing storage.
type Page struct {
	mem   []byte
	refs  atomic.Int32
	alloc *Allocator

	mu      sync.Mutex // guards exposed and protection changes
	exposed int
}

// Addr returns the base address of the page mapping.
func (p *Page) Addr() uintptr {
	if len(p.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&p.mem[0]))
}

// Refs returns the current reference count.
func (p *Page) Refs() int32 { return p.refs.Load() }

// Contains reports whether addr falls inside the page.
func (p *Page) Contains(addr uintptr) bool {
	base := p.Addr()
	return base != 0 && addr >= base && addr-base < uintptr(len(p.mem))
}

// Bytes returns the page memory. Touching it without a matching
// Unprotect/Protect pair faults.
func (p *Page) Bytes() []byte { return p.mem }

// Exposed reports whether any caller currently holds the page open.
func (p *Page) Exposed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exposed > 0
}

// Unprotect opens the page for reading and writing until the matching Protect.
func (p *Page) Unprotect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exposed == 0 {
		if err := vmem.Protect(p.mem, vmem.ProtReadWrite); err != nil {
			p.alloc.fatal(p, vmem.ProtReadWrite, err)
		}
	}
	p.exposed++
}

// Protect undoes one Unprotect. The page returns to no access when the last
// holder closes it.
func (p *Page) Protect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exposed == 0 {
		panic("page: Protect without matching Unprotect")
	}
	p.exposed--
	if p.exposed == 0 {
		if err := vmem.Protect(p.mem, vmem.ProtNone); err != nil {
			p.alloc.fatal(p, vmem.ProtNone, err)
		}
	}
}

// Ref is a counted handle to a Page. The zero Ref holds nothing.
type Ref struct {
	p *Page
}

// Page returns the referenced page, or nil for an empty handle.
func (r *Ref) Page() *Page { return r.p }

// Valid reports whether the handle still holds a reference.
func (r *Ref) Valid() bool { return r.p != nil }

// Clone takes an additional reference to the same page.
func (r *Ref) Clone() Ref {
	if r.p == nil {
		return Ref{}
	}
	r.p.refs.Add(1)
	return Ref{p: r.p}
}

// Take moves the reference out of r, leaving r empty.
func (r *Ref) Take() Ref {
	out := *r
	r.p = nil
	return out
}

// Release drops this handle's reference and unmaps the page if it was the
// last one. It reports whether the page was freed. Releasing an empty handle
// is a no-op.
func (r *Ref) Release() bool {
	p := r.p
	if p == nil {
		return false
	}
	r.p = nil
	switch n := p.refs.Add(-1); {
	case n == 0:
		p.alloc.free(p)
		return true
	case n < 0:
		panic(fmt.Sprintf("page: reference count underflow at 0x%x", p.Addr()))
	default:
		return false
	}
}
