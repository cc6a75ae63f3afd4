package pagetls

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/joshuapare/pagetls/internal/buf"
	"github.com/joshuapare/pagetls/internal/goid"
	"github.com/joshuapare/pagetls/internal/page"
	"github.com/joshuapare/pagetls/internal/registry"
	"github.com/joshuapare/pagetls/pkg/types"
)

// Engine owns a registry of regions and the pages backing them.
// All methods are safe for concurrent use; each acts on the calling
// goroutine's region.
type Engine struct {
	opts     Options
	log      *zap.Logger
	identify func() ThreadID
	alloc    *page.Allocator
	regions  *registry.Registry

	initOnce     sync.Once
	initialized  atomic.Bool
	cowSplits    atomic.Int64
	terminations atomic.Int64
}

// New returns an engine configured by opts.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	identify := opts.Identity
	if identify == nil {
		identify = Self
	}
	return &Engine{
		opts:     opts,
		log:      log,
		identify: identify,
		alloc:    page.NewAllocator(log),
		regions:  registry.New(),
	}
}

// Self returns the calling goroutine's thread identity.
func Self() ThreadID {
	return ThreadID(goid.Current())
}

// initialize runs once, on the first Create.
func (e *Engine) initialize() {
	e.initialized.Store(true)
	e.log.Info("tls fault interception initialized",
		zap.Int("page_size", e.alloc.PageSize()),
		zap.Bool("strict_bounds", e.opts.StrictBounds),
		zap.Bool("release_on_terminate", e.opts.ReleaseOnTerminate),
	)
}

// PageSize returns the size of every page backing a region.
func (e *Engine) PageSize() int { return e.alloc.PageSize() }

// Create allocates a region of size bytes for the calling goroutine.
func (e *Engine) Create(size int) error {
	e.initOnce.Do(e.initialize)

	if size <= 0 {
		return fmt.Errorf("create %d bytes: %w", size, types.ErrInvalidSize)
	}
	self := e.identify()
	if _, ok := e.regions.Lookup(self); ok {
		return fmt.Errorf("create for thread %d: %w", self, types.ErrAlreadyExists)
	}

	n := buf.PagesFor(size, e.alloc.PageSize())
	pages := make([]page.Ref, 0, n)
	for i := 0; i < n; i++ {
		ref, err := e.alloc.Allocate()
		if err != nil {
			for j := range pages {
				pages[j].Release()
			}
			return fmt.Errorf("create %d bytes: %w", size, err)
		}
		pages = append(pages, ref)
	}

	r := registry.NewRegion(self, size, pages)
	if err := e.regions.Register(r); err != nil {
		r.ReleasePages()
		return err
	}
	e.log.Debug("region created",
		zap.Int64("thread", int64(self)),
		zap.Int("size", size),
		zap.Int("pages", n),
	)
	return nil
}

// Read copies len(p) bytes starting at offset out of the caller's region.
func (e *Engine) Read(offset int, p []byte) error {
	r, err := e.own("read")
	if err != nil {
		return err
	}
	r.Lock()
	defer r.Unlock()

	end, err := e.checkRange(r, "read", offset, len(p))
	if err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	exposeAll(r)
	defer protectAll(r)
	e.transfer(r, offset, end, p, false)
	return nil
}

// Write copies p into the caller's region starting at offset. Pages shared
// with a clone are split first so the other owners keep the old bytes.
func (e *Engine) Write(offset int, p []byte) error {
	r, err := e.own("write")
	if err != nil {
		return err
	}
	r.Lock()
	defer r.Unlock()

	end, err := e.checkRange(r, "write", offset, len(p))
	if err != nil {
		return err
	}
	first, last, ok := buf.PageSpan(offset, end, e.alloc.PageSize())
	if !ok {
		return nil
	}
	for i := first; i <= last; i++ {
		if r.Page(i).Refs() > 1 {
			if err := e.split(r, i); err != nil {
				return err
			}
		}
	}

	exposeAll(r)
	defer protectAll(r)
	e.transfer(r, offset, end, p, true)
	return nil
}

// Destroy releases the caller's region.
func (e *Engine) Destroy() error {
	self := e.identify()
	if err := e.release(self); err != nil {
		return fmt.Errorf("destroy: %w", err)
	}
	return nil
}

// Clone gives the caller a region sharing every page of target's region.
func (e *Engine) Clone(target ThreadID) error {
	e.initOnce.Do(e.initialize)

	self := e.identify()
	if _, ok := e.regions.Lookup(self); ok {
		return fmt.Errorf("clone into thread %d: %w", self, types.ErrAlreadyExists)
	}
	src, ok := e.regions.Lookup(target)
	if !ok {
		return fmt.Errorf("clone from thread %d: %w", target, types.ErrNoSuchRegion)
	}

	src.Lock()
	if src.NumPages() == 0 {
		// Destroyed between lookup and lock.
		src.Unlock()
		return fmt.Errorf("clone from thread %d: %w", target, types.ErrNoSuchRegion)
	}
	pages := src.SharePages()
	size := src.Size
	src.Unlock()

	r := registry.NewRegion(self, size, pages)
	if err := e.regions.Register(r); err != nil {
		r.ReleasePages()
		return err
	}
	e.log.Debug("region cloned",
		zap.Int64("thread", int64(self)),
		zap.Int64("source", int64(target)),
		zap.Int("pages", len(pages)),
	)
	return nil
}

// Size returns the size the caller's region was created with.
func (e *Engine) Size() (int, error) {
	r, err := e.own("size")
	if err != nil {
		return 0, err
	}
	return r.Size, nil
}

// Stats returns a snapshot of engine state.
func (e *Engine) Stats() Stats {
	return Stats{
		PageSize:     e.alloc.PageSize(),
		Regions:      e.regions.Len(),
		LivePages:    e.alloc.Live(),
		COWSplits:    e.cowSplits.Load(),
		Terminations: e.terminations.Load(),
		Initialized:  e.initialized.Load(),
	}
}

func (e *Engine) own(op string) (*registry.Region, error) {
	self := e.identify()
	r, ok := e.regions.Lookup(self)
	if !ok {
		return nil, fmt.Errorf("%s by thread %d: %w", op, self, types.ErrNoSuchRegion)
	}
	return r, nil
}

// release unregisters id's region and drops its page references.
func (e *Engine) release(id ThreadID) error {
	r, ok := e.regions.Remove(id)
	if !ok {
		return fmt.Errorf("thread %d: %w", id, types.ErrNoSuchRegion)
	}
	r.Lock()
	n := r.NumPages()
	freed := r.ReleasePages()
	r.Unlock()
	e.log.Debug("region destroyed",
		zap.Int64("thread", int64(id)),
		zap.Int("pages", n),
		zap.Int("freed", freed),
	)
	return nil
}

// bound is the exclusive upper limit for offset+length.
func (e *Engine) bound(r *registry.Region) int {
	if e.opts.StrictBounds {
		return r.Size
	}
	capacity, _ := buf.MulOverflowSafe(r.NumPages(), e.alloc.PageSize())
	return capacity
}

func (e *Engine) checkRange(r *registry.Region, op string, offset, length int) (int, error) {
	end, err := buf.CheckRange(offset, length, e.bound(r))
	if err != nil {
		return 0, fmt.Errorf("%s offset=%d length=%d: %w: %w", op, offset, length, types.ErrOutOfBounds, err)
	}
	return end, nil
}

// split replaces page i of r with a private copy and drops r's reference to
// the shared original.
func (e *Engine) split(r *registry.Region, i int) error {
	shared := r.Page(i)
	fresh, err := e.alloc.CopyOnWrite(shared)
	if err != nil {
		return fmt.Errorf("copy-on-write page %d: %w", i, err)
	}
	old := e.regions.ReplacePage(r, i, fresh.Take())
	old.Release()
	e.cowSplits.Add(1)
	e.log.Debug("page split on write",
		zap.Int64("thread", int64(r.Owner)),
		zap.Int("index", i),
		zap.Uintptr("shared", shared.Addr()),
		zap.Uintptr("private", r.Page(i).Addr()),
	)
	return nil
}

// transfer copies between p and region bytes [offset, end). The pages must
// be exposed.
func (e *Engine) transfer(r *registry.Region, offset, end int, p []byte, write bool) {
	ps := e.alloc.PageSize()
	for pos := offset; pos < end; {
		idx, within := pos/ps, pos%ps
		n := min(ps-within, end-pos)
		mem := r.Page(idx).Bytes()[within : within+n]
		chunk := p[pos-offset : pos-offset+n]
		if write {
			copy(mem, chunk)
		} else {
			copy(chunk, mem)
		}
		pos += n
	}
}

func exposeAll(r *registry.Region) {
	for i := 0; i < r.NumPages(); i++ {
		r.Page(i).Unprotect()
	}
}

func protectAll(r *registry.Region) {
	for i := 0; i < r.NumPages(); i++ {
		r.Page(i).Protect()
	}
}
