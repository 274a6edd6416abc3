package bufferpool

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tuannm99/novarow/internal/storage"
)

const DefaultCapacity = 128

var (
	ErrNoFreeFrame        = errors.New("bufferpool: no free frame available (all pinned)")
	ErrPagePinned         = errors.New("bufferpool: page is pinned")
	ErrUnsupportedFileSet = errors.New("bufferpool: unsupported FileSet (pool requires LocalFileSet)")
)

// PageTag uniquely identifies a page in the pool.
type PageTag struct {
	FSKey  string
	PageID uint32
}

type Frame struct {
	Tag   PageTag
	FS    storage.LocalFileSet
	Page  *storage.Page
	Dirty bool
	Pin   int32
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Capacity  int
	Used      int
	Dirty     int
	Pinned    int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Pool is a single buffer pool shared by every table of a store.
type Pool struct {
	sm *storage.StorageManager

	mu     sync.Mutex
	frames []*Frame        // len == capacity, nil == free slot
	table  map[PageTag]int // (fsKey,pageID) -> frame index
	repl   Replacer

	hits, misses, evictions uint64
}

func NewPool(sm *storage.StorageManager, capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool{
		sm:     sm,
		frames: make([]*Frame, capacity),
		table:  make(map[PageTag]int),
		repl:   newClockAdapter(capacity),
	}
}

func tagOf(fs storage.FileSet, pageID uint32) (PageTag, storage.LocalFileSet, error) {
	key, lfs, ok := storage.FsKeyOf(fs)
	if !ok {
		return PageTag{}, storage.LocalFileSet{}, ErrUnsupportedFileSet
	}
	return PageTag{FSKey: key, PageID: pageID}, lfs, nil
}

// pin marks frame idx as in use.
func (p *Pool) pin(idx int) {
	f := p.frames[idx]
	f.Pin++
	p.repl.RecordAccess(idx)
	if f.Pin == 1 {
		p.repl.SetEvictable(idx, false)
	}
}

// GetPage pins and returns the page (fs,pageID).
func (p *Pool) GetPage(fs storage.FileSet, pageID uint32) (*storage.Page, error) {
	tag, lfs, err := tagOf(fs, pageID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// 1) HIT
	if idx, ok := p.table[tag]; ok {
		p.hits++
		p.pin(idx)
		return p.frames[idx].Page, nil
	}
	p.misses++

	// 2) Find free slot, else 3) evict
	idx := -1
	for i, f := range p.frames {
		if f == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		if idx, err = p.evict(); err != nil {
			return nil, err
		}
	}

	page, err := p.sm.LoadPage(lfs, pageID)
	if err != nil {
		return nil, err
	}
	p.frames[idx] = &Frame{Tag: tag, FS: lfs, Page: page}
	p.table[tag] = idx
	p.pin(idx)
	return page, nil
}

// evict frees one frame, writing it back first when dirty.
func (p *Pool) evict() (int, error) {
	idx, ok := p.repl.Evict()
	if !ok {
		return -1, ErrNoFreeFrame
	}
	victim := p.frames[idx]
	if victim.Dirty {
		if err := p.sm.SavePage(victim.FS, victim.Tag.PageID, victim.Page); err != nil {
			// Put victim back as evictable
			p.repl.RecordAccess(idx)
			p.repl.SetEvictable(idx, true)
			return -1, err
		}
	}
	slog.Debug("bufferpool: evict", "fs", victim.Tag.FSKey, "page", victim.Tag.PageID, "dirty", victim.Dirty)
	delete(p.table, victim.Tag)
	p.frames[idx] = nil
	p.evictions++
	return idx, nil
}

// Unpin decreases pin count and marks dirty optionally.
func (p *Pool) Unpin(fs storage.FileSet, page *storage.Page, dirty bool) error {
	if page == nil {
		return nil
	}
	tag, _, err := tagOf(fs, page.PageID())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.table[tag]
	if !ok {
		return nil
	}
	f := p.frames[idx]
	if dirty {
		f.Dirty = true
	}
	if f.Pin > 0 {
		f.Pin--
		if f.Pin == 0 {
			p.repl.SetEvictable(idx, true)
		}
	}
	return nil
}

func (p *Pool) flushWhere(match func(*Frame) bool) error {
	for _, f := range p.frames {
		if f == nil || !f.Dirty || !match(f) {
			continue
		}
		if err := p.sm.SavePage(f.FS, f.Tag.PageID, f.Page); err != nil {
			return err
		}
		f.Dirty = false
	}
	return nil
}

// FlushAll flushes all dirty pages in the pool.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushWhere(func(*Frame) bool { return true })
}

// FlushFileSet flushes dirty pages belonging to a single relation (FileSet).
func (p *Pool) FlushFileSet(fs storage.FileSet) error {
	tag, _, err := tagOf(fs, 0)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushWhere(func(f *Frame) bool { return f.Tag.FSKey == tag.FSKey })
}

// DropFileSet forgets every page of a relation without writing it back.
// It must be called before the relation's files are removed; a pinned page
// yields ErrPagePinned and nothing is dropped.
func (p *Pool) DropFileSet(fs storage.FileSet) error {
	tag, _, err := tagOf(fs, 0)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range p.frames {
		if f != nil && f.Tag.FSKey == tag.FSKey && f.Pin != 0 {
			return ErrPagePinned
		}
	}
	for i, f := range p.frames {
		if f == nil || f.Tag.FSKey != tag.FSKey {
			continue
		}
		delete(p.table, f.Tag)
		p.frames[i] = nil
		p.repl.Remove(i)
	}
	return nil
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Stats{
		Capacity:  len(p.frames),
		Hits:      p.hits,
		Misses:    p.misses,
		Evictions: p.evictions,
	}
	for _, f := range p.frames {
		if f == nil {
			continue
		}
		st.Used++
		if f.Dirty {
			st.Dirty++
		}
		if f.Pin > 0 {
			st.Pinned++
		}
	}
	return st
}
