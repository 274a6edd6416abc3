package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tuannm99/novarow/internal/alias/util"
)

type FileSet interface {
	OpenSegment(segNo int32) (*os.File, error)
}

var _ FileSet = (*LocalFileSet)(nil)

// LocalFileSet represents a local directory + base file name.
// Segments are stored as: Base, Base.1, Base.2, ...
type LocalFileSet struct {
	Dir  string
	Base string
}

func (lfs LocalFileSet) OpenSegment(segNo int32) (*os.File, error) {
	path := filepath.Join(lfs.Dir, SegFileName(lfs.Base, segNo))
	if err := os.MkdirAll(lfs.Dir, FileMode0755); err != nil {
		return nil, err
	}
	// RDWR | CREATE (no truncate)
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
}

// StorageManager maps a logical pageID -> (segment, offset).
type StorageManager struct{}

func NewStorageManager() *StorageManager {
	return &StorageManager{}
}

func (sm *StorageManager) locate(pageID uint32) (segNo int32, offset int64) {
	segNo = int32(pageID / MaxPagePerSegment)
	offset = int64(pageID%MaxPagePerSegment) * PageSize
	return segNo, offset
}

// ReadPage reads exactly one page (PageSize bytes) into dst.
// If the underlying file is smaller than the requested offset+PageSize,
// the remainder is zero-filled. This allows "sparse" pages that are
// lazily initialized by higher layers.
func (sm *StorageManager) ReadPage(fs FileSet, pageID uint32, dst []byte) error {
	if len(dst) != PageSize {
		return fmt.Errorf("dst must be exactly %d bytes", PageSize)
	}
	segNo, off := sm.locate(pageID)
	f, err := fs.OpenSegment(segNo)
	if err != nil {
		return err
	}
	defer util.CloseQuietly(f, f.Name())

	n, err := f.ReadAt(dst, off)
	if err != nil && err != io.EOF {
		return err
	}
	clear(dst[n:])
	return nil
}

// WritePage writes exactly one page (PageSize bytes) from src to disk
// at the location computed from pageID.
func (sm *StorageManager) WritePage(fs FileSet, pageID uint32, src []byte) error {
	if len(src) != PageSize {
		return fmt.Errorf("src must be exactly %d bytes", PageSize)
	}
	segNo, off := sm.locate(pageID)
	f, err := fs.OpenSegment(segNo)
	if err != nil {
		return err
	}

	n, err := f.WriteAt(src, off)
	if err != nil {
		_ = f.Close()
		return err
	}
	if n != PageSize {
		_ = f.Close()
		return io.ErrShortWrite
	}
	return f.Close()
}

// LoadPage reads a page into memory and returns a Page wrapper.
// If the on-disk bytes are all zero, the page is treated as uninitialized
// and is initialized with the given pageID.
func (sm *StorageManager) LoadPage(fs FileSet, pageID uint32) (*Page, error) {
	buf := make([]byte, PageSize)
	if err := sm.ReadPage(fs, pageID, buf); err != nil {
		return nil, err
	}
	p := &Page{Buf: buf}
	if p.IsUninitialized() {
		p.init(pageID)
	}
	return p, nil
}

// SavePage writes the in-memory Page back to disk.
func (sm *StorageManager) SavePage(fs FileSet, pageID uint32, p *Page) error {
	return sm.WritePage(fs, pageID, p.Buf)
}

// CountPages computes total pages for a given FileSet by scanning its
// segment files. Only LocalFileSet is supported.
func (sm *StorageManager) CountPages(fs FileSet) (uint32, error) {
	lfs, ok := fs.(LocalFileSet)
	if !ok {
		return 0, fmt.Errorf("count pages: unsupported file set %T", fs)
	}
	segs, err := listSegmentsLocal(lfs)
	if err != nil {
		return 0, err
	}

	var total uint32
	for _, segNo := range segs {
		info, err := os.Stat(filepath.Join(lfs.Dir, SegFileName(lfs.Base, segNo)))
		if err != nil {
			return 0, err
		}
		// pages of earlier segments are always full
		total = uint32(segNo)*MaxPagePerSegment + uint32(info.Size()/PageSize)
	}
	return total, nil
}
