package bufferpool

import "github.com/tuannm99/novarow/internal/storage"

// FileSetView binds the shared Pool to one relation.
type FileSetView struct {
	pool *Pool
	fs   storage.FileSet
}

var _ Manager = (*FileSetView)(nil)

func (v *FileSetView) GetPage(pageID uint32) (*storage.Page, error) {
	return v.pool.GetPage(v.fs, pageID)
}

func (v *FileSetView) Unpin(page *storage.Page, dirty bool) error {
	return v.pool.Unpin(v.fs, page, dirty)
}

// Flush writes back dirty pages of this relation only.
func (v *FileSetView) Flush() error {
	return v.pool.FlushFileSet(v.fs)
}

// View returns a relation-scoped Manager backed by the shared Pool.
func (p *Pool) View(fs storage.FileSet) Manager {
	return &FileSetView{pool: p, fs: fs}
}
