package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tuannm99/novarow/internal"
	"github.com/tuannm99/novarow/internal/bufferpool"
	"github.com/tuannm99/novarow/internal/catalog"
	"github.com/tuannm99/novarow/internal/record"
	"github.com/tuannm99/novarow/internal/storage"
)

const maxTableName = 64

// Store owns every table under one work directory. All tables share a single
// buffer pool.
type Store struct {
	dir  string
	sm   *storage.StorageManager
	pool *bufferpool.Pool
	cat  *catalog.Catalog

	mu     sync.Mutex
	meta   *catalog.StoreMeta
	tables map[string]*Table // loaded tables
	closed bool
}

// Open opens (or initializes) the store in cfg.Storage.Workdir.
func Open(cfg *internal.NovaRowConfig) (*Store, error) {
	if cfg == nil {
		cfg = internal.DefaultConfig()
	}
	dir := cfg.Storage.Workdir
	if err := os.MkdirAll(dir, storage.FileMode0755); err != nil {
		return nil, fmt.Errorf("engine: create workdir: %w", err)
	}

	cat := catalog.New(dir)
	meta, err := cat.LoadStore()
	if err != nil {
		return nil, err
	}

	sm := storage.NewStorageManager()
	s := &Store{
		dir:    dir,
		sm:     sm,
		pool:   bufferpool.NewPool(sm, cfg.Storage.BufferPoolCapacity),
		cat:    cat,
		meta:   meta,
		tables: make(map[string]*Table),
	}
	slog.Info("engine: store opened", "dir", dir, "id", meta.ID)
	return s, nil
}

func (s *Store) Dir() string { return s.dir }

func validTableName(name string) bool {
	if name == "" || len(name) > maxTableName {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// CreateTable creates an empty table. Column keys are assigned in the order
// cols are given; any Key set by the caller is ignored.
func (s *Store) CreateTable(name string, cols ...record.Column) (*Table, error) {
	if !validTableName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if _, ok := s.tables[name]; ok || s.cat.HasTable(name) {
		return nil, fmt.Errorf("%w: %q", ErrTableExists, name)
	}

	meta := catalog.NewTableMeta(name, s.meta.NextTableTag)
	keyed := make([]record.Column, len(cols))
	for i, c := range cols {
		c.Key = record.MakeColKey(meta.Tag, meta.NextColumnTag)
		meta.NextColumnTag++
		keyed[i] = c
	}
	schema, err := record.NewSchema(meta.Tag, keyed...)
	if err != nil {
		return nil, fmt.Errorf("engine: create table %q: %w", name, err)
	}
	meta.Columns = schema.Columns()

	// leftovers of a dropped table with the same name
	if err := storage.RemoveAllSegments(s.cat.FileSet(name)); err != nil {
		return nil, err
	}

	s.meta.NextTableTag++
	if err := s.cat.WriteStore(s.meta); err != nil {
		return nil, err
	}
	if err := s.cat.WriteTable(meta); err != nil {
		return nil, err
	}

	t := s.newTable(meta, schema, 0)
	s.tables[name] = t
	slog.Info("engine: table created", "table", name, "id", meta.ID, "tag", meta.Tag, "columns", schema.NumCols())
	return t, nil
}

// OpenTable returns the named table, loading it from disk on first use.
func (s *Store) OpenTable(name string) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(name)
}

func (s *Store) openLocked(name string) (*Table, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	if t, ok := s.tables[name]; ok {
		return t, nil
	}
	if !validTableName(name) {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}

	meta, err := s.cat.ReadTable(name)
	if errors.Is(err, catalog.ErrTableMetaNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	schema, err := meta.Schema()
	if err != nil {
		return nil, fmt.Errorf("engine: open table %q: %w", name, err)
	}

	// Count pages on disk as the single source of truth.
	pageCount, err := s.sm.CountPages(s.cat.FileSet(name))
	if err != nil {
		return nil, err
	}

	t := s.newTable(meta, schema, pageCount)
	if err := t.rebuildSlots(); err != nil {
		return nil, fmt.Errorf("engine: open table %q: %w", name, err)
	}
	s.tables[name] = t
	slog.Info("engine: table opened", "table", name, "id", meta.ID, "records", t.live, "pages", pageCount)
	return t, nil
}

// Table returns an already loaded table.
func (s *Store) Table(name string) (*Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	return t, ok
}

// TableNames lists every table in the catalog.
func (s *Store) TableNames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.cat.ListTables()
}

// DropTable removes a table and its files. Every key and handle of the
// table becomes invalid.
func (s *Store) DropTable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.openLocked(name)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Store(stateDropped)
	delete(s.tables, name)
	if err := s.pool.DropFileSet(t.fs); err != nil {
		return err
	}
	if err := s.cat.RemoveTable(name); err != nil {
		return err
	}
	slog.Info("engine: table dropped", "table", name, "id", t.id, "handles", t.handles.Get())
	return nil
}

// AddColumn appends a column to table and returns its new key. Existing
// records read the column's default until written.
func (s *Store) AddColumn(table string, col record.Column) (record.ColKey, error) {
	t, err := s.OpenTable(table)
	if err != nil {
		return record.NullColKey, err
	}
	return t.addColumn(col)
}

// RemoveColumn drops a column; its key never resolves again.
func (s *Store) RemoveColumn(table, name string) error {
	t, err := s.OpenTable(table)
	if err != nil {
		return err
	}
	return t.removeColumn(name)
}

func (s *Store) loaded() []*Table {
	out := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out
}

// Flush writes every loaded table's dirty pages and meta, tables in parallel.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	tables := s.loaded()
	s.mu.Unlock()

	var g errgroup.Group
	for _, t := range tables {
		g.Go(t.flush)
	}
	return g.Wait()
}

// Close flushes and unloads every table. Handles still bound afterwards are
// invalid. Closing twice returns ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.closed = true

	var err error
	for _, t := range s.loaded() {
		if n := t.handles.Get(); n > 0 {
			slog.Warn("engine: closing table with open handles", "table", t.name, "handles", n)
		}
		err = multierr.Append(err, t.flush())
		t.state.Store(stateClosed)
	}
	err = multierr.Append(err, s.pool.FlushAll())
	s.tables = nil
	slog.Info("engine: store closed", "dir", s.dir)
	return err
}

// StoreStats is a point-in-time summary of a store.
type StoreStats struct {
	Dir    string
	Tables []TableStats
	Pool   bufferpool.Stats
}

func (s *Store) Stats() StoreStats {
	s.mu.Lock()
	tables := s.loaded()
	s.mu.Unlock()

	st := StoreStats{Dir: s.dir, Pool: s.pool.Stats()}
	for _, t := range tables {
		st.Tables = append(st.Tables, t.Stats())
	}
	sortTableStats(st.Tables)
	return st
}
