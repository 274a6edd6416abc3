package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tuannm99/novarow/internal/catalog"
	"github.com/tuannm99/novarow/internal/heap"
	locking "github.com/tuannm99/novarow/internal/lock"
	"github.com/tuannm99/novarow/internal/record"
	"github.com/tuannm99/novarow/internal/storage"
)

const (
	stateOpen int32 = iota
	stateDropped
	stateClosed
)

// slot is one entry of the record slot map. A freed slot keeps the
// generation its next record will be born with.
type slot struct {
	gen  uint32
	live bool
	tid  heap.TID
}

// Table is one table generation. Reads may run concurrently; mutations are
// serialized per table.
type Table struct {
	store *Store
	name  string
	id    uuid.UUID
	tag   uint32
	fs    storage.LocalFileSet

	state   atomic.Int32
	handles *locking.RefCount

	mu     sync.RWMutex
	meta   *catalog.TableMeta
	schema record.Schema
	heap   *heap.Table
	slots  []slot
	free   []uint32 // free slot indexes, reused last-in first-out
	live   int
}

func (s *Store) newTable(meta *catalog.TableMeta, schema record.Schema, pageCount uint32) *Table {
	fs := s.cat.FileSet(meta.Name)
	return &Table{
		store:   s,
		name:    meta.Name,
		id:      meta.ID,
		tag:     meta.Tag,
		fs:      fs,
		handles: locking.NewRefCount(),
		meta:    meta,
		schema:  schema,
		heap:    heap.NewTable(meta.Name, schema, s.pool.View(fs), pageCount),
	}
}

// rebuildSlots restores the slot map from persisted generations plus the
// keys of the rows actually on disk.
func (t *Table) rebuildSlots() error {
	t.slots = make([]slot, len(t.meta.Generations))
	for i, g := range t.meta.Generations {
		t.slots[i].gen = g
	}

	err := t.heap.ScanRaw(func(id heap.TID, data []byte) error {
		key, err := record.PeekKey(data)
		if err != nil {
			return err
		}
		if key.IsNull() {
			return fmt.Errorf("%w: negative record key at %s", storage.ErrCorruption, id)
		}
		i := int(key.Slot())
		for len(t.slots) <= i {
			t.slots = append(t.slots, slot{})
		}
		if t.slots[i].live {
			return fmt.Errorf("%w: record slot %d stored twice", storage.ErrCorruption, i)
		}
		t.slots[i] = slot{gen: key.Generation(), live: true, tid: id}
		t.live++
		return nil
	})
	if err != nil {
		return err
	}

	for i := len(t.slots) - 1; i >= 0; i-- {
		if !t.slots[i].live {
			t.free = append(t.free, uint32(i))
		}
	}
	return nil
}

func (t *Table) Name() string       { return t.name }
func (t *Table) ID() uuid.UUID      { return t.id }
func (t *Table) Tag() uint32        { return t.tag }
func (t *Table) Dropped() bool      { return t.state.Load() == stateDropped }
func (t *Table) Closed() bool       { return t.state.Load() == stateClosed }
func (t *Table) IsOpen() bool       { return t.state.Load() == stateOpen }
func (t *Table) Store() *Store      { return t.store }
func (t *Table) String() string     { return fmt.Sprintf("table(%s@%d)", t.name, t.tag) }
func (t *Table) OpenHandles() int32 { return t.handles.Get() }

// Pin records a handle bound to this table; Unpin releases it.
func (t *Table) Pin()   { t.handles.Inc() }
func (t *Table) Unpin() { t.handles.Dec() }

func (t *Table) checkOpen() error {
	switch t.state.Load() {
	case stateDropped:
		return fmt.Errorf("%w: %q", ErrTableDropped, t.name)
	case stateClosed:
		return ErrStoreClosed
	}
	return nil
}

// Schema returns the current column directory.
func (t *Table) Schema() record.Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.schema
}

func (t *Table) ColumnKeys() []record.ColKey { return t.Schema().Keys() }

// Column resolves key against the current schema; keys of dropped columns
// or of other tables do not resolve.
func (t *Table) Column(key record.ColKey) (record.Column, bool) {
	return t.Schema().Lookup(key)
}

func (t *Table) ColumnKey(name string) record.ColKey { return t.Schema().KeyOf(name) }

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

func (t *Table) lookup(key record.ObjKey) (*slot, error) {
	if key.IsNull() || int64(key.Slot()) >= int64(len(t.slots)) {
		return nil, fmt.Errorf("%w: %s in %q", ErrRecordNotFound, key, t.name)
	}
	s := &t.slots[key.Slot()]
	if !s.live || s.gen != key.Generation() {
		return nil, fmt.Errorf("%w: %s in %q", ErrRecordNotFound, key, t.name)
	}
	return s, nil
}

func (t *Table) column(key record.ColKey) (record.Column, error) {
	col, ok := t.schema.Lookup(key)
	if !ok {
		return record.Column{}, fmt.Errorf("%w: %s in %q", ErrColumnNotFound, key, t.name)
	}
	return col, nil
}

// IsValid reports whether key names a live record of an open table.
func (t *Table) IsValid(key record.ObjKey) bool {
	if t.state.Load() != stateOpen {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if key.IsNull() || int64(key.Slot()) >= int64(len(t.slots)) {
		return false
	}
	s := t.slots[key.Slot()]
	return s.live && s.gen == key.Generation()
}

// CreateRecord inserts a record holding every column's default value.
func (t *Table) CreateRecord() (record.ObjKey, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return record.NullObjKey, err
	}

	var idx uint32
	reuse := len(t.free) > 0
	if reuse {
		idx = t.free[len(t.free)-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot{})
	}
	key := record.MakeObjKey(t.slots[idx].gen, idx)

	tid, err := t.heap.Insert(key, nil)
	if err != nil {
		if !reuse {
			t.slots = t.slots[:idx]
		}
		return record.NullObjKey, fmt.Errorf("engine: create record in %q: %w", t.name, err)
	}
	if reuse {
		t.free = t.free[:len(t.free)-1]
	}
	t.slots[idx].live = true
	t.slots[idx].tid = tid
	t.live++
	slog.Debug("engine: record created", "table", t.name, "key", key, "tid", tid)
	return key, nil
}

// DeleteRecord removes the record; its key and every copy of it become
// invalid.
func (t *Table) DeleteRecord(key record.ObjKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	s, err := t.lookup(key)
	if err != nil {
		return err
	}
	if err := t.heap.Delete(s.tid); err != nil {
		return fmt.Errorf("engine: delete %s from %q: %w", key, t.name, err)
	}
	*s = slot{gen: record.NextGeneration(s.gen)}
	t.free = append(t.free, key.Slot())
	t.live--
	slog.Debug("engine: record deleted", "table", t.name, "key", key)
	return nil
}

// Records calls fn for each live record in slot order until fn returns
// false. The key set is captured before the first call.
func (t *Table) Records(fn func(key record.ObjKey) bool) {
	t.mu.RLock()
	keys := make([]record.ObjKey, 0, t.live)
	for i, s := range t.slots {
		if s.live {
			keys = append(keys, record.MakeObjKey(s.gen, uint32(i)))
		}
	}
	t.mu.RUnlock()

	for _, k := range keys {
		if !fn(k) {
			return
		}
	}
}

func (t *Table) readRow(key record.ObjKey) (map[record.ColKey]record.Value, *slot, error) {
	s, err := t.lookup(key)
	if err != nil {
		return nil, nil, err
	}
	_, values, err := t.heap.Get(s.tid)
	if err != nil {
		return nil, nil, fmt.Errorf("engine: read %s from %q: %w", key, t.name, err)
	}
	return values, s, nil
}

// Get returns the value stored in col of the record.
func (t *Table) Get(key record.ObjKey, col record.ColKey) (record.Value, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.checkOpen(); err != nil {
		return record.Null(), err
	}
	if _, err := t.column(col); err != nil {
		return record.Null(), err
	}
	values, _, err := t.readRow(key)
	if err != nil {
		return record.Null(), err
	}
	return values[col], nil
}

// IsNull reports whether col of the record holds null.
func (t *Table) IsNull(key record.ObjKey, col record.ColKey) (bool, error) {
	v, err := t.Get(key, col)
	if err != nil {
		return false, err
	}
	return v.IsNull(), nil
}

// Set stores v in col of the record. The new row image is validated and
// encoded before any page changes, so a failed Set leaves the record as it
// was.
func (t *Table) Set(key record.ObjKey, col record.ColKey, v record.Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	c, err := t.column(col)
	if err != nil {
		return err
	}
	if err := v.Check(c); err != nil {
		return fmt.Errorf("engine: set %q on %s: %w", c.Name, key, err)
	}

	values, s, err := t.readRow(key)
	if err != nil {
		return err
	}
	values[col] = v
	tid, err := t.heap.Update(s.tid, key, values)
	if err != nil {
		return fmt.Errorf("engine: set %q on %s: %w", c.Name, key, err)
	}
	s.tid = tid
	return nil
}

// SetNull stores null in col of the record.
func (t *Table) SetNull(key record.ObjKey, col record.ColKey) error {
	return t.Set(key, col, record.Null())
}

// SetLink points a link column at target; NullObjKey clears it. Whether
// target exists is not checked.
func (t *Table) SetLink(key record.ObjKey, col record.ColKey, target record.ObjKey) error {
	if target < record.NullObjKey {
		return fmt.Errorf("engine: link to %d: %w", int64(target), record.ErrInvalidLink)
	}
	return t.Set(key, col, record.Link(target))
}

func (t *Table) addColumn(col record.Column) (record.ColKey, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return record.NullColKey, err
	}

	col.Key = record.MakeColKey(t.tag, t.meta.NextColumnTag)
	schema, err := t.schema.WithColumn(col)
	if err != nil {
		return record.NullColKey, fmt.Errorf("engine: add column to %q: %w", t.name, err)
	}
	t.meta.NextColumnTag++
	t.setSchema(schema)
	if err := t.store.cat.WriteTable(t.meta); err != nil {
		return record.NullColKey, err
	}
	slog.Info("engine: column added", "table", t.name, "column", col.Name, "key", col.Key)
	return col.Key, nil
}

func (t *Table) removeColumn(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}

	key := t.schema.KeyOf(name)
	if key.IsNull() {
		return fmt.Errorf("%w: %q in %q", ErrColumnNotFound, name, t.name)
	}
	schema, err := t.schema.WithoutColumn(name)
	if err != nil {
		return fmt.Errorf("engine: remove column from %q: %w", t.name, err)
	}
	t.setSchema(schema)
	if err := t.store.cat.WriteTable(t.meta); err != nil {
		return err
	}
	slog.Info("engine: column removed", "table", t.name, "column", name, "key", key)
	return nil
}

func (t *Table) setSchema(s record.Schema) {
	t.schema = s
	t.heap.Schema = s
	t.meta.Columns = s.Columns()
}

// flush writes dirty pages and then the meta snapshot.
func (t *Table) flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Load() != stateOpen {
		return nil
	}

	if err := t.heap.Flush(); err != nil {
		return fmt.Errorf("engine: flush %q: %w", t.name, err)
	}
	gens := make([]uint32, len(t.slots))
	for i, s := range t.slots {
		gens[i] = s.gen
	}
	t.meta.Generations = gens
	t.meta.PageCount = t.heap.PageCount
	return t.store.cat.WriteTable(t.meta)
}

// TableStats summarizes one table.
type TableStats struct {
	Name    string
	ID      uuid.UUID
	Records int
	Columns int
	Pages   uint32
	Handles int32
}

func (t *Table) Stats() TableStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TableStats{
		Name:    t.name,
		ID:      t.id,
		Records: t.live,
		Columns: t.schema.NumCols(),
		Pages:   t.heap.PageCount,
		Handles: t.handles.Get(),
	}
}

func sortTableStats(s []TableStats) {
	sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
}
