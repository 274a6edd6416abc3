package heap

import (
	"errors"
	"log/slog"

	"github.com/tuannm99/novarow/internal/bufferpool"
	"github.com/tuannm99/novarow/internal/record"
	"github.com/tuannm99/novarow/internal/storage"
)

// Table represent for heap file logic: name, schema, page cache and PageCount.
// It is not safe for concurrent use; callers serialize access.
type Table struct {
	Name      string
	Schema    record.Schema
	BP        bufferpool.Manager
	PageCount uint32
}

func NewTable(name string, schema record.Schema, bp bufferpool.Manager, pageCount uint32) *Table {
	return &Table{
		Name:      name,
		Schema:    schema,
		BP:        bp,
		PageCount: pageCount,
	}
}

// Insert always prefers the last page, if page is full a new one is created.
func (t *Table) Insert(key record.ObjKey, values map[record.ColKey]record.Value) (TID, error) {
	var pageID uint32
	if t.PageCount > 0 {
		pageID = t.PageCount - 1
	}

	for {
		p, err := t.BP.GetPage(pageID)
		if err != nil {
			return TID{}, err
		}

		hp := NewHeapPage(p, t.Schema)
		slot, err := hp.InsertRow(key, values)
		if errors.Is(err, storage.ErrNoSpace) {
			_ = t.BP.Unpin(p, false)
			pageID++
			continue
		}
		if err != nil {
			_ = t.BP.Unpin(p, false)
			return TID{}, err
		}

		if err := t.BP.Unpin(p, true); err != nil {
			return TID{}, err
		}
		// pages are created lazily; count one only once it holds a row
		if pageID >= t.PageCount {
			t.PageCount = pageID + 1
		}
		return TID{PageID: pageID, Slot: uint16(slot)}, nil
	}
}

// Get reads a single row by TID.
func (t *Table) Get(id TID) (record.ObjKey, map[record.ColKey]record.Value, error) {
	p, err := t.BP.GetPage(id.PageID)
	if err != nil {
		return record.NullObjKey, nil, err
	}
	hp := NewHeapPage(p, t.Schema)
	key, values, err := hp.ReadRow(int(id.Slot))
	_ = t.BP.Unpin(p, false)
	return key, values, err
}

// Update rewrites the row at id. When the new row no longer fits its page it
// is moved and the returned TID differs from id. On error the row stays at
// id with its old contents and id is returned.
func (t *Table) Update(id TID, key record.ObjKey, values map[record.ColKey]record.Value) (TID, error) {
	p, err := t.BP.GetPage(id.PageID)
	if err != nil {
		return id, err
	}
	hp := NewHeapPage(p, t.Schema)
	err = hp.UpdateRow(int(id.Slot), key, values)
	if err == nil || !errors.Is(err, storage.ErrNoSpace) {
		_ = t.BP.Unpin(p, err == nil)
		return id, err
	}
	_ = t.BP.Unpin(p, false)

	moved, err := t.Insert(key, values)
	if err != nil {
		return id, err
	}
	if err := t.Delete(id); err != nil {
		// the key must live in exactly one tuple
		if uerr := t.Delete(moved); uerr != nil {
			slog.Error("heap: undo move failed", "table", t.Name, "key", key, "tid", moved, "err", uerr)
		}
		return id, err
	}
	slog.Debug("heap: row moved", "table", t.Name, "key", key, "from", id, "to", moved)
	return moved, nil
}

// Delete marks a single row identified by TID as deleted.
func (t *Table) Delete(id TID) error {
	p, err := t.BP.GetPage(id.PageID)
	if err != nil {
		return err
	}
	hp := NewHeapPage(p, t.Schema)
	err = hp.DeleteRow(int(id.Slot))
	_ = t.BP.Unpin(p, err == nil)
	return err
}

// ScanRaw visits the encoded bytes of every live row. data aliases the page
// and is only valid during fn.
func (t *Table) ScanRaw(fn func(id TID, data []byte) error) error {
	for pageID := uint32(0); pageID < t.PageCount; pageID++ {
		p, err := t.BP.GetPage(pageID)
		if err != nil {
			return err
		}

		for slot := 0; slot < p.NumSlots(); slot++ {
			live, err := p.IsLiveSlot(slot)
			if err != nil {
				_ = t.BP.Unpin(p, false)
				return err
			}
			if !live {
				continue
			}

			data, err := p.ReadTuple(slot)
			if err == nil {
				err = fn(TID{PageID: pageID, Slot: uint16(slot)}, data)
			}
			if err != nil {
				_ = t.BP.Unpin(p, false)
				return err
			}
		}

		_ = t.BP.Unpin(p, false)
	}
	return nil
}

// Scan iterates through all live rows in the table.
func (t *Table) Scan(fn func(id TID, key record.ObjKey, values map[record.ColKey]record.Value) error) error {
	return t.ScanRaw(func(id TID, data []byte) error {
		key, values, err := record.DecodeRow(t.Schema, data)
		if err != nil {
			return err
		}
		return fn(id, key, values)
	})
}

func (t *Table) Flush() error {
	return t.BP.Flush()
}
