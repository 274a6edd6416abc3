package heap

import (
	"github.com/tuannm99/novarow/internal/record"
	"github.com/tuannm99/novarow/internal/storage"
)

// HeapPage = Page + Schema, row-level wrapper on top of Page
// operating on keyed records instead of raw []byte.
type HeapPage struct {
	Page   *storage.Page
	Schema record.Schema
}

func NewHeapPage(p *storage.Page, s record.Schema) HeapPage {
	return HeapPage{Page: p, Schema: s}
}

// InsertRow encodes the row before touching the page, so an encoding error
// leaves the page unchanged.
func (hp *HeapPage) InsertRow(key record.ObjKey, values map[record.ColKey]record.Value) (int, error) {
	data, err := record.EncodeRow(hp.Schema, key, values)
	if err != nil {
		return -1, err
	}
	return hp.Page.InsertTuple(data)
}

func (hp *HeapPage) ReadRow(slot int) (record.ObjKey, map[record.ColKey]record.Value, error) {
	data, err := hp.Page.ReadTuple(slot)
	if err != nil {
		return record.NullObjKey, nil, err
	}
	return record.DecodeRow(hp.Schema, data)
}

// UpdateRow rewrites the row in slot. storage.ErrNoSpace means the new
// encoding does not fit this page and the old row is left as it was.
func (hp *HeapPage) UpdateRow(slot int, key record.ObjKey, values map[record.ColKey]record.Value) error {
	data, err := record.EncodeRow(hp.Schema, key, values)
	if err != nil {
		return err
	}
	return hp.Page.UpdateTuple(slot, data)
}

func (hp *HeapPage) DeleteRow(slot int) error {
	return hp.Page.DeleteTuple(slot)
}
