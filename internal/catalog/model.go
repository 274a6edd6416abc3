package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuannm99/novarow/internal/record"
)

// TableMeta is the persisted description of one table generation.
type TableMeta struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Tag           uint32          `json:"tag"`
	NextColumnTag uint32          `json:"next_column_tag"`
	Columns       []record.Column `json:"columns"`
	// Generations holds the current generation of every record slot, live
	// or free, so stale keys stay stale across restarts.
	Generations []uint32  `json:"generations"`
	PageCount   uint32    `json:"page_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Schema rebuilds the record schema described by the meta.
func (m *TableMeta) Schema() (record.Schema, error) {
	return record.NewSchema(m.Tag, m.Columns...)
}

// StoreMeta is store-wide state.
type StoreMeta struct {
	ID           uuid.UUID `json:"id"`
	NextTableTag uint32    `json:"next_table_tag"`
}
