// Package novarow is the top-level facade: an embedded record store whose
// records are read and written through key-addressed handles.
package novarow

import (
	"github.com/tuannm99/novarow/internal"
	"github.com/tuannm99/novarow/internal/accessor"
	"github.com/tuannm99/novarow/internal/engine"
	"github.com/tuannm99/novarow/internal/record"
)

type (
	Config = internal.NovaRowConfig
	Store  = engine.Store
	Table  = engine.Table
	Row    = accessor.Row

	Column    = record.Column
	ColKey    = record.ColKey
	ObjKey    = record.ObjKey
	FieldType = record.FieldType
	Value     = record.Value
)

// Open opens the store described by cfg; nil means DefaultConfig.
func Open(cfg *Config) (*Store, error) { return engine.Open(cfg) }

// OpenRecord binds a handle to key in t. Release it when done.
func OpenRecord(t *Table, key ObjKey) (*Row, error) { return accessor.Open(t, key) }

func DefaultConfig() *Config                  { return internal.DefaultConfig() }
func LoadConfig(path string) (*Config, error) { return internal.LoadConfig(path) }
