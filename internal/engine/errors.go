package engine

import "errors"

var (
	ErrStoreClosed      = errors.New("engine: store is closed")
	ErrTableExists      = errors.New("engine: table already exists")
	ErrTableNotFound    = errors.New("engine: table not found")
	ErrTableDropped     = errors.New("engine: table was dropped")
	ErrInvalidTableName = errors.New("engine: invalid table name")
	ErrRecordNotFound   = errors.New("engine: record not found")
	ErrColumnNotFound   = errors.New("engine: column not found")
)
