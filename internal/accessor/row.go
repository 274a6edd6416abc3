// Package accessor exposes single records of an engine table as handles
// whose fields are addressed by column key.
package accessor

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/tuannm99/novarow/internal/engine"
	"github.com/tuannm99/novarow/internal/record"
)

// binding is the state a handle owns. It is kept apart from Row so a runtime
// cleanup can release it without keeping the Row reachable.
type binding struct {
	table    *engine.Table
	key      record.ObjKey
	released atomic.Bool
}

// release unpins the table once; later calls report false.
func (b *binding) release() bool {
	if !b.released.CompareAndSwap(false, true) {
		return false
	}
	b.table.Unpin()
	return true
}

// Row is a handle bound to one record of one table. It is never rebound;
// open a new handle to address another record. All methods are safe on a
// nil or released Row.
type Row struct {
	b       *binding
	cleanup runtime.Cleanup
	managed bool
}

// Open binds a handle to key in t. The caller owns the handle and must
// Release it.
func Open(t *engine.Table, key record.ObjKey) (*Row, error) {
	if t == nil {
		return nil, fmt.Errorf("accessor: open: %w: nil table", ErrInvalidHandle)
	}
	if !t.IsValid(key) {
		return nil, fmt.Errorf("accessor: open %s in %s: %w", key, t, ErrInvalidHandle)
	}
	t.Pin()
	return &Row{b: &binding{table: t, key: key}}, nil
}

// OpenManaged is Open plus a runtime cleanup that releases the handle once
// the Row becomes unreachable. An explicit Release cancels the cleanup.
func OpenManaged(t *engine.Table, key record.ObjKey) (*Row, error) {
	r, err := Open(t, key)
	if err != nil {
		return nil, err
	}
	r.cleanup = runtime.AddCleanup(r, reclaim, r.b)
	r.managed = true
	return r, nil
}

func reclaim(b *binding) {
	if b.release() {
		slog.Warn("accessor: handle reclaimed without Release", "table", b.table.Name(), "key", b.key)
	}
}

var finalize = func(r *Row) { r.Release() }

// Finalizer returns the release hook for external memory managers. The same
// function is returned on every call.
func Finalizer() func(*Row) { return finalize }

// Release drops the handle. It is idempotent and may be called from any
// goroutine.
func (r *Row) Release() {
	if r == nil || r.b == nil {
		return
	}
	if !r.b.release() {
		slog.Debug("accessor: handle already released", "table", r.b.table.Name(), "key", r.b.key)
		return
	}
	if r.managed {
		r.cleanup.Stop()
	}
}

func (r *Row) Close() error {
	r.Release()
	return nil
}

func (r *Row) Released() bool { return r == nil || r.b == nil || r.b.released.Load() }

// IsValid reports whether the handle is bound, not released, and its record
// still exists. It never allocates and never fails.
func (r *Row) IsValid() bool {
	if r == nil || r.b == nil || r.b.released.Load() {
		return false
	}
	return r.b.table.IsValid(r.b.key)
}

// RecordKey returns the bound record's key.
func (r *Row) RecordKey() (record.ObjKey, error) {
	if !r.IsValid() {
		return record.NullObjKey, ErrInvalidHandle
	}
	return r.b.key, nil
}

// Table returns the bound table, nil for an unbound handle.
func (r *Row) Table() *engine.Table {
	if r == nil || r.b == nil {
		return nil
	}
	return r.b.table
}

func (r *Row) String() string {
	if r == nil || r.b == nil {
		return "row(unbound)"
	}
	return fmt.Sprintf("row(%s %s valid=%t)", r.b.table.Name(), r.b.key, r.IsValid())
}

// column runs the validity check every field operation starts with, then
// re-validates key against the live directory.
func (r *Row) column(op string, key record.ColKey) (record.Column, error) {
	if !r.IsValid() {
		return record.Column{}, fmt.Errorf("accessor: %s: %w", op, ErrInvalidHandle)
	}
	col, ok := r.b.table.Column(key)
	if !ok {
		return record.Column{}, fmt.Errorf("accessor: %s %s: %w", op, key, ErrUnknownColumn)
	}
	return col, nil
}
