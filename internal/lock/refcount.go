package locking

// RefCount tracks how many accessor handles are bound to a table, so a store
// can report handles that were never released when it closes.

import (
	"fmt"
	"sync/atomic"
)

type RefCount struct {
	count atomic.Int32
}

func NewRefCount() *RefCount {
	return &RefCount{}
}

func (r *RefCount) Inc() int32 {
	return r.count.Add(1)
}

// Dec reports whether the count reached zero.
func (r *RefCount) Dec() bool {
	n := r.count.Add(-1)
	if n < 0 {
		panic("refcount dropped below zero")
	}
	return n == 0
}

func (r *RefCount) Get() int32 {
	return r.count.Load()
}

func (r *RefCount) String() string {
	return fmt.Sprintf("RefCount: %d", r.Get())
}
