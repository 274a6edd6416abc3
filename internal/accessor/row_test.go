package accessor

import (
	"reflect"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novarow/internal/engine"
	"github.com/tuannm99/novarow/internal/record"
)

func TestOpen_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := Open(nil, record.MakeObjKey(0, 0))
	require.ErrorIs(t, err, ErrInvalidHandle)

	for _, k := range []record.ObjKey{record.NullObjKey, record.MakeObjKey(0, 99), record.MakeObjKey(1, 0)} {
		_, err = Open(f.table, k)
		require.ErrorIs(t, err, ErrInvalidHandle, k.String())
	}
	assert.Equal(t, int32(1), f.table.OpenHandles())
}

func TestRow_DeletedRecordIsDeterministic(t *testing.T) {
	f := newFixture(t)
	age := f.key(t, "age")
	nick := f.key(t, "nickname")
	manager := f.key(t, "manager")
	require.NoError(t, f.row.SetInt64(age, 42))
	require.NoError(t, f.row.SetString(nick, "bee"))

	k, err := f.row.RecordKey()
	require.NoError(t, err)
	require.NoError(t, f.table.DeleteRecord(k))

	// the slot is reused by a new record; the handle must not follow it
	fresh, err := f.table.CreateRecord()
	require.NoError(t, err)
	require.Equal(t, k.Slot(), fresh.Slot())

	for range 2 {
		assert.False(t, f.row.IsValid())

		n, err := f.row.GetInt64(age)
		require.ErrorIs(t, err, ErrInvalidHandle)
		assert.Zero(t, n)

		v, err := f.row.Get(age)
		require.ErrorIs(t, err, ErrInvalidHandle)
		got, ok := v.AsInt64()
		assert.True(t, ok)
		assert.Zero(t, got)

		s, err := f.row.GetString(nick)
		require.ErrorIs(t, err, ErrInvalidHandle)
		assert.Empty(t, s)

		l, err := f.row.GetLink(manager)
		require.ErrorIs(t, err, ErrInvalidHandle)
		assert.Equal(t, NullLink, l)

		assert.Equal(t, 0, f.row.ColumnCount())
		ck, err := f.row.ColumnKey("age")
		require.ErrorIs(t, err, ErrInvalidHandle)
		assert.Equal(t, record.NullColKey, ck)
		_, err = f.row.ColumnNames()
		require.ErrorIs(t, err, ErrInvalidHandle)
		assert.False(t, f.row.HasColumn("age"))
		rk, err := f.row.RecordKey()
		require.ErrorIs(t, err, ErrInvalidHandle)
		assert.Equal(t, record.NullObjKey, rk)

		require.ErrorIs(t, f.row.SetInt64(age, 1), ErrInvalidHandle)
		require.ErrorIs(t, f.row.SetNull(nick), ErrInvalidHandle)
		require.ErrorIs(t, f.row.SetLink(manager, 1), ErrInvalidHandle)
		require.ErrorIs(t, f.row.NullifyLink(manager), ErrInvalidHandle)
	}

	// writes through the stale handle never reached the new record
	h, err := Open(f.table, fresh)
	require.NoError(t, err)
	defer h.Release()
	n, err := h.GetInt64(age)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRow_DroppedTableInvalidatesHandle(t *testing.T) {
	f := newFixture(t)
	age := f.key(t, "age")

	require.NoError(t, f.store.DropTable("person"))
	assert.False(t, f.row.IsValid())
	n, err := f.row.GetInt64(age)
	require.ErrorIs(t, err, ErrInvalidHandle)
	assert.Zero(t, n)
	require.ErrorIs(t, f.row.SetInt64(age, 3), ErrInvalidHandle)
}

func TestRow_ZeroValueIsInvalid(t *testing.T) {
	var r Row
	assert.False(t, r.IsValid())
	assert.Equal(t, 0, r.ColumnCount())
	_, err := r.GetInt64(record.MakeColKey(1, 1))
	require.ErrorIs(t, err, ErrInvalidHandle)
	v, err := r.Get(record.MakeColKey(1, 1))
	require.ErrorIs(t, err, ErrInvalidHandle)
	assert.True(t, v.IsNull())
	r.Release()
	require.NoError(t, r.Close())
	assert.Equal(t, "row(unbound)", r.String())

	var nilRow *Row
	assert.False(t, nilRow.IsValid())
	nilRow.Release()
}

func TestRow_ReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	k, err := f.row.RecordKey()
	require.NoError(t, err)

	h, err := Open(f.table, k)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.table.OpenHandles())

	h.Release()
	h.Release()
	require.NoError(t, h.Close())
	assert.Equal(t, int32(1), f.table.OpenHandles())
	assert.True(t, h.Released())
	assert.False(t, h.IsValid())

	// the other handle on the same record is unaffected
	assert.True(t, f.row.IsValid())
}

func TestRow_ConcurrentRelease(t *testing.T) {
	f := newFixture(t)
	k, err := f.row.RecordKey()
	require.NoError(t, err)

	h, err := Open(f.table, k)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), f.table.OpenHandles())
}

func TestFinalizer_IsStable(t *testing.T) {
	f := newFixture(t)
	k, err := f.row.RecordKey()
	require.NoError(t, err)

	fin := Finalizer()
	assert.Equal(t, reflect.ValueOf(fin).Pointer(), reflect.ValueOf(Finalizer()).Pointer())

	h, err := Open(f.table, k)
	require.NoError(t, err)
	fin(h)
	fin(h)
	assert.False(t, h.IsValid())
	assert.Equal(t, int32(1), f.table.OpenHandles())
}

func TestOpenManaged_ExplicitRelease(t *testing.T) {
	f := newFixture(t)
	k, err := f.row.RecordKey()
	require.NoError(t, err)

	h, err := OpenManaged(f.table, k)
	require.NoError(t, err)
	require.Equal(t, int32(2), f.table.OpenHandles())
	h.Release()
	require.Equal(t, int32(1), f.table.OpenHandles())

	runtime.GC()
	assert.Equal(t, int32(1), f.table.OpenHandles())
}

func openAndDrop(t *testing.T, tbl *engine.Table, k record.ObjKey) {
	t.Helper()
	h, err := OpenManaged(tbl, k)
	require.NoError(t, err)
	require.True(t, h.IsValid())
}

func TestOpenManaged_ReclaimedByRuntime(t *testing.T) {
	f := newFixture(t)
	k, err := f.row.RecordKey()
	require.NoError(t, err)

	openAndDrop(t, f.table, k)
	require.Eventually(t, func() bool {
		runtime.GC()
		return f.table.OpenHandles() == 1
	}, 5*time.Second, 10*time.Millisecond)
}
