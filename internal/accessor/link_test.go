package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novarow/internal/record"
)

func TestLink_EmployeeManagerScenario(t *testing.T) {
	f := newFixture(t)

	emp, err := f.store.CreateTable("Employee",
		record.Column{Name: "name", Type: record.ColText},
		record.Column{Name: "manager", Type: record.ColLink, Target: "Employee"},
	)
	require.NoError(t, err)
	k, err := emp.CreateRecord()
	require.NoError(t, err)
	h, err := Open(emp, k)
	require.NoError(t, err)
	defer h.Release()

	manager, err := h.ColumnKey("manager")
	require.NoError(t, err)

	null, err := h.IsNullLink(manager)
	require.NoError(t, err)
	assert.True(t, null)

	require.NoError(t, h.SetLink(manager, 7))
	got, err := h.GetLink(manager)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	require.NoError(t, h.NullifyLink(manager))
	null, err = h.IsNullLink(manager)
	require.NoError(t, err)
	assert.True(t, null)

	target, err := h.LinkTarget(manager)
	require.NoError(t, err)
	assert.Equal(t, "Employee", target)
}

func TestLink_SentinelDistinctness(t *testing.T) {
	f := newFixture(t)
	manager := f.key(t, "manager")

	for _, target := range []int64{0, 1, int64(record.MakeObjKey(3, 0)), int64(record.MakeObjKey(1<<31-1, 1<<32-1))} {
		require.NoError(t, f.row.SetLink(manager, target))

		got, err := f.row.GetLink(manager)
		require.NoError(t, err)
		assert.Equal(t, target, got)
		assert.NotEqual(t, NullLink, got)

		null, err := f.row.IsNullLink(manager)
		require.NoError(t, err)
		assert.Equal(t, got == NullLink, null)
		assert.False(t, null)
	}

	require.NoError(t, f.row.NullifyLink(manager))
	require.NoError(t, f.row.NullifyLink(manager))
	got, err := f.row.GetLink(manager)
	require.NoError(t, err)
	assert.Equal(t, NullLink, got)
	null, err := f.row.IsNullLink(manager)
	require.NoError(t, err)
	assert.True(t, null)
}

func TestLink_RejectsNegativeTargets(t *testing.T) {
	f := newFixture(t)
	manager := f.key(t, "manager")
	require.NoError(t, f.row.SetLink(manager, 5))

	for _, target := range []int64{-1, -2, -1 << 40} {
		require.ErrorIs(t, f.row.SetLink(manager, target), ErrIllegalArgument)
	}
	got, err := f.row.GetLink(manager)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)
}

func TestLink_NonLinkColumns(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"age", "friends"} {
		k := f.key(t, name)
		_, err := f.row.GetLink(k)
		require.ErrorIs(t, err, ErrTypeMismatch, name)
		require.ErrorIs(t, f.row.SetLink(k, 1), ErrTypeMismatch, name)
		require.ErrorIs(t, f.row.NullifyLink(k), ErrTypeMismatch, name)
		_, err = f.row.IsNullLink(k)
		require.ErrorIs(t, err, ErrTypeMismatch, name)
	}

	_, err := f.row.LinkTarget(f.key(t, "age"))
	require.ErrorIs(t, err, ErrTypeMismatch)
	target, err := f.row.LinkTarget(f.key(t, "friends"))
	require.NoError(t, err)
	assert.Equal(t, "person", target)
}

func TestLink_ThroughGenericSet(t *testing.T) {
	f := newFixture(t)
	manager := f.key(t, "manager")

	require.NoError(t, f.row.Set(manager, record.Link(record.MakeObjKey(0, 4))))
	got, err := f.row.GetLink(manager)
	require.NoError(t, err)
	assert.Equal(t, int64(record.MakeObjKey(0, 4)), got)

	// links are always nullable
	require.NoError(t, f.row.Set(manager, record.Null()))
	null, err := f.row.IsNull(manager)
	require.NoError(t, err)
	assert.True(t, null)
}

func TestLink_InvalidHandleReadsAsNull(t *testing.T) {
	f := newFixture(t)
	manager := f.key(t, "manager")
	require.NoError(t, f.row.SetLink(manager, 3))

	key, err := f.row.RecordKey()
	require.NoError(t, err)
	require.NoError(t, f.table.DeleteRecord(key))

	got, err := f.row.GetLink(manager)
	require.ErrorIs(t, err, ErrInvalidHandle)
	assert.Equal(t, NullLink, got)

	null, err := f.row.IsNullLink(manager)
	require.ErrorIs(t, err, ErrInvalidHandle)
	assert.True(t, null)
}
