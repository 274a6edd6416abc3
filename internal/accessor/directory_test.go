package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novarow/internal/record"
)

func TestDirectory_CountAndNames(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, len(personColumns()), f.row.ColumnCount())

	names, err := f.row.ColumnNames()
	require.NoError(t, err)
	require.Len(t, names, f.row.ColumnCount())
	for i, c := range personColumns() {
		assert.Equal(t, c.Name, names[i])
	}
}

func TestDirectory_NameKeySymmetry(t *testing.T) {
	f := newFixture(t)

	names, err := f.row.ColumnNames()
	require.NoError(t, err)
	for _, name := range names {
		k, err := f.row.ColumnKey(name)
		require.NoError(t, err)
		require.False(t, k.IsNull())

		back, err := f.row.ColumnName(k)
		require.NoError(t, err)
		assert.Equal(t, name, back)

		again, err := f.row.ColumnKey(back)
		require.NoError(t, err)
		assert.Equal(t, k, again)
		assert.True(t, f.row.HasColumn(name))
	}
}

func TestDirectory_Resolve(t *testing.T) {
	f := newFixture(t)

	k, err := f.row.ColumnKey("no_such_column")
	require.NoError(t, err)
	assert.Equal(t, record.NullColKey, k)
	assert.False(t, f.row.HasColumn("no_such_column"))

	k, err = f.row.ColumnKey(string([]byte{0xc3, 0x28}))
	require.ErrorIs(t, err, ErrIllegalArgument)
	assert.Equal(t, record.NullColKey, k)
}

func TestDirectory_ColumnTypes(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		column string
		want   record.FieldType
		code   int32
	}{
		{"age", record.Scalar(record.ColInt64), 0},
		{"active", record.Scalar(record.ColBool), 1},
		{"nickname", record.Scalar(record.ColText), 2},
		{"avatar", record.Scalar(record.ColBytes), 4},
		{"born", record.Scalar(record.ColTimestamp), 8},
		{"ratio", record.Scalar(record.ColFloat32), 9},
		{"score", record.Scalar(record.ColFloat64), 10},
		{"manager", record.Scalar(record.ColLink), 12},
		{"friends", record.List(record.ColLinkList), 13},
		{"tags", record.List(record.ColText), 2 + record.ListMarker},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			k := f.key(t, tt.column)
			ft, err := f.row.ColumnType(k)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ft)
			assert.Equal(t, tt.code, f.row.ColumnTypeCode(k))
			assert.Equal(t, tt.want, record.FieldTypeFromCode(tt.code))
		})
	}
}

func TestDirectory_Descriptors(t *testing.T) {
	f := newFixture(t)

	nullable, err := f.row.IsNullable(f.key(t, "nickname"))
	require.NoError(t, err)
	assert.True(t, nullable)

	nullable, err = f.row.IsNullable(f.key(t, "age"))
	require.NoError(t, err)
	assert.False(t, nullable)

	// links are nullable by construction
	nullable, err = f.row.IsNullable(f.key(t, "manager"))
	require.NoError(t, err)
	assert.True(t, nullable)

	list, err := f.row.IsList(f.key(t, "tags"))
	require.NoError(t, err)
	assert.True(t, list)
	list, err = f.row.IsList(f.key(t, "age"))
	require.NoError(t, err)
	assert.False(t, list)
}

func TestDirectory_UnknownAndForeignKeys(t *testing.T) {
	f := newFixture(t)

	other, err := f.store.CreateTable("pet", record.Column{Name: "age", Type: record.ColInt64})
	require.NoError(t, err)
	foreign := other.ColumnKey("age")
	require.NotEqual(t, f.key(t, "age"), foreign)

	fabricated := record.MakeColKey(f.table.Tag(), 999)

	for _, k := range []record.ColKey{foreign, fabricated, record.NullColKey} {
		ft, err := f.row.ColumnType(k)
		require.ErrorIs(t, err, ErrUnknownColumn)
		assert.Equal(t, record.UnknownFieldType, ft)
		assert.Equal(t, int32(-1), f.row.ColumnTypeCode(k))

		_, err = f.row.ColumnName(k)
		require.ErrorIs(t, err, ErrUnknownColumn)
		_, err = f.row.GetInt64(k)
		require.ErrorIs(t, err, ErrUnknownColumn)
		require.ErrorIs(t, f.row.SetInt64(k, 1), ErrUnknownColumn)
		_, err = f.row.IsNull(k)
		require.ErrorIs(t, err, ErrUnknownColumn)
		require.ErrorIs(t, f.row.SetNull(k), ErrUnknownColumn)
		_, err = f.row.GetLink(k)
		require.ErrorIs(t, err, ErrUnknownColumn)
	}
}

func TestDirectory_FollowsSchemaChanges(t *testing.T) {
	f := newFixture(t)
	age := f.key(t, "age")
	require.NoError(t, f.row.SetInt64(age, 30))

	added, err := f.store.AddColumn("person", record.Column{Name: "email", Type: record.ColText, Nullable: true})
	require.NoError(t, err)
	assert.Equal(t, len(personColumns())+1, f.row.ColumnCount())
	null, err := f.row.IsNull(added)
	require.NoError(t, err)
	assert.True(t, null)

	require.NoError(t, f.store.RemoveColumn("person", "nickname"))
	assert.False(t, f.row.HasColumn("nickname"))
	assert.Equal(t, len(personColumns()), f.row.ColumnCount())

	// other keys stay stable
	got, err := f.row.GetInt64(age)
	require.NoError(t, err)
	assert.Equal(t, int64(30), got)
}

func TestCollectNames_OutOfMemory(t *testing.T) {
	names, err := collectNames(-1, func(int) string { return "" })
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Nil(t, names)

	names, err = collectNames(2, func(i int) string { return []string{"a", "b"}[i] })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}
