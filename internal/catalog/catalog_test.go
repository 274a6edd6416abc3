package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novarow/internal/record"
	"github.com/tuannm99/novarow/internal/storage"
)

func TestCatalog_StoreMetaCreatedOnce(t *testing.T) {
	c := New(t.TempDir())

	first, err := c.LoadStore()
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, first.ID)
	require.Equal(t, uint32(1), first.NextTableTag)

	first.NextTableTag = 5
	require.NoError(t, c.WriteStore(first))

	again, err := c.LoadStore()
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, uint32(5), again.NextTableTag)
}

func TestCatalog_TableMetaRoundTrip(t *testing.T) {
	c := New(t.TempDir())

	meta := NewTableMeta("people", 2)
	meta.Columns = []record.Column{
		{Key: record.MakeColKey(2, 1), Name: "age", Type: record.ColInt64},
		{Key: record.MakeColKey(2, 2), Name: "boss", Type: record.ColLink, Nullable: true, Target: "people"},
	}
	meta.NextColumnTag = 3
	meta.Generations = []uint32{0, 4, 1}
	require.NoError(t, c.WriteTable(meta))
	require.True(t, c.HasTable("people"))

	got, err := c.ReadTable("people")
	require.NoError(t, err)
	require.Equal(t, meta.ID, got.ID)
	require.Equal(t, meta.Columns, got.Columns)
	require.Equal(t, []uint32{0, 4, 1}, got.Generations)

	s, err := got.Schema()
	require.NoError(t, err)
	require.Equal(t, record.MakeColKey(2, 2), s.KeyOf("boss"))
}

func TestCatalog_ListAndRemove(t *testing.T) {
	c := New(t.TempDir())
	for i, name := range []string{"pets", "people"} {
		require.NoError(t, c.WriteTable(NewTableMeta(name, uint32(i+1))))
	}

	names, err := c.ListTables()
	require.NoError(t, err)
	require.Equal(t, []string{"people", "pets"}, names)

	sm := storage.NewStorageManager()
	pg, err := sm.LoadPage(c.FileSet("pets"), 0)
	require.NoError(t, err)
	require.NoError(t, sm.SavePage(c.FileSet("pets"), 0, pg))

	require.NoError(t, c.RemoveTable("pets"))
	n, err := sm.CountPages(c.FileSet("pets"))
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = c.ReadTable("pets")
	require.ErrorIs(t, err, ErrTableMetaNotFound)

	names, err = c.ListTables()
	require.NoError(t, err)
	require.Equal(t, []string{"people"}, names)
}

func TestCatalog_ListEmptyDir(t *testing.T) {
	names, err := New(t.TempDir()).ListTables()
	require.NoError(t, err)
	require.Empty(t, names)
}
