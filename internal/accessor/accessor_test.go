package accessor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novarow/internal"
	"github.com/tuannm99/novarow/internal/engine"
	"github.com/tuannm99/novarow/internal/record"
)

type fixture struct {
	store *engine.Store
	table *engine.Table
	row   *Row
}

func (f *fixture) key(t *testing.T, name string) record.ColKey {
	t.Helper()
	k := f.table.ColumnKey(name)
	require.False(t, k.IsNull(), "column %q", name)
	return k
}

func personColumns() []record.Column {
	return []record.Column{
		{Name: "age", Type: record.ColInt64},
		{Name: "nickname", Type: record.ColText, Nullable: true},
		{Name: "active", Type: record.ColBool},
		{Name: "ratio", Type: record.ColFloat32, Nullable: true},
		{Name: "score", Type: record.ColFloat64},
		{Name: "avatar", Type: record.ColBytes, Nullable: true},
		{Name: "born", Type: record.ColTimestamp, Nullable: true},
		{Name: "manager", Type: record.ColLink, Target: "person"},
		{Name: "tags", Type: record.ColText, List: true},
		{Name: "friends", Type: record.ColLinkList, Target: "person"},
	}
}

// newFixture opens a store in a temp dir with a "person" table and one
// record bound to a handle.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := internal.DefaultConfig()
	cfg.Storage.Workdir = t.TempDir()
	store, err := engine.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tbl, err := store.CreateTable("person", personColumns()...)
	require.NoError(t, err)
	k, err := tbl.CreateRecord()
	require.NoError(t, err)

	row, err := Open(tbl, k)
	require.NoError(t, err)
	t.Cleanup(row.Release)

	return &fixture{store: store, table: tbl, row: row}
}
