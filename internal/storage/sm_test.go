package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageManager_LoadSaveCount(t *testing.T) {
	fs := LocalFileSet{Dir: t.TempDir(), Base: "segment"}
	sm := NewStorageManager()

	// Load page beyond EOF -> freshly initialized
	pg, err := sm.LoadPage(fs, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), pg.PageID())
	assert.Equal(t, MaxTupleSize+SlotSize, pg.FreeSpace())

	_, err = pg.InsertTuple([]byte("persist me"))
	require.NoError(t, err)
	require.NoError(t, sm.SavePage(fs, 2, pg))

	n, err := sm.CountPages(fs)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), n)

	again, err := sm.LoadPage(fs, 2)
	require.NoError(t, err)
	got, err := again.ReadTuple(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("persist me"), got)
}

func TestStorageManager_CountPagesEmpty(t *testing.T) {
	sm := NewStorageManager()
	n, err := sm.CountPages(LocalFileSet{Dir: filepath.Join(t.TempDir(), "missing"), Base: "x"})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRemoveAllSegments(t *testing.T) {
	dir := t.TempDir()
	lfs := LocalFileSet{Dir: dir, Base: "people"}
	for _, name := range []string{"people", "people.1", "people.2", "people.x", "peoplex"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, FileMode0644))
	}

	segs, err := listSegmentsLocal(lfs)
	require.NoError(t, err)
	require.Equal(t, []int32{0, 1, 2}, segs)

	require.NoError(t, RemoveAllSegments(lfs))
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	var left []string
	for _, e := range ents {
		left = append(left, e.Name())
	}
	require.ElementsMatch(t, []string{"people.x", "peoplex"}, left)
}

func TestFsKeyOf(t *testing.T) {
	key, lfs, ok := FsKeyOf(LocalFileSet{Dir: "/tmp/a/../b/", Base: "t"})
	require.True(t, ok)
	require.Equal(t, "/tmp/b|t", key)
	require.Equal(t, "/tmp/b", lfs.Dir)
}
