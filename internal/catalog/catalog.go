package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tuannm99/novarow/internal/storage"
)

var ErrTableMetaNotFound = errors.New("catalog: table meta not found")

const (
	metaSuffix    = ".meta.json"
	storeMetaFile = "store.meta.json"
)

// Catalog reads and writes the json meta files under a store directory.
type Catalog struct {
	Dir string
}

func New(dir string) *Catalog { return &Catalog{Dir: dir} }

func (c *Catalog) TableDir() string { return filepath.Join(c.Dir, "tables") }

func (c *Catalog) tableMetaPath(name string) string {
	return filepath.Join(c.TableDir(), name+metaSuffix)
}

// FileSet returns the heap files of a table.
func (c *Catalog) FileSet(name string) storage.LocalFileSet {
	return storage.LocalFileSet{Dir: c.TableDir(), Base: name}
}

// writeJSON replaces path atomically via a temp file + rename.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), storage.FileMode0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, storage.FileMode0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// LoadStore reads store.meta.json, creating it on first use.
func (c *Catalog) LoadStore() (*StoreMeta, error) {
	path := filepath.Join(c.Dir, storeMetaFile)
	var meta StoreMeta
	err := readJSON(path, &meta)
	if errors.Is(err, fs.ErrNotExist) {
		meta = StoreMeta{ID: uuid.New(), NextTableTag: 1}
		if err := c.WriteStore(&meta); err != nil {
			return nil, err
		}
		return &meta, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read store meta: %w", err)
	}
	return &meta, nil
}

func (c *Catalog) WriteStore(meta *StoreMeta) error {
	return writeJSON(filepath.Join(c.Dir, storeMetaFile), meta)
}

// NewTableMeta starts a fresh generation of table name.
func NewTableMeta(name string, tag uint32) *TableMeta {
	now := time.Now()
	return &TableMeta{
		ID:            uuid.New(),
		Name:          name,
		Tag:           tag,
		NextColumnTag: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// WriteTable overwrites the meta file for a given table.
func (c *Catalog) WriteTable(meta *TableMeta) error {
	meta.UpdatedAt = time.Now()
	return writeJSON(c.tableMetaPath(meta.Name), meta)
}

// ReadTable loads table metadata from its json file.
func (c *Catalog) ReadTable(name string) (*TableMeta, error) {
	var meta TableMeta
	err := readJSON(c.tableMetaPath(name), &meta)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrTableMetaNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", name, err)
	}
	return &meta, nil
}

func (c *Catalog) HasTable(name string) bool {
	_, err := os.Stat(c.tableMetaPath(name))
	return err == nil
}

// RemoveTable deletes the meta file and every heap segment of the table.
func (c *Catalog) RemoveTable(name string) error {
	if err := storage.RemoveAllSegments(c.FileSet(name)); err != nil {
		return err
	}
	err := os.Remove(c.tableMetaPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ListTables returns table names in lexical order.
func (c *Catalog) ListTables() ([]string, error) {
	entries, err := os.ReadDir(c.TableDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), metaSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), metaSuffix))
	}
	sort.Strings(names)
	return names, nil
}
