package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tuannm99/novarow/internal/accessor"
	"github.com/tuannm99/novarow/internal/engine"
	"github.com/tuannm99/novarow/internal/record"
	"github.com/tuannm99/novarow/internal/storage"
)

var (
	errQuit     = errors.New("quit")
	errUsage    = errors.New("usage")
	errNoHandle = errors.New("no open record; use: open <table> <key>")
)

const helpText = `commands:
  create <table> <col>:<type>[?][*][@target] ...   create a table
  drop <table>                                       drop a table
  addcol <table> <col>:<type>[?][*][@target]         add a column
  dropcol <table> <col>                              drop a column
  tables                                             list tables
  cols <table>                                       list columns
  new <table>                                        create a record
  del <table> <key>                                  delete a record
  open <table> <key>                                 bind the current record
  get <col> | set <col> <value> | null <col>         field access
  link <col> <key> | unlink <col>                    link access
  release                                            release the current record
  stats                                              store statistics
  \history | \help | \q

types: int64 bool text bytes timestamp float32 float64 link linklist
  ? nullable, * list, @target link target table`

// session is one CLI conversation with a store: at most one bound record.
type session struct {
	store *engine.Store
	out   io.Writer
	row   *accessor.Row
}

func newSession(store *engine.Store, out io.Writer) *session {
	return &session{store: store, out: out}
}

func (s *session) prompt() string {
	if s.row == nil {
		return prompt
	}
	k, err := s.row.RecordKey()
	if err != nil {
		return "novarow(invalid)> "
	}
	return fmt.Sprintf("novarow(%s:%d)> ", s.row.Table().Name(), int64(k))
}

func (s *session) release() {
	if s.row != nil {
		s.row.Release()
		s.row = nil
	}
}

func (s *session) close() error {
	s.release()
	return s.store.Close()
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// exec runs one command line.
func (s *session) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "\\q", "quit", "exit":
		return errQuit
	case "\\help", "help":
		s.printf("%s\n", helpText)
		return nil
	case "create":
		return s.create(args)
	case "drop":
		if len(args) != 1 {
			return fmt.Errorf("%w: drop <table>", errUsage)
		}
		if err := s.store.DropTable(args[0]); err != nil {
			return err
		}
		s.printf("OK\n")
		return nil
	case "addcol":
		return s.addColumn(args)
	case "dropcol":
		if len(args) != 2 {
			return fmt.Errorf("%w: dropcol <table> <col>", errUsage)
		}
		if err := s.store.RemoveColumn(args[0], args[1]); err != nil {
			return err
		}
		s.printf("OK\n")
		return nil
	case "tables":
		return s.tables()
	case "cols":
		return s.columns(args)
	case "new":
		return s.newRecord(args)
	case "del":
		return s.deleteRecord(args)
	case "open":
		return s.open(args)
	case "release":
		s.release()
		s.printf("OK\n")
		return nil
	case "get":
		return s.get(args)
	case "set":
		return s.set(line, args)
	case "null":
		return s.setNull(args)
	case "link":
		return s.link(args)
	case "unlink":
		return s.unlink(args)
	case "stats":
		return s.stats()
	}
	return fmt.Errorf("unknown command %q (try \\help)", cmd)
}

// parseColumn parses name:type with optional ? (nullable), * (list) and
// @target suffixes.
func parseColumn(def string) (record.Column, error) {
	name, typ, ok := strings.Cut(def, ":")
	if !ok || name == "" {
		return record.Column{}, fmt.Errorf("%w: column %q, want name:type", errUsage, def)
	}
	var col record.Column
	col.Name = name
	if t, target, found := strings.Cut(typ, "@"); found {
		typ, col.Target = t, target
	}
suffixes:
	for len(typ) > 0 {
		switch typ[len(typ)-1] {
		case '?':
			col.Nullable = true
		case '*':
			col.List = true
		default:
			break suffixes
		}
		typ = typ[:len(typ)-1]
	}
	ct, err := record.ParseColumnType(typ)
	if err != nil {
		return record.Column{}, err
	}
	col.Type = ct
	return col, nil
}

func (s *session) create(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: create <table> <col>:<type> ...", errUsage)
	}
	cols := make([]record.Column, 0, len(args)-1)
	for _, a := range args[1:] {
		c, err := parseColumn(a)
		if err != nil {
			return err
		}
		cols = append(cols, c)
	}
	t, err := s.store.CreateTable(args[0], cols...)
	if err != nil {
		return err
	}
	s.printf("table %s created (%d columns, id %s)\n", t.Name(), len(cols), t.ID())
	return nil
}

func (s *session) addColumn(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: addcol <table> <col>:<type>", errUsage)
	}
	c, err := parseColumn(args[1])
	if err != nil {
		return err
	}
	k, err := s.store.AddColumn(args[0], c)
	if err != nil {
		return err
	}
	s.printf("column %s added as %s\n", c.Name, k)
	return nil
}

func (s *session) tables() error {
	names, err := s.store.TableNames()
	if err != nil {
		return err
	}
	for _, n := range names {
		s.printf("%s\n", n)
	}
	s.printf("(%d tables)\n", len(names))
	return nil
}

func (s *session) columns(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: cols <table>", errUsage)
	}
	t, err := s.store.OpenTable(args[0])
	if err != nil {
		return err
	}
	for _, c := range t.Schema().Columns() {
		flags := ""
		if c.Nullable {
			flags += " nullable"
		}
		if c.Target != "" {
			flags += " -> " + c.Target
		}
		s.printf("%-16s %-14s code=%-4d %s%s\n", c.Name, c.FieldType(), c.FieldType().Code(), c.Key, flags)
	}
	return nil
}

func parseKey(s string) (record.ObjKey, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return record.NullObjKey, fmt.Errorf("%w: record key %q", errUsage, s)
	}
	return record.ObjKey(n), nil
}

func (s *session) newRecord(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: new <table>", errUsage)
	}
	t, err := s.store.OpenTable(args[0])
	if err != nil {
		return err
	}
	k, err := t.CreateRecord()
	if err != nil {
		return err
	}
	s.printf("%d\n", int64(k))
	return nil
}

func (s *session) deleteRecord(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: del <table> <key>", errUsage)
	}
	t, err := s.store.OpenTable(args[0])
	if err != nil {
		return err
	}
	k, err := parseKey(args[1])
	if err != nil {
		return err
	}
	if err := t.DeleteRecord(k); err != nil {
		return err
	}
	s.printf("OK\n")
	return nil
}

func (s *session) open(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: open <table> <key>", errUsage)
	}
	t, err := s.store.OpenTable(args[0])
	if err != nil {
		return err
	}
	k, err := parseKey(args[1])
	if err != nil {
		return err
	}
	row, err := accessor.Open(t, k)
	if err != nil {
		return err
	}
	s.release()
	s.row = row
	s.printf("OK\n")
	return nil
}

func (s *session) column(args []string, usage string, n int) (record.ColKey, error) {
	if len(args) < n {
		return record.NullColKey, fmt.Errorf("%w: %s", errUsage, usage)
	}
	if s.row == nil {
		return record.NullColKey, errNoHandle
	}
	k, err := s.row.ColumnKey(args[0])
	if err != nil {
		return record.NullColKey, err
	}
	if k.IsNull() {
		return record.NullColKey, fmt.Errorf("%w: %q", accessor.ErrUnknownColumn, args[0])
	}
	return k, nil
}

func (s *session) get(args []string) error {
	k, err := s.column(args, "get <col>", 1)
	if err != nil {
		return err
	}
	ft, err := s.row.ColumnType(k)
	if err != nil {
		return err
	}
	if ft.Base == record.ColLink && !ft.List {
		target, err := s.row.GetLink(k)
		if err != nil {
			return err
		}
		if target == accessor.NullLink {
			s.printf("NULL\n")
		} else {
			s.printf("%d\n", target)
		}
		return nil
	}
	v, err := s.row.Get(k)
	if err != nil {
		return err
	}
	s.printf("%s\n", v)
	return nil
}

// parseValue converts CLI text into a value of type t.
func parseValue(t record.ColumnType, raw string) (record.Value, error) {
	if raw == "NULL" {
		return record.Null(), nil
	}
	switch t {
	case record.ColInt64:
		n, err := strconv.ParseInt(raw, 10, 64)
		return record.Int64(n), err
	case record.ColBool:
		b, err := strconv.ParseBool(raw)
		return record.Bool(b), err
	case record.ColFloat32:
		f, err := strconv.ParseFloat(raw, 32)
		return record.Float32(float32(f)), err
	case record.ColFloat64:
		f, err := strconv.ParseFloat(raw, 64)
		return record.Float64(f), err
	case record.ColText:
		if strings.HasPrefix(raw, `"`) {
			u, err := strconv.Unquote(raw)
			return record.Text(u), err
		}
		return record.Text(raw), nil
	case record.ColBytes:
		b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
		if b == nil {
			b = []byte{}
		}
		return record.Bytes(b), err
	case record.ColTimestamp:
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return record.TimestampMillis(ms), nil
		}
		tm, err := time.Parse(time.RFC3339Nano, raw)
		return record.TimestampOf(record.TimestampFromTime(tm)), err
	case record.ColLink:
		k, err := parseKey(raw)
		return record.Link(k), err
	}
	return record.Null(), fmt.Errorf("%w: cannot set %s from the CLI", record.ErrUnsupportedType, t)
}

func (s *session) set(line string, args []string) error {
	k, err := s.column(args, "set <col> <value>", 2)
	if err != nil {
		return err
	}
	ft, err := s.row.ColumnType(k)
	if err != nil {
		return err
	}
	// the value is the rest of the line so text may contain spaces
	rest := strings.TrimSpace(line)
	rest = strings.TrimSpace(rest[len("set"):])
	rest = strings.TrimSpace(rest[len(args[0]):])
	v, err := parseValue(ft.Base, rest)
	if err != nil {
		return err
	}
	if err := s.row.Set(k, v); err != nil {
		return err
	}
	s.printf("OK\n")
	return nil
}

func (s *session) setNull(args []string) error {
	k, err := s.column(args, "null <col>", 1)
	if err != nil {
		return err
	}
	if err := s.row.SetNull(k); err != nil {
		return err
	}
	s.printf("OK\n")
	return nil
}

func (s *session) link(args []string) error {
	k, err := s.column(args, "link <col> <key>", 2)
	if err != nil {
		return err
	}
	target, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: link target %q", errUsage, args[1])
	}
	if err := s.row.SetLink(k, target); err != nil {
		return err
	}
	s.printf("OK\n")
	return nil
}

func (s *session) unlink(args []string) error {
	k, err := s.column(args, "unlink <col>", 1)
	if err != nil {
		return err
	}
	if err := s.row.NullifyLink(k); err != nil {
		return err
	}
	s.printf("OK\n")
	return nil
}

func (s *session) stats() error {
	st := s.store.Stats()
	s.printf("store %s\n", st.Dir)
	for _, t := range st.Tables {
		s.printf("  %-16s records=%s columns=%d pages=%d (%s) handles=%d\n",
			t.Name, humanize.Comma(int64(t.Records)), t.Columns, t.Pages,
			humanize.IBytes(uint64(t.Pages)*storage.PageSize), t.Handles)
	}
	p := st.Pool
	s.printf("  buffer pool: %d/%d frames (%s), dirty=%d pinned=%d hits=%s misses=%s evictions=%s\n",
		p.Used, p.Capacity, humanize.IBytes(uint64(p.Capacity)*storage.PageSize), p.Dirty, p.Pinned,
		humanize.Comma(int64(p.Hits)), humanize.Comma(int64(p.Misses)), humanize.Comma(int64(p.Evictions)))
	return nil
}
