package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novarow/internal/accessor"
	"github.com/tuannm99/novarow/internal/engine"
	"github.com/tuannm99/novarow/internal/record"
)

func newTestSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	cfg, err := loadConfig("", t.TempDir())
	require.NoError(t, err)
	store, err := engine.Open(cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	s := newSession(store, &out)
	t.Cleanup(func() { _ = s.close() })
	return s, &out
}

func execOut(t *testing.T, s *session, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	require.NoError(t, s.exec(line), line)
	return strings.TrimSpace(out.String())
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		def  string
		want record.Column
	}{
		{"age:int64", record.Column{Name: "age", Type: record.ColInt64}},
		{"nick:text?", record.Column{Name: "nick", Type: record.ColText, Nullable: true}},
		{"tags:string*", record.Column{Name: "tags", Type: record.ColText, List: true}},
		{"tags:string*?", record.Column{Name: "tags", Type: record.ColText, List: true, Nullable: true}},
		{"boss:link@person", record.Column{Name: "boss", Type: record.ColLink, Target: "person"}},
		{"pals:link*@person", record.Column{Name: "pals", Type: record.ColLink, List: true, Target: "person"}},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			got, err := parseColumn(tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"age", ":int", "age:wat"} {
		_, err := parseColumn(bad)
		require.Error(t, err, bad)
	}
}

func TestSession_RecordWorkflow(t *testing.T) {
	s, out := newTestSession(t)

	assert.Contains(t, execOut(t, s, out, "create person age:int nick:text? boss:link@person"), "table person created (3 columns")
	assert.Equal(t, "person\n(1 tables)", execOut(t, s, out, "tables"))
	assert.Contains(t, execOut(t, s, out, "cols person"), "nick")

	key := execOut(t, s, out, "new person")
	execOut(t, s, out, "open person "+key)
	assert.Equal(t, "novarow(person:"+key+")> ", s.prompt())

	assert.Equal(t, "0", execOut(t, s, out, "get age"))
	execOut(t, s, out, "set age 42")
	assert.Equal(t, "42", execOut(t, s, out, "get age"))

	execOut(t, s, out, `set nick "the bee"`)
	assert.Equal(t, `"the bee"`, execOut(t, s, out, "get nick"))
	execOut(t, s, out, "null nick")
	assert.Equal(t, "NULL", execOut(t, s, out, "get nick"))

	// null into a non-nullable column is refused; null is a no-op
	require.ErrorIs(t, s.exec("set age NULL"), accessor.ErrNullValue)
	execOut(t, s, out, "null age")
	assert.Equal(t, "42", execOut(t, s, out, "get age"))

	assert.Equal(t, "NULL", execOut(t, s, out, "get boss"))
	execOut(t, s, out, "link boss 7")
	assert.Equal(t, "7", execOut(t, s, out, "get boss"))
	execOut(t, s, out, "unlink boss")
	assert.Equal(t, "NULL", execOut(t, s, out, "get boss"))
	require.ErrorIs(t, s.exec("link boss -3"), accessor.ErrIllegalArgument)

	execOut(t, s, out, "del person "+key)
	assert.Equal(t, "novarow(invalid)> ", s.prompt())
	require.ErrorIs(t, s.exec("get age"), accessor.ErrInvalidHandle)

	execOut(t, s, out, "release")
	require.ErrorIs(t, s.exec("get age"), errNoHandle)
	assert.Contains(t, execOut(t, s, out, "stats"), "buffer pool")
}

func TestSession_SchemaCommands(t *testing.T) {
	s, out := newTestSession(t)

	execOut(t, s, out, "create pet name:text")
	assert.Contains(t, execOut(t, s, out, "addcol pet born:timestamp?"), "column born added")
	key := execOut(t, s, out, "new pet")
	execOut(t, s, out, "open pet "+key)
	execOut(t, s, out, "set born 2024-01-02T03:04:05.5Z")
	assert.Equal(t, "2024-01-02T03:04:05.500Z", execOut(t, s, out, "get born"))

	execOut(t, s, out, "dropcol pet born")
	require.ErrorIs(t, s.exec("get born"), accessor.ErrUnknownColumn)

	execOut(t, s, out, "drop pet")
	require.ErrorIs(t, s.exec("new pet"), engine.ErrTableNotFound)
}

func TestSession_Errors(t *testing.T) {
	s, _ := newTestSession(t)

	require.ErrorIs(t, s.exec("\\q"), errQuit)
	require.ErrorIs(t, s.exec("drop"), errUsage)
	require.ErrorIs(t, s.exec("open nope 0"), engine.ErrTableNotFound)
	require.Error(t, s.exec("frobnicate"))
	require.NoError(t, s.exec("   "))
}

func TestHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist", "novarow_history")
	h := NewHistory(path)
	require.NoError(t, h.Load(10))

	require.NoError(t, h.Append("get   age"))
	require.NoError(t, h.Append("  "))
	require.NoError(t, h.Append("set age\t1"))

	again := NewHistory(path)
	require.NoError(t, again.Load(1))
	assert.Equal(t, []string{"set age 1"}, again.lines)

	var buf bytes.Buffer
	h.Print(&buf, 0)
	assert.Equal(t, "    1  get age\n    2  set age 1\n", buf.String())
}
