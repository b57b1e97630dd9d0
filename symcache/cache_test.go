package symcache

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"

	"github.com/strager/anno2c/cgen"
)

func openMemory(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(":memory:")
	be.Err(t, err, nil)
	t.Cleanup(func() { c.Close() })
	return c
}

func symbolsOnly(syms ...cgen.Symbol) Module {
	return Module{Symbols: syms, Deps: map[string]string{}}
}

func TestLoadMissing(t *testing.T) {
	c := openMemory(t)
	m, ok, err := c.Load("util", "abc")
	be.Err(t, err, nil)
	be.True(t, !ok)
	be.Equal(t, len(m.Symbols), 0)
}

func TestStoreLoad(t *testing.T) {
	c := openMemory(t)
	want := Module{
		Symbols: []cgen.Symbol{
			{Name: "count", Type: "int"},
			{Name: "grid", Type: "unsigned char", ArraySizes: []string{"8", "16"}},
			{Name: "name", Type: "char", Pointer: true},
			{Name: "samples", Type: "float", Dynamic: true},
		},
		Deps: map[string]string{
			"/src/lib/base.sx":  "h2",
			"/src/lib/extra.sx": "",
		},
	}
	be.Err(t, c.Store("/src/sensors/temp.sx", "h1", want), nil)

	got, ok, err := c.Load("/src/sensors/temp.sx", "h1")
	be.Err(t, err, nil)
	be.True(t, ok)
	be.Equal(t, got, want)
}

func TestHashMismatch(t *testing.T) {
	c := openMemory(t)
	be.Err(t, c.Store("util", "old", symbolsOnly(cgen.Symbol{Name: "x", Type: "int"})), nil)

	_, ok, err := c.Load("util", "new")
	be.Err(t, err, nil)
	be.True(t, !ok)
}

func TestStoreReplaces(t *testing.T) {
	c := openMemory(t)
	first := Module{
		Symbols: []cgen.Symbol{{Name: "x", Type: "int"}, {Name: "y", Type: "int"}},
		Deps:    map[string]string{"base": "h"},
	}
	be.Err(t, c.Store("util", "old", first), nil)
	be.Err(t, c.Store("util", "new", symbolsOnly(cgen.Symbol{Name: "z", Type: "float"})), nil)

	got, ok, err := c.Load("util", "new")
	be.Err(t, err, nil)
	be.True(t, ok)
	be.Equal(t, got, symbolsOnly(cgen.Symbol{Name: "z", Type: "float"}))

	n, err := c.Len()
	be.Err(t, err, nil)
	be.Equal(t, n, 1)
}

func TestEmptyModule(t *testing.T) {
	c := openMemory(t)
	be.Err(t, c.Store("empty", "h", Module{}), nil)

	got, ok, err := c.Load("empty", "h")
	be.Err(t, err, nil)
	be.True(t, ok)
	be.Equal(t, len(got.Symbols), 0)
	be.Equal(t, len(got.Deps), 0)
}

func TestPersistsAcrossOpen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "symbols.db")

	c, err := Open(dsn)
	be.Err(t, err, nil)
	be.Err(t, c.Store("util", "h", symbolsOnly(cgen.Symbol{Name: "x", Type: "int"})), nil)
	be.Err(t, c.Close(), nil)

	c, err = Open(dsn)
	be.Err(t, err, nil)
	defer c.Close()
	got, ok, err := c.Load("util", "h")
	be.Err(t, err, nil)
	be.True(t, ok)
	be.Equal(t, got, symbolsOnly(cgen.Symbol{Name: "x", Type: "int"}))
}

func TestOldSchemaIsRebuilt(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "symbols.db")

	db, err := sql.Open("sqlite", dsn)
	be.Err(t, err, nil)
	_, err = db.Exec(`CREATE TABLE modules (path TEXT PRIMARY KEY, hash TEXT NOT NULL);
		CREATE TABLE symbols (path TEXT, idx INTEGER, name TEXT, type TEXT, sizes TEXT, pointer INTEGER);
		INSERT INTO modules VALUES ('util', 'h');`)
	be.Err(t, err, nil)
	be.Err(t, db.Close(), nil)

	c, err := Open(dsn)
	be.Err(t, err, nil)
	defer c.Close()

	_, ok, err := c.Load("util", "h")
	be.Err(t, err, nil)
	be.True(t, !ok)
	be.Err(t, c.Store("util", "h", symbolsOnly(cgen.Symbol{Name: "buf", Type: "int", Dynamic: true})), nil)
}
