package cgen

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestRegistryDeclareLookup(t *testing.T) {
	r := NewRegistry()

	id, ok := r.Declare(Entry{Name: "x", Type: "int"})
	be.True(t, ok)

	found, ok := r.Lookup("x")
	be.True(t, ok)
	be.Equal(t, found, id)

	// A redeclaration gets its own entry; the first one is left intact.
	again, ok := r.Declare(Entry{Name: "x", Type: "float"})
	be.True(t, !ok)
	be.True(t, again != id)
	be.Equal(t, r.Entry(id).Type, "int")
	be.Equal(t, r.Entry(again).Type, "float")

	found, _ = r.Lookup("x")
	be.Equal(t, found, again)
	be.Equal(t, len(r.Globals()), 1)
	be.Equal(t, r.Globals()[0].Type, "float")

	_, ok = r.Lookup("y")
	be.True(t, !ok)
}

func TestRegistryFrames(t *testing.T) {
	r := NewRegistry()
	r.Declare(Entry{Name: "g", Type: "int"})

	r.Push()
	be.Equal(t, r.Depth(), 1)
	local, _ := r.Declare(Entry{Name: "l", Type: "char"})
	shadow, _ := r.Declare(Entry{Name: "g", Type: "float"})

	e, ok := r.LookupEntry("g")
	be.True(t, ok)
	be.Equal(t, e.Type, "float")

	r.Pop()
	be.Equal(t, r.Depth(), 0)
	_, ok = r.Lookup("l")
	be.True(t, !ok)
	e, _ = r.LookupEntry("g")
	be.Equal(t, e.Type, "int")

	// IDs outlive their frame.
	be.Equal(t, r.Entry(local).Name, "l")
	be.Equal(t, r.Entry(shadow).Type, "float")
}

func TestRegistryPopKeepsGlobal(t *testing.T) {
	r := NewRegistry()
	r.Declare(Entry{Name: "g", Type: "int"})
	r.Pop()
	r.Pop()
	_, ok := r.Lookup("g")
	be.True(t, ok)
	be.Equal(t, r.Depth(), 0)
}

func TestRegistryDeclareGlobal(t *testing.T) {
	r := NewRegistry()
	r.Push()
	r.Push()
	r.DeclareGlobal(Entry{Name: "imported", Type: "int"})
	r.Pop()
	r.Pop()
	e, ok := r.LookupEntry("imported")
	be.True(t, ok)
	be.Equal(t, e.Type, "int")
}

func TestRegistryBackfill(t *testing.T) {
	r := NewRegistry()
	r.Declare(Entry{Name: "a", Type: "int"})
	r.Declare(Entry{Name: "b", Type: "int", ArraySizes: []string{"4"}})

	be.True(t, r.Backfill("a", []string{"2"}))
	be.True(t, !r.Backfill("a", []string{"3"}))
	be.True(t, !r.Backfill("b", []string{"3"}))
	be.True(t, !r.Backfill("missing", []string{"3"}))

	a, _ := r.LookupEntry("a")
	be.Equal(t, a.ArraySizes, []string{"2"})
	b, _ := r.LookupEntry("b")
	be.Equal(t, b.ArraySizes, []string{"4"})
}

func TestRegistryGlobals(t *testing.T) {
	r := NewRegistry()
	r.Declare(Entry{Name: "second", Type: "int"})
	r.Declare(Entry{Name: "first", Type: "char"})
	r.Push()
	r.Declare(Entry{Name: "local", Type: "int"})
	r.Pop()

	globals := r.Globals()
	be.Equal(t, len(globals), 2)
	be.Equal(t, globals[0].Name, "second")
	be.Equal(t, globals[1].Name, "first")
}

func TestRegistryStructs(t *testing.T) {
	r := NewRegistry()
	fields := []Field{{Type: "int"}, {Type: "char", Pointer: true}}

	be.True(t, r.DefineStruct("f_mys", fields))
	be.True(t, r.DefineStruct("f_mys", []Field{{Type: "int"}, {Type: "char", Pointer: true}}))
	be.True(t, !r.DefineStruct("f_mys", []Field{{Type: "int"}}))
	be.True(t, !r.DefineStruct("f_mys", []Field{{Type: "int"}, {Type: "char"}}))

	got, ok := r.Struct("f_mys")
	be.True(t, ok)
	be.Equal(t, got, fields)

	_, ok = r.Struct("g_mys")
	be.True(t, !ok)
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	r.Declare(Entry{Name: "x", Type: "int"})
	r.Push()
	r.DefineStruct("f_mys", []Field{{Type: "int"}})

	r.Reset()
	be.Equal(t, r.Depth(), 0)
	_, ok := r.Lookup("x")
	be.True(t, !ok)
	_, ok = r.Struct("f_mys")
	be.True(t, !ok)
	be.Equal(t, len(r.Globals()), 0)
}
