package modload

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/strager/anno2c/cgen"
	"github.com/strager/anno2c/symcache"
	"github.com/strager/anno2c/syntax"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	be.Err(t, os.MkdirAll(filepath.Dir(path), 0o755), nil)
	be.Err(t, os.WriteFile(path, []byte(content), 0o644), nil)
}

func TestResolveModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sensors/temp.sx", `(module
	  (ann-assign reading float 0.0)
	  (ann-assign history int (list 1 2 3))
	  (def sample (params) (returns float) (body (return reading))))`)

	r := New(dir, nil)
	syms, err := r.ResolveModule("sensors/temp")
	be.Err(t, err, nil)
	be.Equal(t, syms, []cgen.Symbol{
		{Name: "reading", Type: "float"},
		{Name: "history", Type: "int", ArraySizes: []string{"3"}},
	})
	be.Equal(t, r.Stats(), Stats{Parsed: 1})

	// Memoized.
	_, err = r.ResolveModule("sensors/temp")
	be.Err(t, err, nil)
	be.Equal(t, r.Stats(), Stats{Parsed: 1})
}

func TestResolveModule_Missing(t *testing.T) {
	r := New(t.TempDir(), nil)
	syms, err := r.ResolveModule("math")
	be.Err(t, err, nil)
	be.Equal(t, len(syms), 0)
	be.Equal(t, r.Stats(), Stats{Missing: 1})
}

func TestResolveModule_Transitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib/base.sx", `(module (ann-assign base_value int 1))`)
	// Relative to lib/, not to the root.
	writeFile(t, dir, "lib/mid.sx", `(module (import "base") (ann-assign mid_value char))`)

	syms, err := New(dir, nil).ResolveModule("lib/mid")
	be.Err(t, err, nil)
	be.Equal(t, syms, []cgen.Symbol{
		{Name: "base_value", Type: "int"},
		{Name: "mid_value", Type: "char"},
	})
}

func TestResolveModule_Cycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sx", `(module (import "b") (ann-assign a_value int))`)
	writeFile(t, dir, "b.sx", `(module (import "a") (ann-assign b_value int))`)

	syms, err := New(dir, nil).ResolveModule("a")
	be.Err(t, err, nil)
	be.Equal(t, syms, []cgen.Symbol{
		{Name: "b_value", Type: "int"},
		{Name: "a_value", Type: "int"},
	})
}

func TestResolveModule_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.sx", "(module\n  (frobnicate))")

	_, err := New(dir, nil).ResolveModule("bad")
	be.Err(t, err, "bad.sx:2:3: unknown node kind 'frobnicate'")
}

func TestResolveModule_TranslationError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.sx", "(module (ann-assign x int None))")

	_, err := New(dir, nil).ResolveModule("bad")
	be.True(t, errors.Is(err, cgen.ErrNoneNotAllowed))
}

func TestResolveModule_Cache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.sx", `(module (ann-assign limit int 10))`)

	cache, err := symcache.Open(filepath.Join(t.TempDir(), "symbols.db"))
	be.Err(t, err, nil)
	defer cache.Close()

	first := New(dir, cache)
	_, err = first.ResolveModule("util")
	be.Err(t, err, nil)
	be.Equal(t, first.Stats(), Stats{Parsed: 1})

	second := New(dir, cache)
	syms, err := second.ResolveModule("util")
	be.Err(t, err, nil)
	be.Equal(t, second.Stats(), Stats{CacheHits: 1})
	be.Equal(t, syms, []cgen.Symbol{{Name: "limit", Type: "int"}})

	// A changed file is parsed again.
	writeFile(t, dir, "util.sx", `(module (ann-assign limit float 1.5))`)
	third := New(dir, cache)
	syms, err = third.ResolveModule("util")
	be.Err(t, err, nil)
	be.Equal(t, third.Stats(), Stats{Parsed: 1})
	be.Equal(t, syms, []cgen.Symbol{{Name: "limit", Type: "float"}})
}

func TestResolveModule_CacheSeesDependencyChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.sx", `(module (ann-assign v int))`)
	writeFile(t, dir, "mid.sx", `(module (import "base") (import "extra") (ann-assign m char))`)

	cache, err := symcache.Open(filepath.Join(t.TempDir(), "symbols.db"))
	be.Err(t, err, nil)
	defer cache.Close()

	_, err = New(dir, cache).ResolveModule("mid")
	be.Err(t, err, nil)

	again := New(dir, cache)
	syms, err := again.ResolveModule("mid")
	be.Err(t, err, nil)
	be.Equal(t, again.Stats(), Stats{CacheHits: 1})
	be.Equal(t, syms, []cgen.Symbol{{Name: "v", Type: "int"}, {Name: "m", Type: "char"}})

	// A changed import is seen through the importing module's entry.
	writeFile(t, dir, "base.sx", `(module (ann-assign v float))`)
	changed := New(dir, cache)
	syms, err = changed.ResolveModule("mid")
	be.Err(t, err, nil)
	be.Equal(t, changed.Stats(), Stats{Parsed: 2, Missing: 1})
	be.Equal(t, syms, []cgen.Symbol{{Name: "v", Type: "float"}, {Name: "m", Type: "char"}})

	// So is an import whose tree file appears.
	writeFile(t, dir, "extra.sx", `(module (ann-assign e int))`)
	added := New(dir, cache)
	syms, err = added.ResolveModule("mid")
	be.Err(t, err, nil)
	be.Equal(t, added.Stats(), Stats{Parsed: 2, CacheHits: 1})
	be.Equal(t, syms, []cgen.Symbol{
		{Name: "v", Type: "float"},
		{Name: "e", Type: "int"},
		{Name: "m", Type: "char"},
	})
}

func TestResolveModule_CycleIsNotCachedIncomplete(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sx", `(module (import "b") (ann-assign a_value int))`)
	writeFile(t, dir, "b.sx", `(module (import "a") (ann-assign b_value int))`)

	cache, err := symcache.Open(":memory:")
	be.Err(t, err, nil)
	defer cache.Close()

	_, err = New(dir, cache).ResolveModule("a")
	be.Err(t, err, nil)
	n, err := cache.Len()
	be.Err(t, err, nil)
	be.Equal(t, n, 1) // b saw a cut short

	r := New(dir, cache)
	syms, err := r.ResolveModule("b")
	be.Err(t, err, nil)
	be.Equal(t, r.Stats(), Stats{Parsed: 1, CacheHits: 1})
	be.Equal(t, syms, []cgen.Symbol{
		{Name: "b_value", Type: "int"},
		{Name: "a_value", Type: "int"},
	})
}

func TestResolveModule_HeapArray(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "buffers.sx", `(module (ann-assign samples float (binop "*" (list 0) 64)))`)

	cache, err := symcache.Open(":memory:")
	be.Err(t, err, nil)
	defer cache.Close()

	want := []cgen.Symbol{
		{Name: "samples_length", Type: "int"},
		{Name: "samples", Type: "float", Dynamic: true},
	}
	for i := 0; i < 2; i++ {
		syms, err := New(dir, cache).ResolveModule("buffers")
		be.Err(t, err, nil)
		be.Equal(t, syms, want)
	}

	tree, err := syntax.ParseString(`(module (import "buffers") (del samples))`)
	be.Err(t, err, nil)
	out, err := cgen.Translate(tree, cgen.Options{Modules: New(dir, cache)})
	be.Err(t, err, nil)
	be.Equal(t, out, "#include \"buffers.h\"\n\nfree(samples);\n")
}

func TestTranslateWithResolver(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "motor.sx", `(module (ann-assign speed int 0) (ann-assign name "char__link" "m1"))`)

	tree, err := syntax.ParseString(`(module
	  (import "motor")
	  (def status (params) (body (return (tuple speed name)))))`)
	be.Err(t, err, nil)

	out, err := cgen.Translate(tree, cgen.Options{Modules: New(dir, nil)})
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(out, "#include \"motor.h\"\n\nstruct status_mys {\n    int v0;\n    char *v1;\n};\n"))
}
