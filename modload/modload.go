// Package modload resolves imported modules to the declarations of their
// tree files, so a translation can see the globals of the modules it
// includes.
package modload

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/strager/anno2c/cgen"
	"github.com/strager/anno2c/symcache"
	"github.com/strager/anno2c/syntax"
)

// Ext is the extension of tree files.
const Ext = ".sx"

// Resolver loads "<Dir>/<path>.sx" for an include path. Modules imported
// by a loaded module are resolved relative to that module's directory.
// A Resolver is not safe for concurrent use; give each goroutine its own
// and share the Cache.
type Resolver struct {
	Dir   string
	Cache *symcache.Cache // optional

	st *state
}

type state struct {
	stack []*loading
	memo  map[string]*module
	stats Stats
}

// loading is a module whose declarations are being computed.
type loading struct {
	key        string
	deps       map[string]string
	incomplete bool // an import cycle through it was cut
}

type module struct {
	hash string // "" when there is no tree file
	syms []cgen.Symbol
	deps map[string]string
}

// Stats counts how module declarations were obtained.
type Stats struct {
	Parsed    int // translated from their tree file
	CacheHits int // read from the Cache
	Missing   int // no tree file
}

func New(dir string, cache *symcache.Cache) *Resolver {
	return &Resolver{Dir: dir, Cache: cache}
}

func (r *Resolver) state() *state {
	if r.st == nil {
		r.st = &state{memo: map[string]*module{}}
	}
	return r.st
}

// Stats returns the counts so far.
func (r *Resolver) Stats() Stats {
	return r.state().stats
}

// ResolveModule implements cgen.ModuleResolver. A module without a tree
// file, such as a C standard header, yields no symbols. A module that is
// already being loaded further up the import chain yields no symbols
// either, which breaks import cycles. Results cut short by a cycle are
// not cached.
func (r *Resolver) ResolveModule(path string) ([]cgen.Symbol, error) {
	st := r.state()
	file := filepath.Join(r.Dir, filepath.FromSlash(path)+Ext)
	key, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	if m, ok := st.memo[key]; ok {
		st.use(key, m)
		return m.syms, nil
	}
	for i, l := range st.stack {
		if l.key == key {
			for _, inner := range st.stack[i+1:] {
				inner.incomplete = true
			}
			return nil, nil
		}
	}

	src, hash, err := readHashed(key)
	if err != nil {
		return nil, err
	}
	if hash == "" {
		st.stats.Missing++
		m := &module{}
		st.memo[key] = m
		st.use(key, m)
		return nil, nil
	}

	if r.Cache != nil {
		cached, ok, err := r.Cache.Load(key, hash)
		if err != nil {
			return nil, err
		}
		if ok {
			fresh, err := unchanged(cached.Deps)
			if err != nil {
				return nil, err
			}
			if fresh {
				st.stats.CacheHits++
				m := &module{hash: hash, syms: cached.Symbols, deps: cached.Deps}
				st.memo[key] = m
				st.use(key, m)
				return m.syms, nil
			}
		}
	}

	tree, err := syntax.ParseString(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", file, err)
	}

	l := &loading{key: key, deps: map[string]string{}}
	st.stack = append(st.stack, l)
	child := &Resolver{Dir: filepath.Dir(file), Cache: r.Cache, st: st}
	syms, err := cgen.Declarations(tree, cgen.Options{Modules: child})
	st.stack = st.stack[:len(st.stack)-1]
	if err != nil {
		return nil, fmt.Errorf("%s:%w", file, err)
	}
	st.stats.Parsed++

	m := &module{hash: hash, syms: syms, deps: l.deps}
	if !l.incomplete {
		if r.Cache != nil {
			if err := r.Cache.Store(key, hash, symcache.Module{Symbols: syms, Deps: l.deps}); err != nil {
				return nil, err
			}
		}
		st.memo[key] = m
	}
	st.use(key, m)
	return syms, nil
}

// use records that the module being loaded depends on key and on
// everything key depends on.
func (st *state) use(key string, m *module) {
	if len(st.stack) == 0 {
		return
	}
	deps := st.stack[len(st.stack)-1].deps
	deps[key] = m.hash
	for k, h := range m.deps {
		deps[k] = h
	}
}

// readHashed returns the contents of file and their SHA-256. A missing
// file gives the hash "".
func readHashed(file string) ([]byte, string, error) {
	src, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(src)
	return src, hex.EncodeToString(sum[:]), nil
}

// unchanged reports whether every dependency still has its recorded hash.
func unchanged(deps map[string]string) (bool, error) {
	for file, want := range deps {
		_, hash, err := readHashed(file)
		if err != nil {
			return false, err
		}
		if hash != want {
			return false, nil
		}
	}
	return true, nil
}
