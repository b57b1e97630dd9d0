package cgen

import (
	"strings"

	"github.com/strager/anno2c/syntax"
)

// importStmt includes every listed module. Aliases only affect how
// attribute accesses are stripped.
func (g *Generator) importStmt(n *syntax.Node) {
	for _, alias := range n.Children {
		g.at(alias)
		g.include(alias.Name, 0, alias)
	}
}

// importFrom accepts `from mod import *` only.
func (g *Generator) importFrom(n *syntax.Node) {
	for _, alias := range n.Children {
		if alias.Name != "*" {
			g.fail(KindUnsupportedImport, alias, "cannot import %s from %s; use 'from %s import *'", alias.Name, n.Name, n.Name)
		}
	}
	if n.Name == "" {
		g.fail(KindUnsupportedImport, n, "relative import needs a module name")
	}
	g.include(n.Name, n.Level, n)
}

// include registers the directive for module and pre-imports its
// declarations. Every header, standard ones included, uses the quoted form. Level 1 is the current directory, each extra level one
// parent directory.
func (g *Generator) include(module string, level int, n *syntax.Node) {
	path := strings.ReplaceAll(module, ".", "/")
	if level > 1 {
		path = strings.Repeat("../", level-1) + path
	}
	g.buf.Include(`#include "` + path + `.h"`)
	g.preImport(path, n)
}

func (g *Generator) preImport(path string, n *syntax.Node) {
	if g.opts.Modules == nil {
		return
	}
	syms, err := g.opts.Modules.ResolveModule(path)
	if err != nil {
		g.failErr(KindSourceCode, n, err, "loading module %s: %v", path, err)
	}
	for _, s := range syms {
		g.reg.DeclareGlobal(Entry{Name: s.Name, Type: s.Type, ArraySizes: s.ArraySizes, Pointer: s.Pointer, Dynamic: s.Dynamic})
	}
}
