// Package cgen translates annotated syntax trees into C source text.
//
// A Generator walks the tree once, writing finished text and deferred
// tokens into a Buffer. Tokens are resolved against the Registry only
// after the walk, so a declaration can print array sizes discovered later
// in the same statement.
package cgen

import (
	"strings"

	"github.com/strager/anno2c/syntax"
)

const indentUnit = "    "

// Symbol is a top-level declaration exported by a module.
type Symbol struct {
	Name       string
	Type       string
	ArraySizes []string
	Pointer    bool
	Dynamic    bool // heap array; freed rather than deleted
}

// ModuleResolver supplies the top-level declarations of an imported
// module. path is the include path without extension, e.g. "a/b" or
// "../util". A module that cannot be found yields no symbols.
type ModuleResolver interface {
	ResolveModule(path string) ([]Symbol, error)
}

// Options configures a Generator.
type Options struct {
	// Modules pre-populates the global frame with the declarations of
	// imported modules. Nil disables module loading.
	Modules ModuleResolver
}

// Generator translates one tree at a time. It is not safe for concurrent
// use; use one Generator per goroutine.
type Generator struct {
	opts Options
	reg  *Registry
	buf  *Buffer

	level     int
	funcs     []*function
	loops     []string // success flag per enclosing loop; "" when it has no else
	flagCount int

	modules  map[string]bool        // imported module names and aliases
	stripped map[*syntax.Node]bool  // attribute nodes rendered without their module prefix
	pos      syntax.Pos             // last valid position seen

	arrayTarget string // variable whose direct initializer is being walked
	inPreproc   bool
}

type function struct {
	name       string
	structName string
	multi      bool
}

func New(opts Options) *Generator {
	g := &Generator{opts: opts, reg: NewRegistry(), buf: NewBuffer()}
	g.Reset()
	return g
}

// Reset discards all state left by a previous or failed translation.
func (g *Generator) Reset() {
	g.reg.Reset()
	g.buf.Reset()
	g.level = 0
	g.funcs = nil
	g.loops = nil
	g.flagCount = 0
	g.modules = map[string]bool{}
	g.stripped = map[*syntax.Node]bool{}
	g.pos = syntax.Pos{}
	g.arrayTarget = ""
	g.inPreproc = false
}

// Translate renders tree, which must be a Module, as C source. The
// Generator is reset afterwards, whether or not translation succeeded.
func (g *Generator) Translate(tree *syntax.Node) (out string, err error) {
	defer g.Reset()
	defer catch(&err)

	g.module(tree)
	return g.buf.Flush(g.reg), nil
}

// Translate renders tree with a fresh Generator.
func Translate(tree *syntax.Node, opts Options) (string, error) {
	return New(opts).Translate(tree)
}

// Declarations walks tree without keeping its text and returns the
// variables declared in its global frame, in declaration order.
func Declarations(tree *syntax.Node, opts Options) ([]Symbol, error) {
	return New(opts).declarations(tree)
}

func (g *Generator) declarations(tree *syntax.Node) (syms []Symbol, err error) {
	defer g.Reset()
	defer catch(&err)

	g.module(tree)
	for _, e := range g.reg.Globals() {
		syms = append(syms, Symbol{
			Name:       e.Name,
			Type:       e.Type,
			ArraySizes: e.ArraySizes,
			Pointer:    e.Pointer,
			Dynamic:    e.Dynamic,
		})
	}
	return syms, nil
}

func (g *Generator) indent() string {
	return strings.Repeat(indentUnit, g.level)
}

// at records n's position for errors raised by nodes without one.
func (g *Generator) at(n *syntax.Node) {
	if n != nil && n.Pos.IsValid() {
		g.pos = n.Pos
	}
}
