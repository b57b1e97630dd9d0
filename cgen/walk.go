package cgen

import (
	"strings"

	"github.com/strager/anno2c/syntax"
)

func (g *Generator) module(tree *syntax.Node) {
	if tree == nil || tree.Kind != syntax.NodeModule {
		g.fail(KindSourceCode, tree, "expected a module at the root of the tree")
	}
	g.at(tree)
	g.prepass(tree)
	for _, stmt := range tree.Body {
		g.stmt(stmt)
	}
}

// prepass finds the names bound to imported modules and marks attribute
// accesses through them, so `math.sqrt(x)` renders as `sqrt(x)`.
func (g *Generator) prepass(tree *syntax.Node) {
	syntax.Walk(tree, func(n *syntax.Node) bool {
		switch n.Kind {
		case syntax.NodeImport:
			for _, alias := range n.Children {
				if alias.AsName != "" {
					g.modules[alias.AsName] = true
				} else {
					g.modules[alias.Name] = true
				}
			}
		case syntax.NodeImportFrom:
			if n.Name != "" {
				g.modules[n.Name] = true
			}
		}
		return true
	})
	if len(g.modules) == 0 {
		return
	}
	syntax.Walk(tree, func(n *syntax.Node) bool {
		if n.Kind == syntax.NodeAttribute && n.Name != "link" {
			if path, ok := dotted(n.Children[0]); ok && g.modules[path] {
				g.stripped[n] = true
			}
		}
		return true
	})
}

// dotted returns "a.b.c" for a chain of attribute accesses on a name.
func dotted(n *syntax.Node) (string, bool) {
	switch n.Kind {
	case syntax.NodeName:
		return n.Name, true
	case syntax.NodeAttribute:
		base, ok := dotted(n.Children[0])
		return base + "." + n.Name, ok
	default:
		return "", false
	}
}

func (g *Generator) stmt(n *syntax.Node) {
	g.at(n)
	switch n.Kind {
	case syntax.NodeAnnAssign:
		g.annAssign(n)
	case syntax.NodeAssign:
		g.assign(n)
	case syntax.NodeAugAssign:
		g.augAssign(n)
	case syntax.NodeFunctionDef:
		g.functionDef(n)
	case syntax.NodeReturn:
		g.returnStmt(n)
	case syntax.NodeIf:
		g.ifStmt(n)
	case syntax.NodeWhile:
		g.whileStmt(n)
	case syntax.NodeFor:
		g.forStmt(n)
	case syntax.NodeBreak:
		g.breakStmt(n)
	case syntax.NodeContinue:
		g.continueStmt(n)
	case syntax.NodeExpr:
		g.exprStmt(n)
	case syntax.NodeImport:
		g.importStmt(n)
	case syntax.NodeImportFrom:
		g.importFrom(n)
	case syntax.NodeDelete:
		g.deleteStmt(n)
	case syntax.NodePass:
	default:
		g.fail(KindSourceCode, n, "unexpected %s in statement position", n.Kind)
	}
}

// block walks body one level deeper, in a frame of its own.
func (g *Generator) block(body []*syntax.Node) {
	g.level++
	g.reg.Push()
	for _, stmt := range body {
		g.stmt(stmt)
	}
	g.reg.Pop()
	g.level--
}

// comment writes a docstring or a bare string statement as a C comment:
// "// text" for one line, a /* */ block otherwise.
func (g *Generator) comment(text string) {
	ident := g.indent()
	doc := strings.ReplaceAll(cleandoc(text), "*/", "* /")
	if !strings.Contains(doc, "\n") {
		if doc == "" {
			g.buf.Emit(ident + "//\n")
			return
		}
		g.buf.Emit(ident + "// " + doc + "\n")
		return
	}
	g.buf.Emit("\n" + ident + "/*\n")
	for _, line := range strings.Split(doc, "\n") {
		if line == "" {
			g.buf.Emit("\n")
			continue
		}
		g.buf.Emit(ident + line + "\n")
	}
	g.buf.Emit(ident + "*/\n")
}

// cleandoc strips the first line's leading space, the common indentation
// of the following lines, and leading and trailing blank lines.
func cleandoc(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\t", "        "), "\n")
	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if n := len(line) - len(trimmed); margin < 0 || n < margin {
			margin = n
		}
	}
	lines[0] = strings.TrimLeft(lines[0], " ")
	for i := 1; i < len(lines); i++ {
		if margin > 0 && len(lines[i]) >= margin {
			lines[i] = lines[i][margin:]
		}
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
