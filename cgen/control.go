package cgen

import (
	"strconv"

	"github.com/strager/anno2c/syntax"
)

// ifStmt flattens else bodies holding a single if into else-if chains.
func (g *Generator) ifStmt(n *syntax.Node) {
	ident := g.indent()
	g.buf.Emit(ident + "if (")
	g.expr(n.Children[0], nil)
	g.buf.Emit(") {\n")
	g.block(n.Body)
	g.buf.Emit(ident + "}")

	orelse := n.OrElse
	for len(orelse) == 1 && orelse[0].Kind == syntax.NodeIf {
		elif := orelse[0]
		g.at(elif)
		g.buf.Emit(" else if (")
		g.expr(elif.Children[0], nil)
		g.buf.Emit(") {\n")
		g.block(elif.Body)
		g.buf.Emit(ident + "}")
		orelse = elif.OrElse
	}
	if len(orelse) > 0 {
		g.buf.Emit(" else {\n")
		g.block(orelse)
		g.buf.Emit(ident + "}")
	}
	g.buf.Emit("\n\n")
}

// loopFlag declares the success flag of a loop with an else clause and
// returns its name, or "" when the loop has none.
func (g *Generator) loopFlag(n *syntax.Node) string {
	if len(n.OrElse) == 0 {
		return ""
	}
	g.flagCount++
	flag := "success"
	if g.flagCount > 1 {
		flag += "_" + strconv.Itoa(g.flagCount-1)
	}
	g.reg.Declare(Entry{Name: flag, Type: "unsigned char"})
	g.buf.Emit(g.indent() + "unsigned char " + flag + " = 1;\n")
	return flag
}

// loopBody walks a loop body with flag on the loop stack.
func (g *Generator) loopBody(body []*syntax.Node, flag string) {
	g.loops = append(g.loops, flag)
	g.block(body)
	g.loops = g.loops[:len(g.loops)-1]
}

// loopElse runs the else clause when the loop ended without break.
func (g *Generator) loopElse(n *syntax.Node, flag string) {
	if flag == "" {
		return
	}
	ident := g.indent()
	g.buf.Emit(ident + "if (" + flag + " == 1) {\n")
	g.block(n.OrElse)
	g.buf.Emit(ident + "}\n\n")
}

func (g *Generator) whileStmt(n *syntax.Node) {
	ident := g.indent()
	flag := g.loopFlag(n)
	g.buf.Emit(ident + "while (")
	g.expr(n.Children[0], nil)
	g.buf.Emit(") {\n")
	g.loopBody(n.Body, flag)
	g.buf.Emit(ident + "}\n\n")
	g.loopElse(n, flag)
}

// forStmt supports range(stop) and range(start, stop) only.
func (g *Generator) forStmt(n *syntax.Node) {
	target, iter := n.Children[0], n.Children[1]
	if target.Kind != syntax.NodeName {
		g.fail(KindSourceCode, target, "for loop target must be a name")
	}
	if iter.Kind != syntax.NodeCall || iter.Children[0].Kind != syntax.NodeName || iter.Children[0].Name != "range" {
		g.fail(KindUnsupportedIterable, iter, "only range(stop) and range(start, stop) can be iterated")
	}
	args := iter.Children[1:]
	if len(args) != 1 && len(args) != 2 {
		g.fail(KindUnsupportedIterable, iter, "range takes 1 or 2 arguments here, got %d", len(args))
	}

	ident := g.indent()
	name := target.Name
	flag := g.loopFlag(n)
	g.buf.Emit(ident + "for (" + name + "=")
	if len(args) == 2 {
		g.expr(args[0], nil)
	} else {
		g.buf.Emit("0")
	}
	g.buf.Emit("; " + name + "<")
	g.expr(args[len(args)-1], nil)
	g.buf.Emit("; " + name + "++) {\n")
	g.loopBody(n.Body, flag)
	g.buf.Emit(ident + "}\n\n")
	g.loopElse(n, flag)
}

func (g *Generator) breakStmt(n *syntax.Node) {
	if len(g.loops) == 0 {
		g.fail(KindSourceCode, n, "break outside of a loop")
	}
	ident := g.indent()
	if flag := g.loops[len(g.loops)-1]; flag != "" {
		g.buf.Emit(ident + flag + " = 0;\n")
	}
	g.buf.Emit(ident + "break;\n")
}

func (g *Generator) continueStmt(n *syntax.Node) {
	if len(g.loops) == 0 {
		g.fail(KindSourceCode, n, "continue outside of a loop")
	}
	g.buf.Emit(g.indent() + "continue;\n")
}
