package cgen

import (
	"strconv"
	"strings"

	"github.com/strager/anno2c/syntax"
)

const (
	mathInclude   = `#include "math.h"`
	stdioInclude  = `#include "stdio.h"`
	stdlibInclude = `#include "stdlib.h"`
)

var binOps = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "//": "/", "%": "%",
	"|": "|", "^": "^", "&": "&", "<<": "<<", ">>": ">>",
}

var boolOps = map[string]string{"and": "&&", "or": "||"}

var unaryOps = map[string]string{"-": "-", "+": "+", "not": "!", "~": "~"}

var compareOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

// bitwise operators bind looser than comparisons in C.
var bitwiseOps = map[string]bool{"&": true, "|": true, "^": true}

// needParens decides whether n must be wrapped given its immediate parent.
// Only adjacency matters: the rule never compares operator precedences
// except for the C bitwise operators under a comparison.
func needParens(n, parent *syntax.Node) bool {
	if parent == nil {
		return false
	}
	switch parent.Kind {
	case syntax.NodeCall, syntax.NodeAttribute, syntax.NodeSubscript:
		if n == parent.Children[0] && (isOperator(n) || isSigned(n)) {
			return true
		}
	}
	switch n.Kind {
	case syntax.NodeConstant:
		// -(-1), never --1
		return parent.Kind == syntax.NodeUnaryOp && isSigned(n)
	case syntax.NodeBinOp:
		if n.Op == "**" {
			return false // rendered as a call
		}
		switch parent.Kind {
		case syntax.NodeBinOp, syntax.NodeBoolOp, syntax.NodeUnaryOp:
			return true
		case syntax.NodeCompare:
			return bitwiseOps[n.Op]
		}
	case syntax.NodeBoolOp:
		switch parent.Kind {
		case syntax.NodeBoolOp, syntax.NodeUnaryOp, syntax.NodeBinOp, syntax.NodeCompare:
			return true
		}
	case syntax.NodeCompare:
		switch parent.Kind {
		case syntax.NodeBinOp, syntax.NodeUnaryOp, syntax.NodeCompare:
			return true
		}
	case syntax.NodeIfExp:
		switch parent.Kind {
		case syntax.NodeCall, syntax.NodeBoolOp, syntax.NodeBinOp, syntax.NodeUnaryOp, syntax.NodeCompare:
			return true
		}
	case syntax.NodeUnaryOp:
		return parent.Kind == syntax.NodeUnaryOp
	}
	return false
}

func isOperator(n *syntax.Node) bool {
	switch n.Kind {
	case syntax.NodeBinOp:
		return n.Op != "**"
	case syntax.NodeBoolOp, syntax.NodeUnaryOp, syntax.NodeCompare, syntax.NodeIfExp, syntax.NodeLambda:
		return true
	case syntax.NodeAttribute:
		return n.Name == "link" // rendered as prefix &
	}
	return false
}

// isSigned reports whether n is a numeric literal written with a sign.
func isSigned(n *syntax.Node) bool {
	if n.Kind != syntax.NodeConstant || n.Const == syntax.ConstString {
		return false
	}
	return strings.HasPrefix(n.Text, "-") || strings.HasPrefix(n.Text, "+")
}

// expr renders n. parent is the enclosing expression node, or nil when n
// is a statement-level expression, a call argument of a synthesized call,
// or otherwise already delimited.
func (g *Generator) expr(n, parent *syntax.Node) {
	g.at(n)
	wrap := needParens(n, parent)
	if wrap {
		g.buf.Emit("(")
	}

	switch n.Kind {
	case syntax.NodeConstant:
		g.constant(n)
	case syntax.NodeName:
		g.buf.Emit(n.Name)
	case syntax.NodeBinOp:
		g.binOp(n)
	case syntax.NodeBoolOp:
		op, ok := boolOps[n.Op]
		if !ok {
			g.fail(KindSourceCode, n, "unsupported boolean operator '%s'", n.Op)
		}
		for i, operand := range n.Children {
			if i > 0 {
				g.buf.Emit(" " + op + " ")
			}
			g.expr(operand, n)
		}
	case syntax.NodeUnaryOp:
		op, ok := unaryOps[n.Op]
		if !ok {
			g.fail(KindSourceCode, n, "unsupported unary operator '%s'", n.Op)
		}
		g.buf.Emit(op)
		g.expr(n.Children[0], n)
	case syntax.NodeCompare:
		g.expr(n.Children[0], n)
		for i, op := range n.Ops {
			if !compareOps[op] {
				g.fail(KindSourceCode, n, "unsupported comparison operator '%s'", op)
			}
			g.buf.Emit(" " + op + " ")
			g.expr(n.Children[i+1], n)
		}
	case syntax.NodeIfExp:
		g.buf.Emit("(")
		g.expr(n.Children[0], nil)
		g.buf.Emit(") ? ")
		g.expr(n.Children[1], n)
		g.buf.Emit(" : ")
		g.expr(n.Children[2], n)
	case syntax.NodeCall:
		g.call(n)
	case syntax.NodeAttribute:
		g.attribute(n)
	case syntax.NodeSubscript:
		g.expr(n.Children[0], n)
		g.buf.Emit("[")
		g.expr(n.Children[1], nil)
		g.buf.Emit("]")
	case syntax.NodeLambda:
		if !g.inPreproc || parent != nil {
			g.fail(KindSourceCode, n, "lambda is only allowed as the value of a preproc declaration")
		}
		g.buf.Emit("(" + strings.Join(n.Args, ",") + ") ")
		g.expr(n.Children[0], n)
	case syntax.NodeList, syntax.NodeTuple:
		g.sequence(n, parent)
	default:
		g.fail(KindSourceCode, n, "unexpected %s in expression position", n.Kind)
	}

	if wrap {
		g.buf.Emit(")")
	}
}

func (g *Generator) constant(n *syntax.Node) {
	switch n.Const {
	case syntax.ConstNone:
		g.fail(KindNoneNotAllowed, n, "None is not allowed here")
	case syntax.ConstBool:
		if n.Text == "True" {
			g.buf.Emit("1")
		} else {
			g.buf.Emit("0")
		}
	case syntax.ConstString:
		g.buf.Emit(cString(n.Text))
	default:
		g.buf.Emit(n.Text)
	}
}

func (g *Generator) binOp(n *syntax.Node) {
	left, right := n.Children[0], n.Children[1]
	if n.Op == "**" {
		g.buf.Include(mathInclude)
		g.buf.Emit("pow(")
		g.expr(left, nil)
		g.buf.Emit(", ")
		g.expr(right, nil)
		g.buf.Emit(")")
		return
	}
	op, ok := binOps[n.Op]
	if !ok {
		g.fail(KindSourceCode, n, "unsupported binary operator '%s'", n.Op)
	}
	g.expr(left, n)
	g.buf.Emit(" " + op + " ")
	g.expr(right, n)
}

func (g *Generator) call(n *syntax.Node) {
	callee, args := n.Children[0], n.Children[1:]
	if callee.Kind == syntax.NodeName && callee.Name == "print" {
		g.print(args, n)
		return
	}
	g.expr(callee, n)
	g.args(args, n)
}

func (g *Generator) args(args []*syntax.Node, parent *syntax.Node) {
	g.buf.Emit("(")
	for i, arg := range args {
		if i > 0 {
			g.buf.Emit(", ")
		}
		g.expr(arg, parent)
	}
	g.buf.Emit(")")
}

// print maps print() onto printf. A single string literal gets the
// trailing newline folded into it; other arguments are passed through.
func (g *Generator) print(args []*syntax.Node, call *syntax.Node) {
	g.buf.Include(stdioInclude)
	switch {
	case len(args) == 0:
		g.buf.Emit(`printf("\n")`)
	case len(args) == 1 && args[0].IsString():
		g.at(args[0])
		g.buf.Emit("printf(" + cString(args[0].Text+"\n") + ")")
	default:
		g.buf.Emit("printf")
		g.args(args, call)
	}
}

func (g *Generator) attribute(n *syntax.Node) {
	value := n.Children[0]
	switch {
	case n.Name == "link":
		g.buf.Emit("&")
		g.expr(value, n)
	case g.stripped[n]:
		g.buf.Emit(n.Name)
	default:
		g.expr(value, n)
		g.buf.Emit("." + n.Name)
	}
}

// sequence renders a list or tuple literal as a brace initializer. When it
// is the direct initializer of a variable declared without dimensions, the
// variable's entry receives the literal's shape.
func (g *Generator) sequence(n, parent *syntax.Node) {
	if parent == nil && g.arrayTarget != "" {
		var sizes []string
		for _, d := range literalDims(n) {
			if d == 0 {
				sizes = append(sizes, "")
			} else {
				sizes = append(sizes, strconv.Itoa(d))
			}
		}
		g.reg.Backfill(g.arrayTarget, sizes)
		g.arrayTarget = ""
	}
	g.buf.Emit("{")
	for i, elem := range n.Children {
		if i > 0 {
			g.buf.Emit(", ")
		}
		g.expr(elem, n)
	}
	g.buf.Emit("}")
}

// literalDims returns the dimensions of a nested sequence literal, outer
// to inner. Inner dimensions take the largest length at each depth.
func literalDims(n *syntax.Node) []int {
	out := []int{len(n.Children)}
	var inner []int
	for i, c := range n.Children {
		if !isSequence(c) {
			return out
		}
		d := literalDims(c)
		if i == 0 {
			inner = d
			continue
		}
		if len(d) < len(inner) {
			inner = inner[:len(d)]
		}
		for j := range inner {
			if d[j] > inner[j] {
				inner[j] = d[j]
			}
		}
	}
	return append(out, inner...)
}

func isSequence(n *syntax.Node) bool {
	return n.Kind == syntax.NodeList || n.Kind == syntax.NodeTuple
}

// cString quotes s as a C string literal.
func cString(s string) string {
	var b strings.Builder
	b.WriteRune('"')
	for _, r := range s {
		switch r {
		case '\a':
			b.WriteString("\\a")
		case '\b':
			b.WriteString("\\b")
		case '\f':
			b.WriteString("\\f")
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		case '\v':
			b.WriteString("\\v")
		case '\\':
			b.WriteString("\\\\")
		case '"':
			b.WriteString("\\\"")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune('"')
	return b.String()
}
