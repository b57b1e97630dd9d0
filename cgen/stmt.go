package cgen

import (
	"github.com/strager/anno2c/syntax"
)

var augOps = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "//": "/", "%": "%",
	"|": "|", "^": "^", "&": "&", "<<": "<<", ">>": ">>",
}

// annotationText returns the raw annotation string held by n.
func (g *Generator) annotationText(n *syntax.Node) string {
	switch {
	case n == nil:
		g.fail(KindInvalidAnnotation, nil, "missing annotation")
	case n.IsNone():
		g.fail(KindNoneNotAllowed, n, "None is not a valid annotation")
	case n.Kind == syntax.NodeName:
		return n.Name
	case n.IsString():
		return n.Text
	}
	g.fail(KindInvalidAnnotation, n, "annotation must be a name or a string")
	return ""
}

func (g *Generator) annotation(n *syntax.Node) Annotation {
	a, err := ParseAnnotation(g.annotationText(n))
	if err != nil {
		e := err.(*Error)
		g.fail(e.Kind, n, "%s", e.Msg)
	}
	return a
}

func (g *Generator) annAssign(n *syntax.Node) {
	target, value := n.Children[0], n.Value()
	ann := g.annotation(n.Annotation)
	if target.Kind != syntax.NodeName {
		g.fail(KindSourceCode, target, "only names can be declared")
	}
	if ann.IsPreproc() {
		g.define(target.Name, value, n)
		return
	}
	if fill, length, ok := dynamicArray(value); ok && len(ann.ArraySizes) == 0 {
		g.dynamicArray(target.Name, ann, fill, length)
		return
	}

	id, _ := g.reg.Declare(Entry{
		Name:       target.Name,
		Type:       ann.Type,
		ArraySizes: ann.ArraySizes,
		Pointer:    ann.Pointer,
	})
	g.buf.EmitToken(Token{
		kind:    declToken,
		Indent:  g.indent(),
		Symbol:  id,
		Type:    ann.Type,
		Pointer: ann.Pointer,
		Name:    target.Name,
	})
	if value != nil {
		g.buf.Emit(" = ")
		g.arrayTarget = target.Name
		g.expr(value, nil)
		g.arrayTarget = ""
	}
	g.buf.Emit(";\n")
}

// define renders a preproc declaration as a macro.
func (g *Generator) define(name string, value, n *syntax.Node) {
	if value == nil {
		g.fail(KindPreprocMustHaveValue, n, "preproc constant %s must have a value", name)
	}
	g.buf.Emit("#define " + name)
	if value.Kind != syntax.NodeLambda {
		g.buf.Emit(" ")
	}
	g.inPreproc = true
	g.expr(value, nil)
	g.inPreproc = false
	g.buf.Emit("\n")
}

// dynamicArray matches the `[fill] * length` initializer of a heap array.
func dynamicArray(value *syntax.Node) (fill, length *syntax.Node, ok bool) {
	if value == nil || value.Kind != syntax.NodeBinOp || value.Op != "*" {
		return nil, nil, false
	}
	left := value.Children[0]
	if left.Kind != syntax.NodeList || len(left.Children) != 1 {
		return nil, nil, false
	}
	return left.Children[0], value.Children[1], true
}

// dynamicArray declares a heap array of length elements set to fill:
// a length variable, the allocation and, unless fill is 0, a fill loop.
func (g *Generator) dynamicArray(name string, ann Annotation, fill, length *syntax.Node) {
	ident := g.indent()
	lengthName := name + "_length"
	elem := ann.Type
	if ann.Pointer {
		elem += "*"
	}
	g.reg.Declare(Entry{Name: lengthName, Type: "int"})
	g.reg.Declare(Entry{Name: name, Type: ann.Type, Pointer: ann.Pointer, Dynamic: true})
	g.buf.Include(stdlibInclude)

	g.buf.Emit(ident + "int " + lengthName + " = ")
	g.expr(length, nil)
	g.buf.Emit(";\n")

	if isZero(fill) {
		g.buf.Emit(ident + elem + " *" + name + " = (" + elem + " *)calloc(" + lengthName + ", sizeof(" + elem + "));\n")
		return
	}
	g.buf.Emit(ident + elem + " *" + name + " = (" + elem + " *)malloc(" + lengthName + " * sizeof(" + elem + "));\n")
	i := name + "_i"
	g.buf.Emit(ident + "for (int " + i + " = 0; " + i + " < " + lengthName + "; " + i + "++) {\n")
	g.buf.Emit(ident + indentUnit + name + "[" + i + "] = ")
	g.expr(fill, nil)
	g.buf.Emit(";\n")
	g.buf.Emit(ident + "}\n")
}

func isZero(n *syntax.Node) bool {
	return n.Kind == syntax.NodeConstant && n.Const == syntax.ConstInt && n.Text == "0"
}

// target renders the left-hand side of an assignment.
func (g *Generator) target(n *syntax.Node) {
	switch n.Kind {
	case syntax.NodeName, syntax.NodeAttribute, syntax.NodeSubscript:
		g.expr(n, nil)
	default:
		g.fail(KindSourceCode, n, "cannot assign to %s", n.Kind)
	}
}

// assign renders `a = b = value;`. Assigning a sequence literal to a name
// declared without dimensions gives the declaration the literal's shape.
func (g *Generator) assign(n *syntax.Node) {
	targets, value := n.Children[:len(n.Children)-1], n.Children[len(n.Children)-1]
	g.buf.Emit(g.indent())
	for _, t := range targets {
		g.target(t)
		g.buf.Emit(" = ")
	}
	if len(targets) == 1 && targets[0].Kind == syntax.NodeName {
		g.arrayTarget = targets[0].Name
	}
	g.expr(value, nil)
	g.arrayTarget = ""
	g.buf.Emit(";\n")
}

func (g *Generator) augAssign(n *syntax.Node) {
	target, value := n.Children[0], n.Children[1]
	ident := g.indent()
	if n.Op == "**" {
		g.buf.Include(mathInclude)
		g.buf.Emit(ident)
		g.target(target)
		g.buf.Emit(" = pow(")
		g.target(target)
		g.buf.Emit(", ")
		g.expr(value, nil)
		g.buf.Emit(");\n")
		return
	}
	op, ok := augOps[n.Op]
	if !ok {
		g.fail(KindSourceCode, n, "unsupported augmented assignment operator '%s='", n.Op)
	}
	g.buf.Emit(ident)
	g.target(target)
	g.buf.Emit(" " + op + "= ")
	g.expr(value, nil)
	g.buf.Emit(";\n")
}

func (g *Generator) exprStmt(n *syntax.Node) {
	value := n.Children[0]
	if value.IsString() {
		g.comment(value.Text)
		return
	}
	g.buf.Emit(g.indent())
	g.expr(value, nil)
	g.buf.Emit(";\n")
}

// deleteStmt frees heap arrays and deletes everything else.
func (g *Generator) deleteStmt(n *syntax.Node) {
	for _, t := range n.Children {
		g.at(t)
		if t.Kind == syntax.NodeName {
			if e, ok := g.reg.LookupEntry(t.Name); ok && e.Dynamic {
				g.buf.Emit(g.indent() + "free(" + t.Name + ");\n")
				continue
			}
		}
		g.buf.Emit(g.indent() + "delete ")
		g.target(t)
		g.buf.Emit(";\n")
	}
}
