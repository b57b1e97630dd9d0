package cgen

import (
	"strings"

	"github.com/strager/anno2c/syntax"
)

type param struct {
	name string
	ann  Annotation
	def  *syntax.Node // default value, or nil
}

func (p param) String() string {
	star := ""
	if p.ann.Pointer {
		star = "*"
	}
	return p.ann.Type + " " + star + p.name + p.ann.Dims()
}

func paramList(params []param) string {
	if len(params) == 0 {
		return "void"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// functionDef renders the function and one forwarding overload per
// trailing default: the i-th forwarder drops the last i parameters and
// passes their defaults to the full function.
func (g *Generator) functionDef(n *syntax.Node) {
	ret := Annotation{Type: "void"}
	if n.Annotation != nil {
		ret = g.annotation(n.Annotation)
		if len(ret.ArraySizes) > 0 {
			g.fail(KindSourceCode, n.Annotation, "function %s cannot return an array", n.Name)
		}
		if ret.IsPreproc() {
			g.fail(KindSourceCode, n.Annotation, "preproc is not a valid return type")
		}
	}
	params := g.params(n)

	fn := &function{name: n.Name, structName: n.Name + "_mys"}
	ident := g.indent()
	body := n.Body

	g.buf.EmitToken(Token{kind: structDeclToken, Indent: ident, Name: fn.structName})
	if len(body) > 0 && body[0].Kind == syntax.NodeExpr && body[0].Children[0].IsString() {
		g.comment(body[0].Children[0].Text)
		body = body[1:]
	}
	g.buf.Emit(ident)
	retType := g.buf.EmitToken(Token{kind: returnTypeToken, Type: ret.Type, Pointer: ret.Pointer, Name: fn.structName})
	g.buf.Emit(n.Name + "(" + paramList(params) + ") {\n")

	// Loops do not reach into nested functions.
	loops := g.loops
	g.loops = nil
	g.funcs = append(g.funcs, fn)
	g.level++
	g.reg.Push()
	for _, p := range params {
		g.reg.Declare(Entry{Name: p.name, Type: p.ann.Type, ArraySizes: p.ann.ArraySizes, Pointer: p.ann.Pointer})
	}
	for _, stmt := range body {
		g.stmt(stmt)
	}
	g.reg.Pop()
	g.level--
	g.funcs = g.funcs[:len(g.funcs)-1]
	g.loops = loops
	g.buf.Emit(ident + "}\n")

	void := ret.Type == "void" && !ret.Pointer && !fn.multi
	defaults := 0
	for _, p := range params {
		if p.def != nil {
			defaults++
		}
	}
	for k := 1; k <= defaults; k++ {
		kept, omitted := params[:len(params)-k], params[len(params)-k:]
		g.buf.Emit(ident)
		g.buf.EmitTokenRef(retType)
		g.buf.Emit(n.Name + "(" + paramList(kept) + ") {\n")
		g.buf.Emit(ident + indentUnit)
		if !void {
			g.buf.Emit("return ")
		}
		g.buf.Emit(n.Name + "(")
		for i, p := range kept {
			if i > 0 {
				g.buf.Emit(", ")
			}
			g.buf.Emit(p.name)
		}
		for i, p := range omitted {
			if i > 0 || len(kept) > 0 {
				g.buf.Emit(", ")
			}
			g.expr(p.def, nil)
		}
		g.buf.Emit(");\n")
		g.buf.Emit(ident + "}\n")
	}
}

func (g *Generator) params(n *syntax.Node) []param {
	var params []param
	sawDefault := false
	for _, p := range n.Children {
		g.at(p)
		if p.Annotation == nil {
			g.fail(KindInvalidAnnotation, p, "parameter %s of %s has no annotation", p.Name, n.Name)
		}
		ann := g.annotation(p.Annotation)
		if ann.IsPreproc() {
			g.fail(KindSourceCode, p, "preproc is not a valid parameter type")
		}
		def := p.Value()
		if def == nil && sawDefault {
			g.fail(KindSourceCode, p, "parameter %s without a default follows a parameter with one", p.Name)
		}
		sawDefault = sawDefault || def != nil
		params = append(params, param{name: p.Name, ann: ann, def: def})
	}
	return params
}

func (g *Generator) returnStmt(n *syntax.Node) {
	if len(g.funcs) == 0 {
		g.fail(KindSourceCode, n, "return outside of a function")
	}
	ident := g.indent()
	value := n.Value()
	switch {
	case value == nil:
		g.buf.Emit(ident + "return;\n")
	case value.Kind == syntax.NodeTuple:
		g.multiReturn(value)
	default:
		g.buf.Emit(ident + "return ")
		g.expr(value, nil)
		g.buf.Emit(";\n")
	}
}

// multiReturn returns several values through the function's structure,
// declared once before the function with one field per value.
func (g *Generator) multiReturn(tuple *syntax.Node) {
	fn := g.funcs[len(g.funcs)-1]
	fields := make([]Field, len(tuple.Children))
	for i, elem := range tuple.Children {
		fields[i] = g.fieldType(elem)
	}
	if !g.reg.DefineStruct(fn.structName, fields) {
		g.fail(KindSourceCode, tuple, "%s returns values of different shapes", fn.name)
	}
	fn.multi = true

	ident := g.indent()
	tmp := "_" + fn.structName
	g.reg.Declare(Entry{Name: tmp, Type: "struct " + fn.structName})
	g.buf.Emit(ident + "struct " + fn.structName + " " + tmp + " = {")
	for i, elem := range tuple.Children {
		if i > 0 {
			g.buf.Emit(", ")
		}
		g.expr(elem, nil)
	}
	g.buf.Emit("};\n")
	g.buf.Emit(ident + "return " + tmp + ";\n")
}

// fieldType types a returned value from the registry or its literal.
func (g *Generator) fieldType(n *syntax.Node) Field {
	switch n.Kind {
	case syntax.NodeName:
		e, ok := g.reg.LookupEntry(n.Name)
		if !ok {
			g.fail(KindSourceCode, n, "cannot infer the type of returned value %s", n.Name)
		}
		if len(e.ArraySizes) > 0 {
			g.fail(KindSourceCode, n, "cannot return array %s", n.Name)
		}
		return Field{Type: e.Type, Pointer: e.Pointer || e.Dynamic}
	case syntax.NodeConstant:
		switch n.Const {
		case syntax.ConstInt, syntax.ConstBool:
			return Field{Type: "int"}
		case syntax.ConstFloat:
			return Field{Type: "float"}
		case syntax.ConstString:
			return Field{Type: "char", Pointer: true}
		default:
			g.fail(KindNoneNotAllowed, n, "None is not allowed here")
		}
	case syntax.NodeAttribute:
		if v := n.Children[0]; n.Name == "link" && v.Kind == syntax.NodeName {
			if e, ok := g.reg.LookupEntry(v.Name); ok && len(e.ArraySizes) == 0 && !e.Pointer && !e.Dynamic {
				return Field{Type: e.Type, Pointer: true}
			}
		}
	}
	g.fail(KindSourceCode, n, "cannot infer the type of a returned %s", n.Kind)
	return Field{}
}
