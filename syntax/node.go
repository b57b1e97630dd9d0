// Package syntax defines the syntax tree consumed by the C generator and
// decodes it from its S-expression wire form.
package syntax

// NodeKind represents different types of syntax tree nodes
type NodeKind string

const (
	NodeModule      NodeKind = "Module"
	NodeAnnAssign   NodeKind = "AnnAssign"
	NodeAssign      NodeKind = "Assign"
	NodeAugAssign   NodeKind = "AugAssign"
	NodeFunctionDef NodeKind = "FunctionDef"
	NodeParam       NodeKind = "Param"
	NodeCall        NodeKind = "Call"
	NodeConstant    NodeKind = "Constant"
	NodeName        NodeKind = "Name"
	NodeBinOp       NodeKind = "BinOp"
	NodeBoolOp      NodeKind = "BoolOp"
	NodeUnaryOp     NodeKind = "UnaryOp"
	NodeCompare     NodeKind = "Compare"
	NodeReturn      NodeKind = "Return"
	NodeIfExp       NodeKind = "IfExp"
	NodeIf          NodeKind = "If"
	NodeWhile       NodeKind = "While"
	NodeFor         NodeKind = "For"
	NodeBreak       NodeKind = "Break"
	NodeContinue    NodeKind = "Continue"
	NodeExpr        NodeKind = "Expr"
	NodeImport      NodeKind = "Import"
	NodeImportFrom  NodeKind = "ImportFrom"
	NodeAlias       NodeKind = "Alias"
	NodeAttribute   NodeKind = "Attribute"
	NodeLambda      NodeKind = "Lambda"
	NodeSubscript   NodeKind = "Subscript"
	NodeList        NodeKind = "List"
	NodeTuple       NodeKind = "Tuple"
	NodeDelete      NodeKind = "Delete"
	NodePass        NodeKind = "Pass"
)

// ConstKind tells which literal a NodeConstant holds.
type ConstKind int

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
)

// Node represents a node in the syntax tree.
//
// Children layout per kind:
//
//	AnnAssign   [target] or [target, value]; Annotation holds the annotation
//	Assign      [targets..., value]
//	AugAssign   [target, value]
//	FunctionDef params (NodeParam); Annotation holds the return annotation
//	Param       [] or [default]; Annotation may be nil
//	Call        [func, args...]
//	BinOp       [left, right]
//	BoolOp      operands
//	UnaryOp     [operand]
//	Compare     [left, comparators...]; len(Ops) == len(Children)-1
//	Return      [] or [value]
//	IfExp       [test, body, orelse]
//	If, While   [test]
//	For         [target, iter]
//	Expr        [value]
//	Import      aliases (NodeAlias)
//	ImportFrom  aliases (NodeAlias); Name is the module, "" for "from . import"
//	Attribute   [value]; Name is the attribute
//	Lambda      [body]; Args are the parameter names
//	Subscript   [value, index]
//	List, Tuple elements
//	Delete      targets
type Node struct {
	Kind NodeKind
	Pos  Pos

	// NodeName, NodeFunctionDef, NodeParam, NodeAttribute, NodeAlias,
	// NodeImportFrom:
	Name string
	// NodeAlias:
	AsName string
	// NodeBinOp, NodeBoolOp, NodeUnaryOp, NodeAugAssign:
	Op string
	// NodeCompare:
	Ops []string
	// NodeConstant: literal text; string contents are unescaped.
	Const ConstKind
	Text  string
	// NodeImportFrom: number of leading dots.
	Level int
	// NodeLambda:
	Args []string

	Annotation *Node
	Children   []*Node
	Body       []*Node // NodeModule, NodeFunctionDef, NodeIf, NodeWhile, NodeFor
	OrElse     []*Node // NodeIf, NodeWhile, NodeFor
}

// IsNone reports whether n is the None literal.
func (n *Node) IsNone() bool {
	return n != nil && n.Kind == NodeConstant && n.Const == ConstNone
}

// IsString reports whether n is a string literal.
func (n *Node) IsString() bool {
	return n != nil && n.Kind == NodeConstant && n.Const == ConstString
}

// Value returns the value child of kinds that carry one optional trailing
// expression (AnnAssign, Return, Param), or nil.
func (n *Node) Value() *Node {
	switch n.Kind {
	case NodeAnnAssign:
		if len(n.Children) > 1 {
			return n.Children[1]
		}
	case NodeReturn, NodeParam:
		if len(n.Children) > 0 {
			return n.Children[0]
		}
	}
	return nil
}

// Walk calls fn for n and, while fn returns true, for every node below it
// in source order.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	Walk(n.Annotation, fn)
	for _, c := range n.Children {
		Walk(c, fn)
	}
	for _, c := range n.Body {
		Walk(c, fn)
	}
	for _, c := range n.OrElse {
		Walk(c, fn)
	}
}
