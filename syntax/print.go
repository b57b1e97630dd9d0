package syntax

import (
	"strings"
	"unicode"

	"github.com/strager/anno2c/sexy"
)

// ToSExpr converts a syntax tree to its canonical S-expression form.
// Positions are not printed. Decode(ToSExpr(n)) reproduces n's structure.
func ToSExpr(node *Node) string {
	if node == nil {
		return "None"
	}
	switch node.Kind {
	case NodeModule:
		return list("module", all(node.Body)...)
	case NodeAnnAssign:
		parts := []string{ToSExpr(node.Children[0]), ToSExpr(node.Annotation)}
		if v := node.Value(); v != nil {
			parts = append(parts, ToSExpr(v))
		}
		return list("ann-assign", parts...)
	case NodeAssign:
		return list("assign", all(node.Children)...)
	case NodeAugAssign:
		return list("aug-assign", ToSExpr(node.Children[0]), sexy.Quote(node.Op), ToSExpr(node.Children[1]))
	case NodeFunctionDef:
		parts := []string{symbol(node.Name), list("params", all(node.Children)...)}
		if node.Annotation != nil {
			parts = append(parts, list("returns", ToSExpr(node.Annotation)))
		}
		parts = append(parts, list("body", all(node.Body)...))
		return list("def", parts...)
	case NodeParam:
		parts := []string{symbol(node.Name)}
		if node.Annotation != nil {
			parts = append(parts, ToSExpr(node.Annotation))
			parts = append(parts, all(node.Children)...)
		}
		return list("param", parts...)
	case NodeCall:
		return list("call", all(node.Children)...)
	case NodeConstant:
		if node.Const == ConstString {
			return sexy.Quote(node.Text)
		}
		return node.Text
	case NodeName:
		if isPlainSymbol(node.Name) {
			return node.Name
		}
		return list("name", sexy.Quote(node.Name))
	case NodeBinOp, NodeBoolOp, NodeUnaryOp:
		head := map[NodeKind]string{NodeBinOp: "binop", NodeBoolOp: "boolop", NodeUnaryOp: "unary"}[node.Kind]
		return list(head, append([]string{sexy.Quote(node.Op)}, all(node.Children)...)...)
	case NodeCompare:
		parts := []string{ToSExpr(node.Children[0])}
		for i, op := range node.Ops {
			parts = append(parts, sexy.Quote(op), ToSExpr(node.Children[i+1]))
		}
		return list("compare", parts...)
	case NodeReturn:
		return list("return", all(node.Children)...)
	case NodeIfExp:
		return list("ifexp", all(node.Children)...)
	case NodeIf, NodeWhile, NodeFor:
		head := map[NodeKind]string{NodeIf: "if", NodeWhile: "while", NodeFor: "for"}[node.Kind]
		parts := append(all(node.Children), list("body", all(node.Body)...))
		if len(node.OrElse) > 0 {
			parts = append(parts, list("orelse", all(node.OrElse)...))
		}
		return list(head, parts...)
	case NodeBreak:
		return "(break)"
	case NodeContinue:
		return "(continue)"
	case NodePass:
		return "(pass)"
	case NodeExpr:
		return list("expr", all(node.Children)...)
	case NodeImport:
		return list("import", all(node.Children)...)
	case NodeImportFrom:
		parts := []string{sexy.Quote(node.Name), itoa(node.Level)}
		return list("import-from", append(parts, all(node.Children)...)...)
	case NodeAlias:
		if node.AsName == "" {
			return sexy.Quote(node.Name)
		}
		return list("alias", sexy.Quote(node.Name), sexy.Quote(node.AsName))
	case NodeAttribute:
		return list("attr", ToSExpr(node.Children[0]), sexy.Quote(node.Name))
	case NodeLambda:
		var args []string
		for _, a := range node.Args {
			args = append(args, symbol(a))
		}
		return list("lambda", list("args", args...), ToSExpr(node.Children[0]))
	case NodeSubscript:
		return list("subscript", all(node.Children)...)
	case NodeList:
		return list("list", all(node.Children)...)
	case NodeTuple:
		return list("tuple", all(node.Children)...)
	case NodeDelete:
		return list("del", all(node.Children)...)
	default:
		return ""
	}
}

func list(head string, parts ...string) string {
	if len(parts) == 0 {
		return "(" + head + ")"
	}
	return "(" + head + " " + strings.Join(parts, " ") + ")"
}

func all(nodes []*Node) []string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, ToSExpr(n))
	}
	return parts
}

// symbol prints a name in a position where Decode reads symbols or strings.
func symbol(name string) string {
	if isPlainSymbol(name) {
		return name
	}
	return sexy.Quote(name)
}

// isPlainSymbol reports whether name reads back as a bare Name symbol.
func isPlainSymbol(name string) bool {
	if name == "" || name == "True" || name == "False" || name == "None" {
		return false
	}
	for i, r := range name {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '+' {
			return false
		}
	}
	return true
}

// itoa converts an int to string
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	var result string
	negative := n < 0
	if negative {
		n = -n
	}

	for n > 0 {
		result = string(rune('0'+n%10)) + result
		n /= 10
	}

	if negative {
		result = "-" + result
	}

	return result
}
