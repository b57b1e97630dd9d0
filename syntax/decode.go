package syntax

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/strager/anno2c/sexy"
)

// Heads lists every list head Decode understands.
var Heads = []string{
	"module", "ann-assign", "assign", "aug-assign", "def", "param", "call",
	"const", "name", "binop", "boolop", "unary", "compare", "return",
	"ifexp", "if", "while", "for", "break", "continue", "expr", "import",
	"alias", "import-from", "attr", "lambda", "subscript", "list", "tuple",
	"del", "pass",
}

// ParseString reads a tree in its S-expression form and decodes it.
func ParseString(src string) (*Node, error) {
	datum, err := sexy.Parse(src)
	if err != nil {
		return nil, err
	}
	return Decode(datum)
}

// Decode converts an S-expression datum into a syntax tree.
//
// Lists are headed by a node kind, e.g. (binop "+" a 1). Bare symbols
// decode to names except True, False and None, which are constants. Bare
// strings and numbers are constants. A ^{line: L, col: C} metadata map on a
// list sets the node's position; otherwise the datum's own position in the
// tree text is used.
func Decode(d *sexy.Node) (*Node, error) {
	switch d.Type {
	case sexy.NodeSymbol:
		switch d.Text {
		case "True", "False":
			return &Node{Kind: NodeConstant, Pos: posOf(d), Const: ConstBool, Text: d.Text}, nil
		case "None":
			return &Node{Kind: NodeConstant, Pos: posOf(d), Const: ConstNone, Text: d.Text}, nil
		}
		return &Node{Kind: NodeName, Pos: posOf(d), Name: d.Text}, nil
	case sexy.NodeString:
		return &Node{Kind: NodeConstant, Pos: posOf(d), Const: ConstString, Text: d.Text}, nil
	case sexy.NodeInteger:
		return &Node{Kind: NodeConstant, Pos: posOf(d), Const: ConstInt, Text: d.Text}, nil
	case sexy.NodeFloat:
		return &Node{Kind: NodeConstant, Pos: posOf(d), Const: ConstFloat, Text: d.Text}, nil
	case sexy.NodeList:
		return decodeList(d)
	default:
		return nil, errorf(d, "unexpected %s", d.Type)
	}
}

func decodeList(d *sexy.Node) (*Node, error) {
	head := d.Head()
	if head == "" {
		return nil, errorf(d, "expected a node kind at the head of the list")
	}
	args := d.Items[1:]
	n := &Node{Pos: posOf(d)}
	var err error

	switch head {
	case "module":
		n.Kind = NodeModule
		n.Body, err = decodeAll(args)

	case "ann-assign":
		if err := arity(d, 2, 3); err != nil {
			return nil, err
		}
		n.Kind = NodeAnnAssign
		if n.Annotation, err = Decode(args[1]); err != nil {
			return nil, err
		}
		n.Children, err = decodeAll(append([]*sexy.Node{args[0]}, args[2:]...))

	case "assign":
		if err := arity(d, 2, -1); err != nil {
			return nil, err
		}
		n.Kind = NodeAssign
		n.Children, err = decodeAll(args)

	case "aug-assign":
		if err := arity(d, 3, 3); err != nil {
			return nil, err
		}
		n.Kind = NodeAugAssign
		if n.Op, err = atomText(args[1]); err != nil {
			return nil, err
		}
		n.Children, err = decodeAll([]*sexy.Node{args[0], args[2]})

	case "def":
		return decodeDef(d, n)

	case "param":
		if err := arity(d, 1, 3); err != nil {
			return nil, err
		}
		n.Kind = NodeParam
		if n.Name, err = atomText(args[0]); err != nil {
			return nil, err
		}
		if len(args) > 1 {
			if n.Annotation, err = Decode(args[1]); err != nil {
				return nil, err
			}
		}
		if len(args) > 2 {
			n.Children, err = decodeAll(args[2:])
		}

	case "call":
		if err := arity(d, 1, -1); err != nil {
			return nil, err
		}
		n.Kind = NodeCall
		n.Children, err = decodeAll(args)

	case "const":
		if err := arity(d, 1, 1); err != nil {
			return nil, err
		}
		if !args[0].IsAtom() {
			return nil, errorf(args[0], "const expects a literal")
		}
		c, err := Decode(args[0])
		if err != nil {
			return nil, err
		}
		if c.Kind != NodeConstant {
			return nil, errorf(args[0], "const expects a literal, got symbol %s", args[0].Text)
		}
		c.Pos = n.Pos
		return c, nil

	case "name":
		if err := arity(d, 1, 1); err != nil {
			return nil, err
		}
		n.Kind = NodeName
		n.Name, err = atomText(args[0])

	case "binop":
		if err := arity(d, 3, 3); err != nil {
			return nil, err
		}
		n.Kind = NodeBinOp
		if n.Op, err = atomText(args[0]); err != nil {
			return nil, err
		}
		n.Children, err = decodeAll(args[1:])

	case "boolop":
		if err := arity(d, 3, -1); err != nil {
			return nil, err
		}
		n.Kind = NodeBoolOp
		if n.Op, err = atomText(args[0]); err != nil {
			return nil, err
		}
		n.Children, err = decodeAll(args[1:])

	case "unary":
		if err := arity(d, 2, 2); err != nil {
			return nil, err
		}
		n.Kind = NodeUnaryOp
		if n.Op, err = atomText(args[0]); err != nil {
			return nil, err
		}
		n.Children, err = decodeAll(args[1:])

	case "compare":
		if len(args) < 3 || len(args)%2 == 0 {
			return nil, errorf(d, "compare expects a left operand followed by operator/operand pairs")
		}
		n.Kind = NodeCompare
		operands := []*sexy.Node{args[0]}
		for i := 1; i < len(args); i += 2 {
			op, err := atomText(args[i])
			if err != nil {
				return nil, err
			}
			n.Ops = append(n.Ops, op)
			operands = append(operands, args[i+1])
		}
		n.Children, err = decodeAll(operands)

	case "return":
		if err := arity(d, 0, 1); err != nil {
			return nil, err
		}
		n.Kind = NodeReturn
		n.Children, err = decodeAll(args)

	case "ifexp":
		if err := arity(d, 3, 3); err != nil {
			return nil, err
		}
		n.Kind = NodeIfExp
		n.Children, err = decodeAll(args)

	case "if", "while":
		if err := arity(d, 2, 3); err != nil {
			return nil, err
		}
		n.Kind = NodeIf
		if head == "while" {
			n.Kind = NodeWhile
		}
		if n.Children, err = decodeAll(args[:1]); err != nil {
			return nil, err
		}
		err = decodeBlocks(n, args[1:])

	case "for":
		if err := arity(d, 3, 4); err != nil {
			return nil, err
		}
		n.Kind = NodeFor
		if n.Children, err = decodeAll(args[:2]); err != nil {
			return nil, err
		}
		err = decodeBlocks(n, args[2:])

	case "break", "continue", "pass":
		if err := arity(d, 0, 0); err != nil {
			return nil, err
		}
		n.Kind = map[string]NodeKind{"break": NodeBreak, "continue": NodeContinue, "pass": NodePass}[head]

	case "expr":
		if err := arity(d, 1, 1); err != nil {
			return nil, err
		}
		n.Kind = NodeExpr
		n.Children, err = decodeAll(args)

	case "import":
		if err := arity(d, 1, -1); err != nil {
			return nil, err
		}
		n.Kind = NodeImport
		n.Children, err = decodeAliases(args)

	case "alias":
		return decodeAlias(d)

	case "import-from":
		if err := arity(d, 3, -1); err != nil {
			return nil, err
		}
		n.Kind = NodeImportFrom
		if n.Name, err = atomText(args[0]); err != nil {
			return nil, err
		}
		if args[1].Type != sexy.NodeInteger {
			return nil, errorf(args[1], "import-from expects an integer level, got %s", args[1].Type)
		}
		if n.Level, err = strconv.Atoi(args[1].Text); err != nil || n.Level < 0 {
			return nil, errorf(args[1], "invalid import level %s", args[1].Text)
		}
		n.Children, err = decodeAliases(args[2:])

	case "attr":
		if err := arity(d, 2, 2); err != nil {
			return nil, err
		}
		n.Kind = NodeAttribute
		if n.Name, err = atomText(args[1]); err != nil {
			return nil, err
		}
		n.Children, err = decodeAll(args[:1])

	case "lambda":
		if err := arity(d, 2, 2); err != nil {
			return nil, err
		}
		n.Kind = NodeLambda
		if args[0].Head() != "args" {
			return nil, errorf(args[0], "lambda expects (args ...) before its body")
		}
		for _, a := range args[0].Items[1:] {
			name, err := atomText(a)
			if err != nil {
				return nil, err
			}
			n.Args = append(n.Args, name)
		}
		n.Children, err = decodeAll(args[1:])

	case "subscript":
		if err := arity(d, 2, 2); err != nil {
			return nil, err
		}
		n.Kind = NodeSubscript
		n.Children, err = decodeAll(args)

	case "list", "tuple":
		n.Kind = NodeList
		if head == "tuple" {
			n.Kind = NodeTuple
		}
		n.Children, err = decodeAll(args)

	case "del":
		if err := arity(d, 1, -1); err != nil {
			return nil, err
		}
		n.Kind = NodeDelete
		n.Children, err = decodeAll(args)

	default:
		return nil, errorf(d, "unknown node kind '%s'%s", head, suggest(head))
	}

	if err != nil {
		return nil, err
	}
	return n, nil
}

func decodeDef(d *sexy.Node, n *Node) (*Node, error) {
	args := d.Items[1:]
	if len(args) < 1 {
		return nil, errorf(d, "def expects a function name")
	}
	n.Kind = NodeFunctionDef
	var err error
	if n.Name, err = atomText(args[0]); err != nil {
		return nil, err
	}
	sawBody := false
	for _, part := range args[1:] {
		switch part.Head() {
		case "params":
			for _, p := range part.Items[1:] {
				if p.Head() != "param" {
					return nil, errorf(p, "params expects (param ...) entries")
				}
				param, err := Decode(p)
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, param)
			}
		case "returns":
			if len(part.Items) != 2 {
				return nil, errorf(part, "returns expects exactly one annotation")
			}
			if n.Annotation, err = Decode(part.Items[1]); err != nil {
				return nil, err
			}
		case "body":
			if n.Body, err = decodeAll(part.Items[1:]); err != nil {
				return nil, err
			}
			sawBody = true
		default:
			return nil, errorf(part, "def expects (params ...), (returns ...) or (body ...)")
		}
	}
	if !sawBody {
		return nil, errorf(d, "def %s has no body", n.Name)
	}
	return n, nil
}

// decodeBlocks fills Body and OrElse from (body ...) and (orelse ...).
func decodeBlocks(n *Node, blocks []*sexy.Node) error {
	var err error
	if blocks[0].Head() != "body" {
		return errorf(blocks[0], "expected (body ...)")
	}
	if n.Body, err = decodeAll(blocks[0].Items[1:]); err != nil {
		return err
	}
	if len(blocks) > 1 {
		if blocks[1].Head() != "orelse" {
			return errorf(blocks[1], "expected (orelse ...)")
		}
		if n.OrElse, err = decodeAll(blocks[1].Items[1:]); err != nil {
			return err
		}
	}
	return nil
}

func decodeAliases(items []*sexy.Node) ([]*Node, error) {
	var aliases []*Node
	for _, item := range items {
		alias, err := decodeAlias(item)
		if err != nil {
			return nil, err
		}
		aliases = append(aliases, alias)
	}
	return aliases, nil
}

func decodeAlias(d *sexy.Node) (*Node, error) {
	if d.IsAtom() {
		name, err := atomText(d)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: NodeAlias, Pos: posOf(d), Name: name}, nil
	}
	if d.Head() != "alias" || len(d.Items) < 2 || len(d.Items) > 3 {
		return nil, errorf(d, "expected a module name or (alias NAME [AS])")
	}
	n := &Node{Kind: NodeAlias, Pos: posOf(d)}
	var err error
	if n.Name, err = atomText(d.Items[1]); err != nil {
		return nil, err
	}
	if len(d.Items) == 3 {
		if n.AsName, err = atomText(d.Items[2]); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func decodeAll(items []*sexy.Node) ([]*Node, error) {
	nodes := make([]*Node, 0, len(items))
	for _, item := range items {
		n, err := Decode(item)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// arity checks the number of arguments after the head; max < 0 means no
// upper bound.
func arity(d *sexy.Node, min, max int) error {
	got := len(d.Items) - 1
	if got < min || (max >= 0 && got > max) {
		switch {
		case min == max:
			return errorf(d, "%s expects %d arguments, got %d", d.Head(), min, got)
		case max < 0:
			return errorf(d, "%s expects at least %d arguments, got %d", d.Head(), min, got)
		default:
			return errorf(d, "%s expects %d to %d arguments, got %d", d.Head(), min, max, got)
		}
	}
	return nil
}

// atomText returns the text of a symbol or string datum.
func atomText(d *sexy.Node) (string, error) {
	if d.Type != sexy.NodeSymbol && d.Type != sexy.NodeString {
		return "", errorf(d, "expected a symbol or string, got %s", d.Type)
	}
	return d.Text, nil
}

func posOf(d *sexy.Node) Pos {
	line, lok := metaInt(d, "line")
	col, cok := metaInt(d, "col")
	if lok && cok {
		return Pos{Line: line, Col: col}
	}
	return Pos{Line: d.Line, Col: d.Col}
}

func metaInt(d *sexy.Node, key string) (int, bool) {
	v := d.Meta(key)
	if v == nil || v.Type != sexy.NodeInteger {
		return 0, false
	}
	i, err := strconv.Atoi(v.Text)
	return i, err == nil
}

func suggest(head string) string {
	ranks := fuzzy.RankFindFold(head, Heads)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return fmt.Sprintf("; did you mean '%s'?", ranks[0].Target)
}

func errorf(d *sexy.Node, format string, args ...any) error {
	return fmt.Errorf("%d:%d: %s", d.Line, d.Col, fmt.Sprintf(format, args...))
}
