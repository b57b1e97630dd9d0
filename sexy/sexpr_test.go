package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []string{"hello", "test_var", "func-name", "x", "_delay_ms", "True"}

	for _, input := range tests {
		result, err := Parse(input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, input)
		be.Equal(t, result.String(), input)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"int__link"`, "int__link", `"int__link"`},
		{`"Hello world"`, "Hello world", `"Hello world"`},
		{`""`, "", `""`},
		{`"say \"hi\""`, `say "hi"`, `"say \"hi\""`},
		{`"C:\\tmp"`, `C:\tmp`, `"C:\\tmp"`},
		{`"two\nlines"`, "two\nlines", `"two\nlines"`},
		{`"tab\there"`, "tab\there", `"tab\there"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   NodeType
	}{
		{"42", NodeInteger},
		{"0", NodeInteger},
		{"-123", NodeInteger},
		{"+456", NodeInteger},
		{"10.5", NodeFloat},
		{"-10.5", NodeFloat},
		{"1e9", NodeFloat},
		{"2.5E-3", NodeFloat},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, test.typ)
		be.Equal(t, result.Text, test.input)
		be.Equal(t, result.String(), test.input)
	}
}

func TestParseOperatorSymbols(t *testing.T) {
	result, err := Parse("(+ -)")
	be.Err(t, err, nil)
	be.Equal(t, len(result.Items), 2)
	be.Equal(t, result.Items[0].Type, NodeSymbol)
	be.Equal(t, result.Items[0].Text, "+")
	be.Equal(t, result.Items[1].Text, "-")
}

func TestParseList(t *testing.T) {
	cases := map[string]string{
		"()":                      "()",
		"(pass)":                  "(pass)",
		"(list 5 10 15)":          "(list 5 10 15)",
		"(binop \"+\" 1 2)":       "(binop \"+\" 1 2)",
		"(  call  f\n\t(name x) )": "(call f (name x))",
	}

	for input, want := range cases {
		got, err := Parse(input)
		be.Err(t, err, nil)
		be.Equal(t, got.Type, NodeList)
		be.Equal(t, got.String(), want)
	}
}

func TestParseMap(t *testing.T) {
	result, err := Parse("{line: 3, col: 4}")
	be.Err(t, err, nil)

	be.Equal(t, result.Type, NodeMap)
	be.Equal(t, result.Keys, []string{"line", "col"})
	be.Equal(t, result.String(), "{line: 3, col: 4}")

	empty, err := Parse("{}")
	be.Err(t, err, nil)
	be.Equal(t, empty.Type, NodeMap)
	be.Equal(t, len(empty.Keys), 0)
}

func TestParseMeta(t *testing.T) {
	result, err := Parse(`(name x ^{line: 3, col: 11})`)
	be.Err(t, err, nil)

	be.Equal(t, result.Type, NodeList)
	be.Equal(t, result.String(), `(^{line: 3, col: 11} name x)`)
	be.Equal(t, result.Head(), "name")
	be.Equal(t, result.Meta("line").Text, "3")
	be.Equal(t, result.Meta("col").Text, "11")
	be.True(t, result.Meta("missing") == nil)
}

func TestParseMetaMerging(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"maps anywhere in the list are merged",
			"(^{line: 1} break ^{col: 7})",
			"(^{line: 1, col: 7} break)",
		},
		{
			"the last value of a key wins",
			"(^{line: 1} ^{line: 2} continue)",
			"(^{line: 2} continue)",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := Parse(test.input)
			be.Err(t, err, nil)

			be.Equal(t, result.String(), test.expected)
			be.Equal(t, len(result.MetaKeys), len(result.MetaItems))
		})
	}
}

func TestParsePositions(t *testing.T) {
	input := "(module\n  (expr\n    (call f 1)))"
	result, err := Parse(input)
	be.Err(t, err, nil)

	be.Equal(t, result.Line, 1)
	be.Equal(t, result.Col, 1)

	expr := result.Items[1]
	be.Equal(t, expr.Line, 2)
	be.Equal(t, expr.Col, 3)

	call := expr.Items[1]
	be.Equal(t, call.Line, 3)
	be.Equal(t, call.Col, 5)

	arg := call.Items[2]
	be.Equal(t, arg.Line, 3)
	be.Equal(t, arg.Col, 13)
}

func TestRoundTripParsing(t *testing.T) {
	tests := []string{
		"variable1",
		`"char__32"`,
		`"first line\nsecond line"`,
		"56",
		"-1.25",
		"()",
		"(break)",
		"(tuple a b)",
		"{}",
		"{line: 4}",
		"(aug-assign x \"**\" 2)",
		"(name x ^{line: 2, col: 9})",
		"(module (def f (params (param a int 1)) (body (return a))))",
	}

	for _, test := range tests {
		t.Run(test, func(t *testing.T) {
			result1, err := Parse(test)
			be.Err(t, err, nil)

			output := result1.String()

			result2, err := Parse(output)
			be.Err(t, err, nil)

			be.Equal(t, result2.String(), output)
		})
	}
}

func TestParseComments(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"; the counter\ncount", "count"},
		{"count ; the counter", "count"},
		{"; tree for a declaration\n(ann-assign x int 1)", "(ann-assign x int 1)"},
		{"(del ; heap arrays are freed\n buf)", "(del buf)"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"unterminated string`, "unterminated string"},
		{`"invalid \escape"`, "invalid escape sequence"},
		{".", "unexpected character '.'"},
		{"@", "unexpected character '@'"},
		{"[1]", "unexpected character '['"},
		{"#x=1", "unexpected character '#'"},
	}

	for _, test := range tests {
		_, err := Parse(test.input)
		be.True(t, err != nil)
		be.True(t, strings.Contains(err.Error(), test.expected))
	}
}

func TestLexerErrorPosition(t *testing.T) {
	_, err := Parse("(a\n  @)")
	be.Err(t, err, "2:3: unexpected character '@'")
}

func TestParserErrors(t *testing.T) {
	tests := []string{
		"(",
		"{",
		"(module (pass)",
		"^",
		"(^pass)",
		"{1: 2}",
		"{line 2}",
		"(module) (module)",
		"42 x",
		"a b",
	}

	for _, src := range tests {
		_, err := Parse(src)
		be.True(t, err != nil)
	}
}
