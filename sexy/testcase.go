package sexy

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FenceTree is the language of the fence holding the input syntax tree.
const FenceTree = "tree"

// AssertionType represents the type of assertion code fence in a test case
type AssertionType string

const (
	// AssertionTypeC holds the exact expected C output.
	AssertionTypeC AssertionType = "c"
	// AssertionTypeError holds the expected error kind name, optionally
	// followed by a message fragment on the next lines.
	AssertionTypeError AssertionType = "error"
)

var fenceLanguages = []string{FenceTree, string(AssertionTypeC), string(AssertionTypeError)}

// Assertion represents a single assertion in a test case
type Assertion struct {
	Type    AssertionType
	Content string // raw content of the assertion fence
}

// TestCase represents a complete test case extracted from Markdown
type TestCase struct {
	Name       string // the heading text after "Test: "
	Line       int    // line of the heading
	Input      string // raw content of the tree fence
	Tree       *Node  // parsed tree fence
	Assertions []Assertion
}

// ExtractTestCases parses a Markdown document and extracts all test cases
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)

	doc := md.Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var currentTestCase *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if !strings.HasPrefix(headingText, "Test: ") {
				return ast.WalkContinue, nil
			}
			if currentTestCase != nil {
				if err := validateTestCase(currentTestCase); err != nil {
					return ast.WalkStop, err
				}
				testCases = append(testCases, *currentTestCase)
			}
			currentTestCase = &TestCase{
				Name: strings.TrimPrefix(headingText, "Test: "),
				Line: getLineNumber(n, source),
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := extractCodeBlockContent(n, source)
			lineNum := getLineNumber(n, source)

			if language == "" {
				// Plain code blocks are prose.
				return ast.WalkContinue, nil
			}
			if !isKnownFence(language) {
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s'%s", lineNum, language, suggestFence(language))
			}
			if currentTestCase == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
			}

			if language == FenceTree {
				if currentTestCase.Tree != nil {
					return ast.WalkStop, fmt.Errorf("line %d: multiple tree fences found in test '%s'", lineNum, currentTestCase.Name)
				}
				tree, parseErr := Parse(content)
				if parseErr != nil {
					return ast.WalkStop, fmt.Errorf("line %d: failed to parse tree in test '%s': %w", lineNum, currentTestCase.Name, parseErr)
				}
				currentTestCase.Input = strings.TrimRight(content, "\n")
				currentTestCase.Tree = tree
				return ast.WalkContinue, nil
			}

			currentTestCase.Assertions = append(currentTestCase.Assertions, Assertion{
				Type:    AssertionType(language),
				Content: content,
			})
		}

		return ast.WalkContinue, nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if currentTestCase != nil {
		if err := validateTestCase(currentTestCase); err != nil {
			return nil, err
		}
		testCases = append(testCases, *currentTestCase)
	}

	return testCases, nil
}

// extractTextFromNode extracts plain text content from a markdown node
func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

// extractCodeBlockContent extracts the content from a fenced code block
func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}

func isKnownFence(language string) bool {
	for _, l := range fenceLanguages {
		if l == language {
			return true
		}
	}
	return false
}

func suggestFence(language string) string {
	ranks := fuzzy.RankFindFold(language, fenceLanguages)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return fmt.Sprintf("; did you mean '%s'?", ranks[0].Target)
}

// validateTestCase ensures a test case has an input and exactly one assertion
func validateTestCase(testCase *TestCase) error {
	if testCase.Tree == nil {
		return fmt.Errorf("test '%s' has no tree fence", testCase.Name)
	}
	if len(testCase.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", testCase.Name)
	}
	if len(testCase.Assertions) > 1 {
		return fmt.Errorf("test '%s' has %d assertion fences, want 1", testCase.Name, len(testCase.Assertions))
	}
	return nil
}

// getLineNumber calculates the line number of a given AST node
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	startPos := node.Lines().At(0).Start
	lineNum := 1
	for i := 0; i < startPos && i < len(source); i++ {
		if source[i] == '\n' {
			lineNum++
		}
	}
	return lineNum
}
