package cgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/strager/anno2c/sexy"
	"github.com/strager/anno2c/syntax"
)

// CheckCase translates the tree of a Markdown test case and checks the
// result against its assertion. C output is compared with trailing
// newlines trimmed. An error assertion names the expected ErrorKind on
// its first line and, optionally, a fragment of the message on the next.
func CheckCase(tc sexy.TestCase, opts Options) error {
	if tc.Tree == nil || len(tc.Assertions) != 1 {
		return fmt.Errorf("test '%s' needs one tree and one assertion", tc.Name)
	}
	tree, err := syntax.Decode(tc.Tree)
	if err != nil {
		return fmt.Errorf("decoding tree: %w", err)
	}
	out, err := Translate(tree, opts)

	assertion := tc.Assertions[0]
	switch assertion.Type {
	case sexy.AssertionTypeC:
		if err != nil {
			return fmt.Errorf("unexpected error: %w", err)
		}
		want := strings.TrimRight(assertion.Content, "\n")
		got := strings.TrimRight(out, "\n")
		if got != want {
			return fmt.Errorf("output mismatch\n--- want\n%s\n--- got\n%s", want, got)
		}
	case sexy.AssertionTypeError:
		lines := strings.SplitN(strings.TrimSpace(assertion.Content), "\n", 2)
		kind := ErrorKind(strings.TrimSpace(lines[0]))
		if err == nil {
			return fmt.Errorf("expected %s, got output:\n%s", kind, out)
		}
		var e *Error
		if !errors.As(err, &e) || e.Kind != kind {
			return fmt.Errorf("expected %s, got: %v", kind, err)
		}
		if len(lines) > 1 {
			if fragment := strings.TrimSpace(lines[1]); !strings.Contains(err.Error(), fragment) {
				return fmt.Errorf("error %q does not contain %q", err.Error(), fragment)
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %s", assertion.Type)
	}
	return nil
}
