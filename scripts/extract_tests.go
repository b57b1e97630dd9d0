// Command extract_tests turns .sx tree files into Markdown test cases,
// recording the current translation of each file as its expected output.
//
//	go run ./scripts -title "Motors" examples/*.sx > cgen/testdata/motors.md
//
// Review the generated expectations before committing them.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strager/anno2c/cgen"
	"github.com/strager/anno2c/sexy"
	"github.com/strager/anno2c/syntax"
)

type Extractor struct {
	buf   bytes.Buffer
	cases int
}

// Add appends the test case for one tree file.
func (e *Extractor) Add(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tree, err := syntax.ParseString(string(src))
	if err != nil {
		return fmt.Errorf("%s:%w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ReplaceAll(name, "_", " ")
	fmt.Fprintf(&e.buf, "\n## Test: %s\n", name)
	e.fence(sexy.FenceTree, strings.TrimRight(string(src), "\n"))

	out, err := cgen.Translate(tree, cgen.Options{})
	var cerr *cgen.Error
	switch {
	case err == nil:
		e.fence(string(sexy.AssertionTypeC), strings.TrimRight(out, "\n"))
	case errors.As(err, &cerr):
		e.fence(string(sexy.AssertionTypeError), string(cerr.Kind)+"\n"+cerr.Msg)
	default:
		return fmt.Errorf("%s: %w", path, err)
	}
	e.cases++
	return nil
}

func (e *Extractor) fence(language, content string) {
	fmt.Fprintf(&e.buf, "```%s\n%s\n```\n", language, content)
}

func main() {
	title := flag.String("title", "Extracted tests", "Heading of the generated document")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: extract_tests [-title text] <file.sx>...\n")
		os.Exit(1)
	}

	e := &Extractor{}
	for _, path := range flag.Args() {
		if err := e.Add(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// Round-trip the document so a broken fence is caught here.
	doc := "# " + *title + "\n" + e.buf.String()
	if _, err := sexy.ExtractTestCases(doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error: generated document does not parse: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(doc)
	fmt.Fprintf(os.Stderr, "Extracted %d test case(s)\n", e.cases)
}
