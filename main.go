package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/strager/anno2c/cgen"
	"github.com/strager/anno2c/modload"
	"github.com/strager/anno2c/sexy"
	"github.com/strager/anno2c/symcache"
	"github.com/strager/anno2c/syntax"
)

// translateSource parses a tree file and translates it to C.
func translateSource(src []byte, resolver cgen.ModuleResolver) (string, error) {
	tree, err := syntax.ParseString(string(src))
	if err != nil {
		return "", err
	}
	return cgen.Translate(tree, cgen.Options{Modules: resolver})
}

// outputPath is the C file written for input unless -o says otherwise.
func outputPath(input string) string {
	return strings.TrimSuffix(input, modload.Ext) + ".c"
}

type buildConfig struct {
	output     string // only with a single input
	modulesDir string // "" resolves imports next to each input
	cachePath  string // "" disables the symbol cache
	jobs       int
	verbose    bool
}

type buildResult struct {
	input  string
	output string
	size   int
	stats  modload.Stats
	err    error
}

// buildFiles translates every input to its C file, cfg.jobs at a time.
// Every input gets a result; failures are reported in result.err.
func buildFiles(inputs []string, cfg buildConfig) ([]buildResult, error) {
	if cfg.output != "" && len(inputs) != 1 {
		return nil, fmt.Errorf("-o needs exactly one input file, got %d", len(inputs))
	}

	var cache *symcache.Cache
	if cfg.cachePath != "" {
		var err error
		if cache, err = symcache.Open(cfg.cachePath); err != nil {
			return nil, err
		}
		defer cache.Close()
	}

	results := make([]buildResult, len(inputs))
	var g errgroup.Group
	if cfg.jobs > 0 {
		g.SetLimit(cfg.jobs)
	}
	for i, input := range inputs {
		g.Go(func() error {
			results[i] = buildFile(input, cfg, cache)
			return nil
		})
	}
	g.Wait()
	return results, nil
}

func buildFile(input string, cfg buildConfig, cache *symcache.Cache) buildResult {
	res := buildResult{input: input, output: cfg.output}
	if res.output == "" {
		res.output = outputPath(input)
	}

	src, err := os.ReadFile(input)
	if err != nil {
		res.err = err
		return res
	}
	dir := cfg.modulesDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	resolver := modload.New(dir, cache)

	out, err := translateSource(src, resolver)
	res.stats = resolver.Stats()
	if err != nil {
		res.err = err
		return res
	}
	if err := os.WriteFile(res.output, []byte(out), 0644); err != nil {
		res.err = err
		return res
	}
	res.size = len(out)
	return res
}

func (r buildResult) describe(verbose bool) string {
	msg := fmt.Sprintf("Generated %s (%s)", r.output, humanize.Bytes(uint64(r.size)))
	if verbose {
		msg += fmt.Sprintf(", modules: %d parsed, %d cached, %d without tree file",
			r.stats.Parsed, r.stats.CacheHits, r.stats.Missing)
	}
	return msg
}

// verifyFile runs the Markdown test cases of path and writes one line per
// failing case to w.
func verifyFile(path string, w io.Writer, verbose bool) (passed, failed int, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	testCases, err := sexy.ExtractTestCases(string(content))
	if err != nil {
		return 0, 0, err
	}

	opts := cgen.Options{Modules: modload.New(filepath.Dir(path), nil)}
	for _, tc := range testCases {
		if err := cgen.CheckCase(tc, opts); err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s:%d: %s\n%v\n", path, tc.Line, tc.Name, err)
			continue
		}
		passed++
		if verbose {
			fmt.Fprintf(w, "ok   %s:%d: %s\n", path, tc.Line, tc.Name)
		}
	}
	return passed, failed, nil
}

// useColor reports whether diagnostics on f may use ANSI colors.
func useColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// reportError writes "error: file:line:col: msg" to w, or "error: file:
// msg" when err carries no position.
func reportError(w io.Writer, color bool, file string, err error) {
	label := "error:"
	if color {
		label = "\x1b[1;31merror:\x1b[0m"
	}
	msg := err.Error()
	switch {
	case file == "":
	case msg != "" && msg[0] >= '0' && msg[0] <= '9':
		msg = file + ":" + msg
	default:
		msg = file + ": " + msg
	}
	fmt.Fprintf(w, "%s %s\n", label, msg)
}
