package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"

	"github.com/strager/anno2c/cgen"
	"github.com/strager/anno2c/modload"
	"github.com/strager/anno2c/syntax"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `anno2c - Translate annotated syntax trees to C

Usage:
    anno2c <command> [arguments]

Commands:
    build <file>...   Translate .sx tree files to .c files
    eval <tree>       Translate an inline tree and print the C
    check <file>      Parse and translate a .sx file without writing output
    verify <file>...  Run the test cases of Markdown files
    help              Show this help message

Examples:
    anno2c build -o blink.c blink.sx
    anno2c build -j 8 -cache .anno2c.db src/*.sx
    anno2c eval '(module (ann-assign x int 1))'
    anno2c check blink.sx
    anno2c verify cgen/testdata/*.md

Use "anno2c <command> -h" for more information about a command.
`)
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <file>.c; one input only)")
	modules := fs.String("modules", "", "Directory imported modules are loaded from (default: next to each input)")
	cache := fs.String("cache", "", "SQLite file caching the declarations of imported modules")
	jobs := fs.Int("j", runtime.NumCPU(), "Number of files translated in parallel")
	verbose := fs.Bool("v", false, "Show verbose translation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: anno2c build [-o output] [-modules dir] [-cache file] [-j n] [-v] <file>...\n")
		fmt.Fprintf(os.Stderr, "Translate .sx tree files to .c files\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := buildConfig{
		output:     *output,
		modulesDir: *modules,
		cachePath:  *cache,
		jobs:       *jobs,
		verbose:    *verbose,
	}
	if *verbose {
		fmt.Printf("Translating %d file(s) with %d job(s)...\n", fs.NArg(), cfg.jobs)
	}

	results, err := buildFiles(fs.Args(), cfg)
	if err != nil {
		reportError(os.Stderr, useColor(os.Stderr), "", err)
		os.Exit(1)
	}

	color := useColor(os.Stderr)
	failed := 0
	total := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			reportError(os.Stderr, color, r.input, r.err)
			continue
		}
		total += r.size
		fmt.Println(r.describe(*verbose))
	}
	if *verbose && len(results) > 1 {
		fmt.Printf("Wrote %s in %d file(s)\n", humanize.Bytes(uint64(total)), len(results)-failed)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func evalCommand(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	modules := fs.String("modules", ".", "Directory imported modules are loaded from")
	verbose := fs.Bool("v", false, "Show verbose translation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: anno2c eval [-modules dir] [-v] <tree>\n")
		fmt.Fprintf(os.Stderr, "Translate an inline tree and print the C\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one tree argument\n")
		fs.Usage()
		os.Exit(1)
	}

	code := fs.Arg(0)

	if *verbose {
		fmt.Fprintf(os.Stderr, "Evaluating: %s\n", code)
	}

	resolver := modload.New(*modules, nil)
	out, err := translateSource([]byte(code), resolver)
	if err != nil {
		reportError(os.Stderr, useColor(os.Stderr), "", err)
		os.Exit(1)
	}
	fmt.Print(out)

	if *verbose {
		stats := resolver.Stats()
		fmt.Fprintf(os.Stderr, "Generated %s, %d module(s) loaded\n", humanize.Bytes(uint64(len(out))), stats.Parsed)
	}
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose checking details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: anno2c check [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Parse and translate a .sx file without writing output\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)

	if *verbose {
		fmt.Printf("Checking %s...\n", filename)
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}

	tree, err := syntax.ParseString(string(src))
	if err != nil {
		reportError(os.Stderr, useColor(os.Stderr), filename, err)
		os.Exit(1)
	}
	opts := cgen.Options{Modules: modload.New(filepath.Dir(filename), nil)}
	if _, err := cgen.Translate(tree, opts); err != nil {
		reportError(os.Stderr, useColor(os.Stderr), filename, err)
		os.Exit(1)
	}

	fmt.Printf("%s: no errors found\n", filename)

	if *verbose {
		fmt.Printf("Tree: %s\n", syntax.ToSExpr(tree))
	}
}

func verifyCommand(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	verbose := fs.Bool("v", false, "List passing test cases too")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: anno2c verify [-v] <file.md>...\n")
		fmt.Fprintf(os.Stderr, "Run the test cases of Markdown files\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	passed, failed := 0, 0
	for _, path := range fs.Args() {
		p, f, err := verifyFile(path, os.Stdout, *verbose)
		if err != nil {
			reportError(os.Stderr, useColor(os.Stderr), path, err)
			os.Exit(1)
		}
		passed += p
		failed += f
	}

	fmt.Printf("%s passed, %s failed\n", humanize.Comma(int64(passed)), humanize.Comma(int64(failed)))
	if failed > 0 {
		os.Exit(1)
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "eval":
		evalCommand(args)
	case "check":
		checkCommand(args)
	case "verify":
		verifyCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
