// Command expc is the ahead-of-time compiler driver (spec.md §6.2): it
// accepts `expc <source>.exp` and writes `<source>.s`, exit code 0 on
// success and non-zero on any pipeline failure. Argument parsing follows
// rtg's main.go: a hand-rolled for-loop switch over os.Args, no flag
// library, matching the corpus's universal style for CLI entry points.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kr/pretty"
	"github.com/pkg/errors"

	"github.com/explang/expc/internal/ctx"
	"github.com/explang/expc/internal/frontend"
	"github.com/explang/expc/internal/pipeline"
)

// parse is the seam a real lexer/parser would fill in; this module ships
// none (spec.md §1's explicit non-goal), so invoking the CLI on an actual
// .exp file fails loudly rather than pretending to compile it.
var parse frontend.Parser

var (
	debug        bool
	debugDumpIR  bool
	debugDumpX86 bool
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage: expc [-o output] [-debug] [-debug-dump-ir] [-debug-dump-x86] <source>.exp\n")
		return 1
	}

	outputPath := ""
	var sourcePath string
	i := 0
	for i < len(args) {
		switch {
		case args[i] == "-o" && i+1 < len(args):
			outputPath = args[i+1]
			i += 2
		case args[i] == "-debug":
			debug = true
			i++
		case args[i] == "-debug-dump-ir":
			debugDumpIR = true
			i++
		case args[i] == "-debug-dump-x86":
			debugDumpX86 = true
			i++
		default:
			sourcePath = args[i]
			i++
		}
	}
	if sourcePath == "" {
		fmt.Fprintf(os.Stderr, "expc: no source file given\n")
		return 1
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(sourcePath, ".exp") + ".s"
	}

	return compile(sourcePath, outputPath)
}

func compile(sourcePath, outputPath string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("internal error: %v", r)
			fmt.Fprintf(os.Stderr, "expc: %+v\n", err)
			code = 2
		}
	}()

	if debug {
		fmt.Fprintf(os.Stderr, "debug: compiling %s -> %s\n", sourcePath, outputPath)
	}

	c := ctx.New(sourcePath, outputPath)
	if parse == nil {
		fmt.Fprintf(os.Stderr, "expc: no front end wired in (lexer/parser is out of this module's scope; see spec.md §1)\n")
		return 1
	}
	if err := parse(c, sourcePath); err != nil {
		fmt.Fprintf(os.Stderr, "expc: %s\n", err)
		return 1
	}
	if debugDumpIR {
		for _, sym := range c.Symbols.All() {
			fmt.Fprintf(os.Stderr, "debug: ir %s: %# v\n", sym.Name, pretty.Formatter(sym.Body))
		}
	}

	asm, err := pipeline.Compile(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "expc: %s\n", err)
		for _, e := range c.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
		return 1
	}
	if debugDumpX86 {
		fmt.Fprintf(os.Stderr, "debug: x86 asm:\n%s", asm)
	}

	if err := os.WriteFile(outputPath, []byte(asm), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "expc: writing %s: %v\n", outputPath, err)
		return 1
	}
	return 0
}
