// Command emberc is a thin example driver for the ember core (spec.md
// §6): parse one file, print its diagnostics, optionally dump the
// resolved AST. It is not a production compiler driver — no target
// triple parsing, no config file loading, no crash handlers — just
// enough to exercise CompileFile end to end the way the teacher's own
// example binaries exercise a single BaseParser call.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/emberlang/ember"
	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/diag"
	_ "github.com/emberlang/ember/intrinsic"
)

func main() {
	dumpAST := flag.Bool("dump-ast", false, "print the resolved top-level declarations")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: emberc [-dump-ast] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	gctx := ember.NewGlobalContext()
	unit, sink := ember.CompileFile(path, gctx)
	printDiagnostics(sink)

	if unit != nil && *dumpAST {
		dumpUnit(unit)
	}
	if sink.HasErrors() {
		os.Exit(1)
	}
}

func printDiagnostics(sink *diag.Sink) {
	for _, d := range sink.Diagnostics() {
		sev := "error"
		if d.Severity == diag.SeverityWarning {
			sev = "warning"
		}
		fmt.Fprintf(os.Stderr, "%s: %s [%s]: %s\n", d.PrimarySpan, sev, d.Kind, d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(os.Stderr, "  note: %s: %s\n", n.Span, n.Message)
		}
	}
}

func dumpUnit(unit *ember.TypedUnit) {
	p := ast.NewPrinter()
	for _, s := range unit.Structs {
		p.PrintDecl(s)
	}
	for _, e := range unit.Enums {
		p.PrintDecl(e)
	}
	for _, g := range unit.Globals {
		p.PrintDecl(g)
	}
	for _, f := range unit.Functions {
		p.PrintDecl(f)
	}
	fmt.Print(p.String())
}
