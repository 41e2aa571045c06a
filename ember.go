// Package ember is the driver-facing entry point of the core (spec.md
// §6): CompileFile wires together the lexer, parser, resolver, and
// consteval engine into the single get_diagnostics/typed-output
// surface a back end actually calls.
//
// Grounded in the teacher's api.go/api_internal.go split: a thin
// public function (Parse there, CompileFile here) that builds the
// stateful pieces (BaseParser there, Arena/Resolver/Scope here) and
// hands back an immutable result plus a diagnostics sink, never a
// package-level singleton.
package ember

import (
	"os"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/config"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/lexer"
	"github.com/emberlang/ember/parse"
	"github.com/emberlang/ember/resolve"
	"github.com/emberlang/ember/scope"
	"github.com/emberlang/ember/srcmap"
)

// GlobalContext owns everything shared across every file compiled
// together: the source map, the global scope import graph splices
// into, the declaration arena, and the target properties integer
// literals and comptime memory are laid out against (spec.md §6
// set_target_properties).
type GlobalContext struct {
	Files       *srcmap.Files
	Arena       *ast.Arena
	GlobalScope *scope.Scope
	Imports     *scope.ImportGraph
	Loader      scope.ImportLoader
	Target      config.TargetProperties

	importPaths map[string]string // logical import name -> resolved path
}

// NewGlobalContext builds a fresh, empty compilation session.
func NewGlobalContext() *GlobalContext {
	return &GlobalContext{
		Files:       srcmap.NewFiles(),
		Arena:       ast.NewArena(),
		GlobalScope: scope.NewGlobalScope(),
		Imports:     scope.NewImportGraph(),
		Loader:      scope.NewFileImportLoader(),
		Target:      config.DefaultTargetProperties(),
		importPaths: map[string]string{},
	}
}

// AddImport records name as resolving to path (spec.md §6
// add_import). CompileFile does not consult these mappings: an
// `import` declaration in a compiled file contributes no symbols.
func (g *GlobalContext) AddImport(name, path string) {
	g.importPaths[name] = path
}

// SetTargetProperties overrides the pointer width and endianness
// stored in g.Target (spec.md §6 set_target_properties). CompileFile
// does not read Target.
func (g *GlobalContext) SetTargetProperties(p config.TargetProperties) {
	g.Target = p
}

// TypedUnit is the fully resolved output of one CompileFile call:
// every top-level declaration the compiled file and its imports
// contributed, split by kind for a back end's convenience (spec.md §6
// "a typed, resolved program unit ready for lowering").
type TypedUnit struct {
	Structs   []*ast.StructDecl
	Enums     []*ast.EnumDecl
	Aliases   []*ast.TypeAliasDecl
	Globals   []*ast.VarDecl
	Functions []*ast.FuncDecl
	Operators []*ast.OperatorDecl
}

// CompileFile reads path, lexes, parses, resolves, and returns the
// resulting TypedUnit alongside every diagnostic collected along the
// way (spec.md §6). A non-nil TypedUnit may still carry errors in the
// returned Sink — callers decide whether partial output is usable,
// the core never refuses to return one.
func CompileFile(path string, gctx *GlobalContext) (*TypedUnit, *diag.Sink) {
	sink := diag.NewSink()
	content, err := os.ReadFile(path)
	if err != nil {
		sink.Error(diag.LexError, srcmap.Span{}, "cannot read %s: %s", path, err)
		return nil, sink
	}

	fileID := gctx.Files.Intern(path, content)
	lx := lexer.New(gctx.Files, path, content)
	tokens := lx.Tokenize()
	for _, le := range lx.Errors() {
		sink.Error(diag.LexError, le.Span, "%s", le.Message)
	}

	p := parse.New(gctx.Arena, gctx.Files, fileID, tokens, sink)
	decls := p.ParseFile()

	fileScope := gctx.GlobalScope.NewFileScope(path)
	bindDecls(fileScope, decls)

	r := resolve.NewResolver(gctx.Arena, sink)
	r.SetGlobalScope(fileScope)
	r.ResolveAll()

	return unitFromScope(fileScope), sink
}

// bindDecls splices path's top-level declarations into sc's DeclSet
// by concrete kind, the step scope.Import performs for an imported
// file's exported subset (spec.md §4.S).
func bindDecls(sc *scope.Scope, decls []ast.Decl) {
	for _, d := range decls {
		switch v := d.(type) {
		case *ast.VarDecl:
			sc.Decls.AddVar(v)
		case *ast.FuncDecl:
			sc.Decls.AddFunc(v)
		case *ast.OperatorDecl:
			sc.Decls.AddOp(v)
		case *ast.StructDecl, *ast.EnumDecl, *ast.TypeAliasDecl:
			sc.Decls.AddType(v)
		case *ast.ImportDecl:
			// Import resolution itself is a driver-facing concern
			// (GlobalContext.AddImport); the declaration is kept in
			// the arena for diagnostics but contributes no symbols of
			// its own to sc.
		}
	}
}

func unitFromScope(sc *scope.Scope) *TypedUnit {
	u := &TypedUnit{}
	for _, v := range sc.Decls.VarDecls {
		u.Globals = append(u.Globals, v)
	}
	for _, fs := range sc.Decls.FuncSets {
		u.Functions = append(u.Functions, fs...)
	}
	for _, ops := range sc.Decls.OpSets {
		u.Operators = append(u.Operators, ops...)
	}
	for _, t := range sc.Decls.Types {
		switch v := t.(type) {
		case *ast.StructDecl:
			u.Structs = append(u.Structs, v)
		case *ast.EnumDecl:
			u.Enums = append(u.Enums, v)
		case *ast.TypeAliasDecl:
			u.Aliases = append(u.Aliases, v)
		}
	}
	return u
}

// GetDiagnostics is a thin convenience wrapper matching spec.md §6's
// named entry point; CompileFile already returns the same Sink, kept
// here only so a driver written against the spec's literal naming
// finds it without reading CompileFile's doc comment.
func GetDiagnostics(sink *diag.Sink) []diag.Diagnostic {
	return sink.Diagnostics()
}
