// Package ast is the AST & Type Model component (spec.md §2 A, §3):
// typed sum types for expressions, statements, typespecs, and
// declarations.
//
// Every sum type here is modeled as a closed Go interface with an
// unexported marker method and one concrete struct per case —
// "variant / tagged-union AST... avoid virtual dispatch... downcasts
// are match-with-exhaustive-cases" (spec.md §9) — the same shape the
// teacher uses for its Value/AstNode interfaces in value.go and
// grammar_ast.go, generalized from a PEG grammar's node set to a
// typed-language's expression/statement/declaration set.
package ast

import "github.com/emberlang/ember/srcmap"

// SrcTokens anchors every expression to the token range it was
// parsed from, plus the "pivot" token (the operator or keyword that
// identifies the expression's shape) used in diagnostics (spec.md
// §3 Expression).
type SrcTokens struct {
	Begin srcmap.Location
	Pivot srcmap.Location
	End   srcmap.Location
}

func (s SrcTokens) Span() srcmap.Span { return srcmap.Span{Start: s.Begin, End: s.End} }

// Node is the common supertype every AST node embeds. It carries only
// the node's source anchor; there is no Accept method, and Visitor
// tree walks dispatch through the WalkExpr/WalkStmt type switches in
// visitor.go instead.
type Node interface {
	Tokens() SrcTokens
}

// NodeBase is embedded by every concrete node to provide Tokens().
type NodeBase struct {
	Src SrcTokens
}

func (n NodeBase) Tokens() SrcTokens { return n.Src }
