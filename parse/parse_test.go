package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/lexer"
	"github.com/emberlang/ember/parse"
	"github.com/emberlang/ember/srcmap"
)

func parseSource(t *testing.T, src string) ([]ast.Decl, *diag.Sink) {
	t.Helper()
	files := srcmap.NewFiles()
	fid := files.Intern("test.ember", []byte(src))
	lx := lexer.New(files, "test.ember", []byte(src))
	toks := lx.Tokenize()
	require.Empty(t, lx.Errors())
	sink := diag.NewSink()
	arena := ast.NewArena()
	p := parse.New(arena, files, fid, toks, sink)
	return p.ParseFile(), sink
}

func asFunc(t *testing.T, d ast.Decl) *ast.FuncDecl {
	t.Helper()
	fd, ok := d.(*ast.FuncDecl)
	require.True(t, ok, "expected *ast.FuncDecl, got %T", d)
	return fd
}

func TestParsesBinaryPrecedence(t *testing.T) {
	decls, sink := parseSource(t, `
function f() -> auto {
	return 1 + 2 * 3;
}
`)
	require.False(t, sink.HasErrors())
	require.Len(t, decls, 1)
	fd := asFunc(t, decls[0])
	require.Len(t, fd.Body.Body, 1)
	ret, ok := fd.Body.Body[0].(ast.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(ast.UnresolvedExpr)
	require.True(t, ok)
	add, ok := bin.Payload.(ast.BinaryOpPayload)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)

	rhs, ok := add.Right.(ast.UnresolvedExpr)
	require.True(t, ok)
	mul, ok := rhs.Payload.(ast.BinaryOpPayload)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op, "multiplication must bind tighter than addition")
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	decls, sink := parseSource(t, `
function f() -> auto {
	return a = b = c;
}
`)
	require.False(t, sink.HasErrors())
	fd := asFunc(t, decls[0])
	ret := fd.Body.Body[0].(ast.ReturnStmt)
	outer := ret.Value.(ast.UnresolvedExpr).Payload.(ast.BinaryOpPayload)
	assert.Equal(t, "=", outer.Op)

	// a = (b = c): the left side of the outer `=` must be the bare
	// identifier `a`, not another assignment.
	left, ok := outer.Left.(ast.UnresolvedExpr)
	require.True(t, ok)
	_, leftIsIdent := left.Payload.(ast.IdentifierPayload)
	assert.True(t, leftIsIdent)

	right, ok := outer.Right.(ast.UnresolvedExpr)
	require.True(t, ok)
	inner, ok := right.Payload.(ast.BinaryOpPayload)
	require.True(t, ok)
	assert.Equal(t, "=", inner.Op)
}

func TestCallArgumentsDoNotConsumeTopLevelComma(t *testing.T) {
	decls, sink := parseSource(t, `
function f() -> auto {
	return g(1, 2, 3);
}
`)
	require.False(t, sink.HasErrors())
	fd := asFunc(t, decls[0])
	ret := fd.Body.Body[0].(ast.ReturnStmt)
	call := ret.Value.(ast.UnresolvedExpr).Payload.(ast.CallPayload)
	assert.Len(t, call.Args, 3)
}

func TestParenthesizedCommaExpression(t *testing.T) {
	decls, sink := parseSource(t, `
function f() -> auto {
	return (1, 2);
}
`)
	require.False(t, sink.HasErrors())
	fd := asFunc(t, decls[0])
	ret := fd.Body.Body[0].(ast.ReturnStmt)
	inner := ret.Value.(ast.UnresolvedExpr)
	comma, ok := inner.Payload.(ast.BinaryOpPayload)
	require.True(t, ok, "expected a comma expression inside the parens")
	assert.Equal(t, ",", comma.Op)
}

func TestMemberAndCallPostfixChain(t *testing.T) {
	decls, sink := parseSource(t, `
function f() -> auto {
	return a.b(1).c;
}
`)
	require.False(t, sink.HasErrors())
	fd := asFunc(t, decls[0])
	ret := fd.Body.Body[0].(ast.ReturnStmt)
	outer := ret.Value.(ast.UnresolvedExpr).Payload.(ast.MemberAccessPayload)
	assert.Equal(t, "c", outer.Member)

	call := outer.Base.(ast.UnresolvedExpr).Payload.(ast.CallPayload)
	assert.Len(t, call.Args, 1)

	callee := call.Callee.(ast.UnresolvedExpr).Payload.(ast.MemberAccessPayload)
	assert.Equal(t, "b", callee.Member)
}

func TestForeachDesugarsAtResolveTimeLeavesParseNodeIntact(t *testing.T) {
	decls, sink := parseSource(t, `
function f() -> auto {
	foreach (x in xs) {
		return x;
	}
}
`)
	require.False(t, sink.HasErrors())
	fd := asFunc(t, decls[0])
	fe, ok := fd.Body.Body[0].(ast.ForeachStmt)
	require.True(t, ok)
	assert.Equal(t, "x", fe.Var)
}

func TestWhileAndIfParse(t *testing.T) {
	decls, sink := parseSource(t, `
function f() -> auto {
	while (x < 10) {
		x = x + 1;
	}
	return if (x == 10) 1 else 0;
}
`)
	require.False(t, sink.HasErrors())
	fd := asFunc(t, decls[0])
	require.Len(t, fd.Body.Body, 2)
	_, ok := fd.Body.Body[0].(ast.WhileStmt)
	assert.True(t, ok)
	ret := fd.Body.Body[1].(ast.ReturnStmt)
	ifExpr, ok := ret.Value.(ast.UnresolvedExpr).Payload.(ast.IfPayload)
	require.True(t, ok)
	assert.NotNil(t, ifExpr.Else)
}

func TestStructAndEnumTopLevelDecls(t *testing.T) {
	decls, sink := parseSource(t, `
struct Point {
	x: i32;
	y: i32;
}

enum Color: i32 {
	Red = 0,
	Green,
	Blue,
}
`)
	require.False(t, sink.HasErrors())
	require.Len(t, decls, 2)

	sd, ok := decls[0].(*ast.StructDecl)
	require.True(t, ok)
	assert.Len(t, sd.Info.Members, 2)

	ed, ok := decls[1].(*ast.EnumDecl)
	require.True(t, ok)
	assert.Len(t, ed.Members, 3)
}

func TestStaticAssertStatement(t *testing.T) {
	decls, sink := parseSource(t, `
function f() -> auto {
	static_assert(1 == 1, "always true");
}
`)
	require.False(t, sink.HasErrors())
	fd := asFunc(t, decls[0])
	sa, ok := fd.Body.Body[0].(ast.StaticAssertStmt)
	require.True(t, ok)
	assert.NotNil(t, sa.Message)
}

func TestParseErrorRecoversAndReportsDiagnostic(t *testing.T) {
	decls, sink := parseSource(t, `
function f() -> auto {
	return +;
}

function g() -> auto {
	return 1;
}
`)
	assert.True(t, sink.HasErrors())
	require.Len(t, decls, 2)
	asFunc(t, decls[1])
}
