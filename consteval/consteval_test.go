package consteval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/config"
	"github.com/emberlang/ember/consteval"
	"github.com/emberlang/ember/diag"
)

func lit(v ast.Value) ast.Expr {
	return ast.NewUnresolved(ast.SrcTokens{}, 0, ast.LiteralPayload{Value: v})
}

func dynBinary(op string, l, r ast.Expr) ast.Expr {
	return ast.NewDynamic(ast.SrcTokens{}, 0, nil, ast.KindRValue, ast.BinaryOpPayload{Op: op, Left: l, Right: r})
}

func TestGuaranteedFoldsLiteralArithmetic(t *testing.T) {
	sink := diag.NewSink()
	e := dynBinary("+", lit(ast.SInt{V: 3}), lit(ast.SInt{V: 4}))

	v, ok := consteval.Guaranteed(e, sink, config.DefaultTargetProperties())
	require.True(t, ok)
	assert.Equal(t, ast.SInt{V: 7}, v)
	assert.False(t, sink.HasErrors())
}

func TestShiftOutOfRangeWarnsAndFailsToFold(t *testing.T) {
	sink := diag.NewSink()
	e := dynBinary("<<", lit(ast.UInt{V: 3}), lit(ast.UInt{V: 64}))

	v, ok := consteval.Try(e, sink, config.DefaultTargetProperties())
	assert.False(t, ok)
	assert.Nil(t, v)
	require.NotEmpty(t, sink.Diagnostics())
	assert.Equal(t, diag.SeverityWarning, sink.Diagnostics()[0].Severity)
}

func TestExtraParensSuppressTheOverflowWarning(t *testing.T) {
	sink := diag.NewSink()
	inner := dynBinary("<<", lit(ast.UInt{V: 3}), lit(ast.UInt{V: 64}))
	suppressed := bumpParens(inner, 2)

	_, ok := consteval.Try(suppressed, sink, config.DefaultTargetProperties())
	assert.False(t, ok)
	assert.Empty(t, sink.Diagnostics())
}

func bumpParens(e ast.Expr, n int) ast.Expr {
	d := e.(ast.DynamicExpr)
	for i := 0; i < n; i++ {
		d.Paren++
	}
	return d
}

func TestCallDispatchesByFunctionValDeclIdentity(t *testing.T) {
	// This exercises only consteval's own dispatch rule — a CallPayload
	// folds by reading FunctionVal.Decl off its callee and evaluating
	// that body, nothing more. It does not exercise resolve.specialize
	// itself (two distinct *ast.FunctionBody values here stand in for
	// what specialize would have produced); the end-to-end generic
	// specialization path is covered by the ember package's own tests,
	// which run real source through CompileFile.
	sintBody := &ast.FunctionBody{Body: []ast.Stmt{
		ast.NewReturnStmt(ast.SrcTokens{}, lit(ast.SInt{V: 100})),
	}}
	uintBody := &ast.FunctionBody{Body: []ast.Stmt{
		ast.NewReturnStmt(ast.SrcTokens{}, lit(ast.UInt{V: 200})),
	}}

	sink := diag.NewSink()
	target := config.DefaultTargetProperties()

	callSInt := callOf(sintBody)
	v1, ok := consteval.Guaranteed(callSInt, sink, target)
	require.True(t, ok)
	assert.Equal(t, ast.SInt{V: 100}, v1)

	callUInt := callOf(uintBody)
	v2, ok := consteval.Guaranteed(callUInt, sink, target)
	require.True(t, ok)
	assert.Equal(t, ast.UInt{V: 200}, v2)
}

func callOf(fn *ast.FunctionBody) ast.Expr {
	callee := ast.NewConstant(ast.SrcTokens{}, 0, nil, ast.KindFunctionName, nil, ast.FunctionVal{Decl: fn})
	return ast.NewDynamic(ast.SrcTokens{}, 0, nil, ast.KindRValue, ast.CallPayload{Callee: callee})
}

func TestStaticAssertFailureIsReportedWithMessage(t *testing.T) {
	sink := diag.NewSink()
	body := []ast.Stmt{
		ast.NewStaticAssertStmt(ast.SrcTokens{}, lit(ast.Bool{V: false}), lit(ast.Str{V: "must not happen"})),
	}
	fn := &ast.FunctionBody{Body: body}

	_, ok := consteval.Guaranteed(callOf(fn), sink, config.DefaultTargetProperties())
	assert.False(t, ok)

	var found *diag.Diagnostic
	for i, d := range sink.Diagnostics() {
		if d.Kind == diag.StaticAssertFailure {
			found = &sink.Diagnostics()[i]
		}
	}
	require.NotNil(t, found)
	assert.Contains(t, found.Message, "must not happen")
}

func TestOutOfBoundsSubscriptWarnsAndFailsToFold(t *testing.T) {
	sink := diag.NewSink()
	arr := lit(ast.Array{Elems: []ast.Value{ast.SInt{V: 1}, ast.SInt{V: 2}}})
	e := ast.NewDynamic(ast.SrcTokens{}, 0, nil, ast.KindLValue, ast.SubscriptPayload{Base: arr, Index: lit(ast.SInt{V: 5})})

	v, ok := consteval.Try(e, sink, config.DefaultTargetProperties())
	assert.False(t, ok)
	assert.Nil(t, v)
	require.NotEmpty(t, sink.Diagnostics())
	assert.Equal(t, diag.SeverityWarning, sink.Diagnostics()[0].Severity)
}

func TestTryWithoutErrorNeverReportsDiagnostics(t *testing.T) {
	target := config.DefaultTargetProperties()
	e := dynBinary("<<", lit(ast.UInt{V: 1}), lit(ast.UInt{V: 64}))

	v, ok := consteval.TryWithoutError(e, target)
	assert.False(t, ok)
	assert.Nil(t, v)
}
