package ember_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember"
	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/config"
	"github.com/emberlang/ember/consteval"
	"github.com/emberlang/ember/diag"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.ember")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func funcByName(fns []*ast.FuncDecl, name string) *ast.FuncDecl {
	for _, f := range fns {
		if f.DeclName() == name {
			return f
		}
	}
	return nil
}

func returnValue(fd *ast.FuncDecl) ast.Expr {
	for _, s := range fd.Body.Body {
		if rs, ok := s.(ast.ReturnStmt); ok {
			return rs.Value
		}
	}
	return nil
}

func TestCompileFileResolvesCallsAcrossTopLevelFunctions(t *testing.T) {
	path := writeSource(t, `
function double(x: i32) -> auto {
	return x * 2;
}

function run() -> auto {
	let y = double(21);
	return y;
}
`)
	gctx := ember.NewGlobalContext()
	unit, sink := ember.CompileFile(path, gctx)
	require.NotNil(t, unit)
	assert.False(t, sink.HasErrors(), "unexpected diagnostics: %v", sink.Diagnostics())
	require.Len(t, unit.Functions, 2)
}

func TestCompileFileReportsUnreadableFile(t *testing.T) {
	gctx := ember.NewGlobalContext()
	unit, sink := ember.CompileFile(filepath.Join(t.TempDir(), "missing.ember"), gctx)
	assert.Nil(t, unit)
	assert.True(t, sink.HasErrors())
}

func TestCompileFileCollectsGlobalsAndFunctions(t *testing.T) {
	path := writeSource(t, `
let counter = 0;

function bump() -> auto {
	return counter + 1;
}
`)
	gctx := ember.NewGlobalContext()
	unit, sink := ember.CompileFile(path, gctx)
	require.NotNil(t, unit)
	assert.False(t, sink.HasErrors(), "unexpected diagnostics: %v", sink.Diagnostics())
	require.Len(t, unit.Globals, 1)
	require.Len(t, unit.Functions, 1)
	assert.Equal(t, "counter", unit.Globals[0].DeclName())
	assert.Equal(t, "bump", unit.Functions[0].DeclName())
}

func TestGetDiagnosticsMatchesSinkFromCompileFile(t *testing.T) {
	path := writeSource(t, `
function f() -> auto {
	return 1;
}
`)
	gctx := ember.NewGlobalContext()
	_, sink := ember.CompileFile(path, gctx)
	assert.Equal(t, sink.Diagnostics(), ember.GetDiagnostics(sink))
}

// The five tests below each drive one of the concrete literal
// in/out scenarios end to end: real source text, through
// ember.CompileFile's lex/parse/resolve pipeline, with consteval
// invoked afterward where the scenario needs folding CompileFile
// itself doesn't trigger automatically.

func TestScenarioLiteralFoldingEndToEnd(t *testing.T) {
	path := writeSource(t, `
let x = 3 + 4;
`)
	gctx := ember.NewGlobalContext()
	unit, sink := ember.CompileFile(path, gctx)
	require.NotNil(t, unit)
	assert.False(t, sink.HasErrors(), "unexpected diagnostics: %v", sink.Diagnostics())
	require.Len(t, unit.Globals, 1)

	v, ok := ast.GetConstantValue(unit.Globals[0].Init)
	require.True(t, ok, "3 + 4 did not resolve to a constant")
	assert.Equal(t, ast.SInt{V: 7}, v)
}

func TestScenarioShiftOverflowEndToEnd(t *testing.T) {
	path := writeSource(t, `
function f() -> auto {
	return 3u32 << 32;
}
`)
	gctx := ember.NewGlobalContext()
	unit, sink := ember.CompileFile(path, gctx)
	require.NotNil(t, unit)
	assert.False(t, sink.HasErrors(), "unexpected diagnostics: %v", sink.Diagnostics())

	fd := funcByName(unit.Functions, "f")
	require.NotNil(t, fd)
	ret := returnValue(fd)
	require.NotNil(t, ret)

	evalSink := diag.NewSink()
	v, ok := consteval.Try(ret, evalSink, config.DefaultTargetProperties())
	assert.False(t, ok)
	assert.Nil(t, v)
	require.NotEmpty(t, evalSink.Diagnostics())
	assert.Equal(t, diag.SeverityWarning, evalSink.Diagnostics()[0].Severity)
}

func TestScenarioParenthesesSuppressOverflowWarningEndToEnd(t *testing.T) {
	path := writeSource(t, `
function f() -> auto {
	return ((3u32 << 32));
}
`)
	gctx := ember.NewGlobalContext()
	unit, sink := ember.CompileFile(path, gctx)
	require.NotNil(t, unit)
	assert.False(t, sink.HasErrors(), "unexpected diagnostics: %v", sink.Diagnostics())

	fd := funcByName(unit.Functions, "f")
	require.NotNil(t, fd)
	ret := returnValue(fd)
	require.NotNil(t, ret)

	evalSink := diag.NewSink()
	v, ok := consteval.Try(ret, evalSink, config.DefaultTargetProperties())
	assert.False(t, ok, "an out-of-range shift never folds, parens or not")
	assert.Nil(t, v)
	assert.Empty(t, evalSink.Diagnostics(), "two levels of parens should suppress the warning")
}

func TestScenarioGenericSpecializationEndToEnd(t *testing.T) {
	path := writeSource(t, `
function identity(n: T) -> T {
	return n;
}

function run_sint() -> auto {
	return identity(10i32);
}

function run_uint() -> auto {
	return identity(10u32);
}
`)
	gctx := ember.NewGlobalContext()
	unit, sink := ember.CompileFile(path, gctx)
	require.NotNil(t, unit)
	assert.False(t, sink.HasErrors(), "unexpected diagnostics: %v", sink.Diagnostics())
	require.Len(t, unit.Functions, 3)

	template := funcByName(unit.Functions, "identity")
	require.NotNil(t, template)
	assert.True(t, template.Body.Flags.Has(ast.FlagGeneric), "identity's parameter type T never resolves, so it must be flagged generic")

	sintBody := calleeOf(t, funcByName(unit.Functions, "run_sint"))
	uintBody := calleeOf(t, funcByName(unit.Functions, "run_uint"))

	require.NotNil(t, sintBody)
	require.NotNil(t, uintBody)
	assert.NotSame(t, template.Body, sintBody, "the call must resolve to a specialization, not the generic template itself")
	assert.NotSame(t, sintBody, uintBody, "identity(10i32) and identity(10u32) must produce distinct specializations")
	assert.True(t, sintBody.Flags.Has(ast.FlagGenericSpecialization))
	assert.True(t, uintBody.Flags.Has(ast.FlagGenericSpecialization))
	assert.Len(t, template.Body.GenericSpecializations, 2)

	target := config.DefaultTargetProperties()
	v1, ok := consteval.Guaranteed(returnValue(funcByName(unit.Functions, "run_sint")), sink, target)
	require.True(t, ok)
	assert.Equal(t, ast.SInt{V: 10}, v1)

	v2, ok := consteval.Guaranteed(returnValue(funcByName(unit.Functions, "run_uint")), sink, target)
	require.True(t, ok)
	assert.Equal(t, ast.UInt{V: 10}, v2)
}

func calleeOf(t *testing.T, fd *ast.FuncDecl) *ast.FunctionBody {
	t.Helper()
	call, ok := ast.GetExprPayload(returnValue(fd)).(ast.CallPayload)
	require.True(t, ok)
	v, ok := ast.GetConstantValue(call.Callee)
	require.True(t, ok)
	fv, ok := v.(ast.FunctionVal)
	require.True(t, ok)
	return fv.Decl
}

func TestScenarioStaticAssertFailureEndToEnd(t *testing.T) {
	path := writeSource(t, `
function f() -> auto {
	static_assert(1 + 1 == 3, "math is broken");
	return 0;
}
`)
	gctx := ember.NewGlobalContext()
	unit, sink := ember.CompileFile(path, gctx)
	require.NotNil(t, unit)

	var found *diag.Diagnostic
	for i, d := range sink.Diagnostics() {
		if d.Kind == diag.StaticAssertFailure {
			found = &sink.Diagnostics()[i]
		}
	}
	require.NotNil(t, found, "expected a StaticAssertFailure diagnostic: %v", sink.Diagnostics())
	assert.Contains(t, found.Message, "math is broken")
}

// The sixth scenario (an out-of-bounds subscript into a fixed-size
// array) has no end-to-end source-level equivalent here: the parser
// has no array-literal or array-typespec grammar at all (only
// ast.ModArray/AggregateInitPayload exist as resolver/AST-level
// concepts), so `mut arr: [4: i32] = [1, 2, 3, 4];` cannot be written
// in a .ember file today. consteval.TestOutOfBoundsSubscriptWarnsAndFailsToFold
// covers the fold/diagnostic behavior directly against a hand-built
// ast.Array constant instead.
