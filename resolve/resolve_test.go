package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/diag"
	"github.com/emberlang/ember/resolve"
)

func TestResolveDeclAllIsIdempotent(t *testing.T) {
	arena := ast.NewArena()
	sink := diag.NewSink()
	r := resolve.NewResolver(arena, sink)

	fd := ast.NewFuncDecl(arena, ast.SrcTokens{}, "f", &ast.FunctionBody{})
	r.ResolveDeclAll(fd)
	assert.Equal(t, ast.StateAll, fd.State())

	r.ResolveDeclAll(fd)
	assert.Equal(t, ast.StateAll, fd.State())
	assert.False(t, sink.HasErrors())
}

func TestResolveDeclAssignsMangledSymbolName(t *testing.T) {
	arena := ast.NewArena()
	sink := diag.NewSink()
	r := resolve.NewResolver(arena, sink)

	fd := ast.NewFuncDecl(arena, ast.SrcTokens{}, "add", &ast.FunctionBody{})
	r.ResolveDeclSymbol(fd)
	assert.NotEmpty(t, fd.Body.SymbolName)
}

func TestApplyAttributeExtern(t *testing.T) {
	arena := ast.NewArena()
	sink := diag.NewSink()
	r := resolve.NewResolver(arena, sink)

	fd := ast.NewFuncDecl(arena, ast.SrcTokens{}, "printf", &ast.FunctionBody{})
	r.ApplyAttribute(fd, "extern", nil)
	assert.True(t, fd.Body.Flags.Has(ast.FlagExternalLinkage))
	assert.False(t, sink.HasErrors())
}

func TestApplyAttributeUnknownReportsError(t *testing.T) {
	arena := ast.NewArena()
	sink := diag.NewSink()
	r := resolve.NewResolver(arena, sink)

	fd := ast.NewFuncDecl(arena, ast.SrcTokens{}, "f", &ast.FunctionBody{})
	r.ApplyAttribute(fd, "not_a_real_attribute", nil)
	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.AttributeError, sink.Diagnostics()[0].Kind)
}

func TestResolveDeclParametersThenSymbolThenAllIsMonotonic(t *testing.T) {
	arena := ast.NewArena()
	sink := diag.NewSink()
	r := resolve.NewResolver(arena, sink)

	vd := ast.NewVarDecl(arena, ast.SrcTokens{}, "x", nil, nil)
	r.ResolveDeclParameters(vd)
	assert.Equal(t, ast.StateParameters, vd.State())
	r.ResolveDeclSymbol(vd)
	assert.GreaterOrEqual(t, int(vd.State()), int(ast.StateSymbol))
}
