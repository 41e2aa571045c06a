package intrinsic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/config"
	"github.com/emberlang/ember/consteval"
	"github.com/emberlang/ember/diag"
	_ "github.com/emberlang/ember/intrinsic"
)

func callIntrinsic(key string, args ...ast.Value) ast.Expr {
	callee := ast.NewConstant(ast.SrcTokens{}, 0, nil, ast.KindFunctionName, nil,
		ast.FunctionVal{Decl: &ast.FunctionBody{IntrinsicKind: key}})
	argExprs := make([]ast.Expr, len(args))
	for i, a := range args {
		argExprs[i] = ast.NewUnresolved(ast.SrcTokens{}, 0, ast.LiteralPayload{Value: a})
	}
	return ast.NewDynamic(ast.SrcTokens{}, 0, nil, ast.KindRValue, ast.CallPayload{Callee: callee, Args: argExprs})
}

func TestAddOvfI32DetectsOverflow(t *testing.T) {
	sink := diag.NewSink()
	v, ok := consteval.Guaranteed(callIntrinsic("add_ovf_i32", ast.SInt{V: math32Max()}, ast.SInt{V: 1}), sink, config.DefaultTargetProperties())
	require.True(t, ok)
	tup, ok := v.(ast.Tuple)
	require.True(t, ok)
	assert.Equal(t, ast.Bool{V: true}, tup.Elems[1])
}

func TestAddOvfI32NoOverflow(t *testing.T) {
	sink := diag.NewSink()
	v, ok := consteval.Guaranteed(callIntrinsic("add_ovf_i32", ast.SInt{V: 1}, ast.SInt{V: 2}), sink, config.DefaultTargetProperties())
	require.True(t, ok)
	tup, ok := v.(ast.Tuple)
	require.True(t, ok)
	assert.Equal(t, ast.SInt{V: 3}, tup.Elems[0])
	assert.Equal(t, ast.Bool{V: false}, tup.Elems[1])
}

func TestComptimeConcatenateStrs(t *testing.T) {
	sink := diag.NewSink()
	v, ok := consteval.Guaranteed(callIntrinsic("comptime_concatenate_strs", ast.Str{V: "foo"}, ast.Str{V: "bar"}), sink, config.DefaultTargetProperties())
	require.True(t, ok)
	assert.Equal(t, ast.Str{V: "foobar"}, v)
}

func TestBuiltinIsComptimeFalseOutsideForcedMode(t *testing.T) {
	sink := diag.NewSink()
	v, ok := consteval.Guaranteed(callIntrinsic("builtin_is_comptime"), sink, config.DefaultTargetProperties())
	require.True(t, ok)
	assert.Equal(t, ast.Bool{V: false}, v)
}

func math32Max() int64 { return 1<<31 - 1 }
