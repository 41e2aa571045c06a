package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/scope"
)

func TestLookupVarShadowing(t *testing.T) {
	arena := ast.NewArena()
	global := scope.NewGlobalScope()
	outer := global.PushLocal()
	inner := outer.PushLocal()

	outerVar := ast.NewVarDecl(arena, ast.SrcTokens{}, "x", nil, nil)
	innerVar := ast.NewVarDecl(arena, ast.SrcTokens{}, "x", nil, nil)
	outer.Decls.AddVar(outerVar)
	inner.Decls.AddVar(innerVar)

	got, ok := inner.LookupVar("x")
	require.True(t, ok)
	assert.Same(t, innerVar, got)

	got, ok = outer.LookupVar("x")
	require.True(t, ok)
	assert.Same(t, outerVar, got)
}

func TestLookupVarMissing(t *testing.T) {
	global := scope.NewGlobalScope()
	_, ok := global.LookupVar("missing")
	assert.False(t, ok)
}

func TestLookupFuncSetCollectsAllScopes(t *testing.T) {
	arena := ast.NewArena()
	global := scope.NewGlobalScope()
	local := global.PushLocal()

	f1 := ast.NewFuncDecl(arena, ast.SrcTokens{}, "f", &ast.FunctionBody{})
	f2 := ast.NewFuncDecl(arena, ast.SrcTokens{}, "f", &ast.FunctionBody{})
	global.Decls.AddFunc(f1)
	local.Decls.AddFunc(f2)

	set := local.LookupFuncSet("f")
	assert.Len(t, set, 2)
}

func TestImportSplicesOnlyExported(t *testing.T) {
	arena := ast.NewArena()
	global := scope.NewGlobalScope()
	fileA := global.NewFileScope("./a.ember")
	fileB := global.NewFileScope("./b.ember")

	exported := &ast.FunctionBody{Flags: ast.FlagExport}
	private := &ast.FunctionBody{}
	fExported := ast.NewFuncDecl(arena, ast.SrcTokens{}, "pub", exported)
	fPrivate := ast.NewFuncDecl(arena, ast.SrcTokens{}, "priv", private)
	fileA.Decls.AddFunc(fExported)
	fileA.Decls.AddFunc(fPrivate)

	scope.Import(fileB, fileA)

	assert.Contains(t, fileB.Decls.FuncSets, "pub")
	assert.NotContains(t, fileB.Decls.FuncSets, "priv")
}

func TestImportGraphDetectsCycle(t *testing.T) {
	g := scope.NewImportGraph()
	require.True(t, g.AddEdge("./a.ember", "./b.ember"))
	require.True(t, g.AddEdge("./b.ember", "./c.ember"))
	assert.False(t, g.AddEdge("./c.ember", "./a.ember"))
}

func TestInMemoryImportLoaderRoundTrip(t *testing.T) {
	loader := scope.NewInMemoryImportLoader()
	loader.Add("./b.ember", []byte("let x = 1;"))

	path, err := loader.GetPath("./b.ember", "./a.ember")
	require.NoError(t, err)
	assert.Equal(t, "b.ember", path)

	content, err := loader.GetContent(path)
	require.NoError(t, err)
	assert.Equal(t, "let x = 1;", string(content))
}

func TestFileImportLoaderRejectsNonRelativePath(t *testing.T) {
	loader := scope.NewFileImportLoader()
	_, err := loader.GetPath("b.ember", "./a.ember")
	assert.Error(t, err)
}
