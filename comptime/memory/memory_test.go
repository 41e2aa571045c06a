package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/ast"
	"github.com/emberlang/ember/comptime/memory"
	"github.com/emberlang/ember/config"
)

func i32Type() *ast.TypeSpec {
	return &ast.TypeSpec{Terminator: ast.BaseType{Info: &ast.TypeInfo{Name: "i32"}}}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	m := memory.NewManager(config.DefaultTargetProperties())
	addr := m.Alloc(memory.SegStack, i32Type(), 8, 1)

	require.NoError(t, m.Store(addr, i32Type(), ast.SInt{V: 42}))
	v, err := m.Load(addr, i32Type())
	require.NoError(t, err)
	assert.Equal(t, ast.SInt{V: 42}, v)
}

func TestUseAfterFreeIsRejected(t *testing.T) {
	m := memory.NewManager(config.DefaultTargetProperties())
	addr := m.Alloc(memory.SegHeap, i32Type(), 8, 0)
	require.NoError(t, m.Store(addr, i32Type(), ast.SInt{V: 1}))

	assert.Equal(t, memory.FreeGood, m.Free(addr))
	_, err := m.Load(addr, i32Type())
	assert.Error(t, err)
}

func TestDoubleFreeIsDetectedWithoutErasingTheRecord(t *testing.T) {
	m := memory.NewManager(config.DefaultTargetProperties())
	addr := m.Alloc(memory.SegHeap, i32Type(), 8, 0)

	require.Equal(t, memory.FreeGood, m.Free(addr))
	assert.Equal(t, memory.FreeDoubleFree, m.Free(addr))
}

func TestFreeOfAddressInsideObjectIsDistinguished(t *testing.T) {
	m := memory.NewManager(config.DefaultTargetProperties())
	addr := m.Alloc(memory.SegHeap, i32Type(), 16, 0)
	inner, err := m.DoPointerArithmetic(addr, 8, i32Type())
	require.NoError(t, err)

	assert.Equal(t, memory.FreeAddressInsideObject, m.Free(inner))
}

func TestPointerDifferenceRequiresSharedProvenance(t *testing.T) {
	m := memory.NewManager(config.DefaultTargetProperties())
	a := m.Alloc(memory.SegStack, i32Type(), 16, 1)
	b := m.Alloc(memory.SegStack, i32Type(), 16, 1)

	aInner, err := m.DoPointerArithmetic(a, 8, i32Type())
	require.NoError(t, err)
	diff, err := m.DoPointerDifference(aInner, a)
	require.NoError(t, err)
	assert.Equal(t, int64(8), diff)

	_, err = m.DoPointerDifference(a, b)
	assert.Error(t, err, "pointer difference across distinct objects must be refused")
}

func TestPointerArithmeticStaysWithinObjectBounds(t *testing.T) {
	m := memory.NewManager(config.DefaultTargetProperties())
	addr := m.Alloc(memory.SegStack, i32Type(), 8, 1)

	onePastEnd, err := m.DoPointerArithmetic(addr, 8, i32Type())
	require.NoError(t, err)
	assert.True(t, onePastEnd.OnePastEnd)

	_, err = m.DoPointerArithmetic(addr, 9, i32Type())
	assert.Error(t, err)
}

func TestPopFrameRewritesEscapingStackAddressesToMeta(t *testing.T) {
	m := memory.NewManager(config.DefaultTargetProperties())
	addr := m.Alloc(memory.SegStack, i32Type(), 8, 1)

	m.PopFrame(1)
	_, err := m.Load(addr, i32Type())
	assert.Error(t, err, "a stack object must not be readable once its frame has popped")
}
