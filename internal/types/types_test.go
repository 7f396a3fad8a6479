package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarSingletons(t *testing.T) {
	assert.Same(t, I32Type(), I32Type())
	assert.NotSame(t, I32Type(), I64Type())
	assert.True(t, I32Type().IsScalar())
	assert.True(t, I32Type().IsSigned())
	assert.True(t, U32Type().IsInteger())
	assert.False(t, U32Type().IsSigned())
	assert.False(t, BoolType().IsInteger())
}

func TestInternerTupleDedup(t *testing.T) {
	var in Interner
	a := in.Tuple([]*Type{I32Type(), BoolType()})
	b := in.Tuple([]*Type{I32Type(), BoolType()})
	require.Same(t, a, b, "structurally equal tuples must share one address")

	c := in.Tuple([]*Type{BoolType(), I32Type()})
	assert.NotSame(t, a, c, "element order matters")
}

func TestInternerFunctionDedup(t *testing.T) {
	var in Interner
	args := in.Tuple([]*Type{I32Type()})
	f1 := in.Function(I32Type(), args)
	f2 := in.Function(I32Type(), args)
	assert.Same(t, f1, f2)

	f3 := in.Function(BoolType(), args)
	assert.NotSame(t, f1, f3)
}

func TestTupleInternerDefensiveCopy(t *testing.T) {
	var in Interner
	elems := []*Type{I32Type(), I64Type()}
	tup := in.Tuple(elems)
	elems[0] = BoolType()
	assert.Equal(t, I32Type(), tup.Elems()[0], "mutating the caller's slice must not corrupt the interned type")
}

func TestSizeOfAndAlignOf(t *testing.T) {
	assert.Equal(t, 4, SizeOf(I32Type()))
	assert.Equal(t, 1, SizeOf(BoolType()))
	assert.Equal(t, 4, AlignOf(I32Type()))

	var in Interner
	tup := in.Tuple([]*Type{I8Type(), I64Type()})
	assert.Equal(t, 9, SizeOf(tup), "SizeOf is a bare sum, padding is internal/layout's job")
}
