package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareLocalNumbersSequentially(t *testing.T) {
	fn := &Function{Name: "f"}
	a := fn.DeclareLocal()
	b := fn.DeclareLocal()
	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(1), b)
	require.Len(t, fn.Locals, 2)
	assert.Equal(t, a, fn.LocalAt(a).SSA)
	assert.Equal(t, b, fn.LocalAt(b).SSA)
}

func TestDeclareArgumentAppearsInFormalArgumentsAndLocals(t *testing.T) {
	fn := &Function{Name: "f"}
	arg := fn.DeclareArgument("x", nil)
	require.Len(t, fn.FormalArguments, 1)
	assert.Same(t, arg, fn.FormalArguments[0])
	assert.Same(t, arg, fn.LocalAt(arg.SSA))
	assert.True(t, arg.HasName)
	assert.Equal(t, "x", arg.Name)
}

func TestAppendGrowsBlockInProgramOrder(t *testing.T) {
	fn := &Function{Name: "f"}
	r := fn.DeclareLocal()
	fn.Append(Instruction{Op: LOAD, A: SSA(r), B: Immediate(ImmI32, 1)})
	fn.Append(Instruction{Op: RETURN, B: SSA(r)})
	require.Len(t, fn.Block.Instructions, 2)
	assert.Equal(t, LOAD, fn.Block.Instructions[0].Op)
	assert.Equal(t, RETURN, fn.Block.Instructions[1].Op)
}

func TestOperandConstructorsTagTheRightKind(t *testing.T) {
	assert.Equal(t, KindSSA, SSA(3).Kind)
	assert.True(t, SSA(3).IsSSA())
	assert.Equal(t, KindConstant, ConstantRef(1).Kind)
	assert.Equal(t, KindLabel, LabelRef(2).Kind)
	assert.Equal(t, KindImmediate, Immediate(ImmI32, 5).Kind)
	assert.False(t, NoOperand.IsSSA())
	assert.Equal(t, KindNone, NoOperand.Kind)
}

func TestImmediateKindTypeMapsToScalarSingleton(t *testing.T) {
	assert.Same(t, ImmI32.Type(), ImmI32.Type())
	assert.NotSame(t, ImmI32.Type(), ImmI64.Type())
	assert.Equal(t, true, ImmBool.Type().IsScalar())
}

func TestFitsImmediateKindBoundaries(t *testing.T) {
	cases := []struct {
		kind ImmediateKind
		v    int64
		want bool
	}{
		{ImmI8, 127, true}, {ImmI8, 128, false}, {ImmI8, -128, true}, {ImmI8, -129, false},
		{ImmU8, 255, true}, {ImmU8, 256, false}, {ImmU8, -1, false},
		{ImmI16, 32767, true}, {ImmI16, 32768, false},
		{ImmU16, 65535, true}, {ImmU16, 65536, false},
		{ImmI32, 2147483647, true}, {ImmI32, 2147483648, false},
		{ImmU32, 4294967295, true}, {ImmU32, 4294967296, false},
		{ImmI64, 1 << 62, true},
		{ImmBool, 0, true}, {ImmBool, 1, true}, {ImmBool, 2, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FitsImmediateKind(c.kind, c.v), "kind=%v v=%d", c.kind, c.v)
	}
}
