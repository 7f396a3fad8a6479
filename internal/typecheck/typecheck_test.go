package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explang/expc/internal/compileerr"
	"github.com/explang/expc/internal/constpool"
	"github.com/explang/expc/internal/ctx"
	"github.com/explang/expc/internal/ir"
	"github.com/explang/expc/internal/symtab"
	"github.com/explang/expc/internal/types"
)

// defineFunc registers name as a Function symbol and runs build against the
// IR builder API (spec.md §6.1) with that function entered as current.
func defineFunc(c *ctx.Context, name string, build func()) *symtab.Symbol {
	sym := c.SymbolTableAt(name)
	sym.Kind = symtab.Function
	fn := &ir.Function{Name: name}
	sym.Body = fn
	c.EnterFunction(fn)
	build()
	return sym
}

func TestCheckAddProducesI32Function(t *testing.T) {
	c := ctx.New("t.exp", "t.s")
	defineFunc(c, "add", func() {
		a := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.LOAD, A: ir.SSA(a), B: ir.Immediate(ir.ImmI32, 1)})
		b := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.LOAD, A: ir.SSA(b), B: ir.Immediate(ir.ImmI32, 2)})
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.ADD, A: ir.SSA(r), B: ir.SSA(a), C: ir.SSA(b)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	ok := Check(c)
	require.True(t, ok, "errors: %v", c.Errors)
	sym, _ := c.Symbols.Lookup("add")
	require.NotNil(t, sym.Type)
	assert.Equal(t, types.Function, sym.Type.Kind())
	assert.Same(t, types.I32Type(), sym.Type.Result())
}

func TestNegateRequiresI32(t *testing.T) {
	c := ctx.New("t.exp", "t.s")
	defineFunc(c, "bad", func() {
		a := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.LOAD, A: ir.SSA(a), B: ir.Immediate(ir.ImmBool, 1)})
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.NEGATE, A: ir.SSA(r), B: ir.SSA(a)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	ok := Check(c)
	assert.False(t, ok)
	require.Len(t, c.Errors, 1)
	assert.Equal(t, compileerr.TypeMismatch, c.Errors[0].Code)
}

func TestDotOnNonTupleReportsNotIndexable(t *testing.T) {
	c := ctx.New("t.exp", "t.s")
	defineFunc(c, "bad", func() {
		a := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.LOAD, A: ir.SSA(a), B: ir.Immediate(ir.ImmI32, 1)})
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.DOT, A: ir.SSA(r), B: ir.SSA(a), C: ir.Immediate(ir.ImmI32, 0)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	ok := Check(c)
	assert.False(t, ok)
	require.Len(t, c.Errors, 1)
	assert.Equal(t, compileerr.TypeNotIndexable, c.Errors[0].Code)
}

func TestDotIndexOutOfBounds(t *testing.T) {
	c := ctx.New("t.exp", "t.s")
	defineFunc(c, "bad", func() {
		tupleConst := c.ConstantsAppend(constpool.TupleOf([]ir.Operand{
			ir.Immediate(ir.ImmI32, 1),
			ir.Immediate(ir.ImmI32, 2),
		}))
		a := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.LOAD, A: ir.SSA(a), B: ir.ConstantRef(tupleConst)})
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.DOT, A: ir.SSA(r), B: ir.SSA(a), C: ir.Immediate(ir.ImmI32, 5)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	ok := Check(c)
	assert.False(t, ok)
	require.Len(t, c.Errors, 1)
	assert.Equal(t, compileerr.TupleIndexOutOfBounds, c.Errors[0].Code)
}

func TestDotOnConstantTupleSelectsElementType(t *testing.T) {
	c := ctx.New("t.exp", "t.s")
	defineFunc(c, "fst", func() {
		tupleConst := c.ConstantsAppend(constpool.TupleOf([]ir.Operand{
			ir.Immediate(ir.ImmI32, 1),
			ir.Immediate(ir.ImmBool, 0),
		}))
		a := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.LOAD, A: ir.SSA(a), B: ir.ConstantRef(tupleConst)})
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.DOT, A: ir.SSA(r), B: ir.SSA(a), C: ir.Immediate(ir.ImmI32, 1)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	ok := Check(c)
	require.True(t, ok, "errors: %v", c.Errors)
	sym, _ := c.Symbols.Lookup("fst")
	assert.Same(t, types.BoolType(), sym.Type.Result())
}

func TestMutualRecursionReportsUndefinedRatherThanOverflowing(t *testing.T) {
	c := ctx.New("t.exp", "t.s")
	nameA := c.Intern("a")
	nameB := c.Intern("b")
	labelA := c.LabelsAppend(nameA)
	labelB := c.LabelsAppend(nameB)
	emptyArgs := c.ConstantsAppend(constpool.TupleOf(nil))

	defineFunc(c, "a", func() {
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.CALL, A: ir.SSA(r), B: ir.LabelRef(labelB), C: ir.ConstantRef(emptyArgs)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})
	defineFunc(c, "b", func() {
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.CALL, A: ir.SSA(r), B: ir.LabelRef(labelA), C: ir.ConstantRef(emptyArgs)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	ok := Check(c)
	assert.False(t, ok, "mutual recursion cannot both resolve in a single pass")
	require.NotEmpty(t, c.Errors, "the cycle must surface as a reported error, not a stack overflow")
}

func TestCheckSkipsUndefinedAndBodylessSymbols(t *testing.T) {
	c := ctx.New("t.exp", "t.s")
	c.SymbolTableAt("forward_declared_only")
	ok := Check(c)
	assert.True(t, ok)
}
