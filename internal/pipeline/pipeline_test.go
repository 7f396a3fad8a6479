package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explang/expc/internal/ctx"
	"github.com/explang/expc/internal/ir"
	"github.com/explang/expc/internal/symtab"
)

// defineFunc registers name as a Function symbol and builds its body
// through the IR builder API (spec.md §6.1).
func defineFunc(c *ctx.Context, name string, build func()) {
	sym := c.SymbolTableAt(name)
	sym.Kind = symtab.Function
	fn := &ir.Function{Name: name}
	sym.Body = fn
	c.EnterFunction(fn)
	build()
}

func TestCompileAddFunctionEmitsExpectedAssembly(t *testing.T) {
	c := ctx.New("add.exp", "add.s")
	defineFunc(c, "add", func() {
		a := c.CurrentFunction().DeclareArgument("x", c.I32Type())
		b := c.CurrentFunction().DeclareArgument("y", c.I32Type())
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.ADD, A: ir.SSA(r), B: ir.SSA(a.SSA), C: ir.SSA(b.SSA)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	asm, err := Compile(c)
	require.NoError(t, err)
	assert.Contains(t, asm, ".globl\tadd")
	assert.Contains(t, asm, "add:")
	assert.Contains(t, asm, "\tret")
	assert.Contains(t, asm, ".arch")
}

func TestCompileReturnsErrorOnTypecheckFailure(t *testing.T) {
	c := ctx.New("bad.exp", "bad.s")
	defineFunc(c, "bad", func() {
		a := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.LOAD, A: ir.SSA(a), B: ir.Immediate(ir.ImmBool, 1)})
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.NEGATE, A: ir.SSA(r), B: ir.SSA(a)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	_, err := Compile(c)
	assert.Error(t, err)
	assert.NotEmpty(t, c.Errors)
}

func TestCompileSkipsUndefinedForwardDeclarations(t *testing.T) {
	c := ctx.New("t.exp", "t.s")
	c.SymbolTableAt("declared_but_never_defined")
	asm, err := Compile(c)
	require.NoError(t, err)
	assert.NotContains(t, asm, "declared_but_never_defined")
}
