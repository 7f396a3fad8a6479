package codegen_test

// Golden/scenario tests for spec.md §8's end-to-end table. There is no
// lexer/parser in this module (spec.md §1's explicit non-goal), so each
// scenario's source text is reproduced by hand-building the IR the parser
// would have produced, via the same builder API spec.md §6.1 names
// (ctx.EnterFunction / ctx.DeclareLocal / ctx.Append). What's actually under
// test is everything below that seam: typecheck, lifetimes, allocation,
// instruction selection, and assembly emission.

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explang/expc/internal/constpool"
	"github.com/explang/expc/internal/ctx"
	"github.com/explang/expc/internal/ir"
	"github.com/explang/expc/internal/pipeline"
	"github.com/explang/expc/internal/symtab"
)

// defineFunc registers name as a Function symbol and builds its body through
// the IR builder API, mirroring what a parser would do while "the current
// function" is set (spec.md §6.1).
func defineFunc(c *ctx.Context, name string, build func()) {
	sym := c.SymbolTableAt(name)
	sym.Kind = symtab.Function
	fn := &ir.Function{Name: name}
	sym.Body = fn
	c.EnterFunction(fn)
	build()
}

// i32 is shorthand for an inline i32 immediate operand.
func i32(v int64) ir.Operand { return ir.Immediate(ir.ImmI32, v) }

// TestScenarioReturnLiteral covers `fn main() -> i32 { return 7; }` -> 7.
func TestScenarioReturnLiteral(t *testing.T) {
	c := ctx.New("t1.exp", "t1.s")
	defineFunc(c, "main", func() {
		c.Append(ir.Instruction{Op: ir.RETURN, B: i32(7)})
	})

	asm, err := pipeline.Compile(c)
	require.NoError(t, err)
	assert.Contains(t, asm, "main:")
	assert.Contains(t, asm, "$7")
	assert.Contains(t, asm, "\tret")
}

// TestScenarioNegateAndAdd covers `fn main() -> i32 { return -3 + 10; }` -> 7.
func TestScenarioNegateAndAdd(t *testing.T) {
	c := ctx.New("t2.exp", "t2.s")
	defineFunc(c, "main", func() {
		neg := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.NEGATE, A: ir.SSA(neg), B: i32(3)})
		sum := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.ADD, A: ir.SSA(sum), B: ir.SSA(neg), C: i32(10)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(sum)})
	})

	asm, err := pipeline.Compile(c)
	require.NoError(t, err)
	assert.Contains(t, asm, "neg")
	assert.Contains(t, asm, "add")
	assert.Contains(t, asm, "$3")
	assert.Contains(t, asm, "$10")
}

// TestScenarioMulDivSub covers
// `fn main() -> i32 { return 6 * 7 / 3 - 5; }` -> 9.
func TestScenarioMulDivSub(t *testing.T) {
	c := ctx.New("t3.exp", "t3.s")
	defineFunc(c, "main", func() {
		prod := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.MUL, A: ir.SSA(prod), B: i32(6), C: i32(7)})
		quot := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.DIV, A: ir.SSA(quot), B: ir.SSA(prod), C: i32(3)})
		diff := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.SUB, A: ir.SSA(diff), B: ir.SSA(quot), C: i32(5)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(diff)})
	})

	asm, err := pipeline.Compile(c)
	require.NoError(t, err)
	assert.Contains(t, asm, "imul")
	assert.Contains(t, asm, "idiv")
	assert.Contains(t, asm, "sub")
	// spec.md §4.K/L names "mov rdx, 0" ahead of idiv verbatim, not the
	// standard cqto sign-extension idiom.
	assert.NotContains(t, asm, "cqto")
}

// TestScenarioMod covers `fn main() -> i32 { return 17 % 5; }` -> 2.
func TestScenarioMod(t *testing.T) {
	c := ctx.New("t4.exp", "t4.s")
	defineFunc(c, "main", func() {
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.MOD, A: ir.SSA(r), B: i32(17), C: i32(5)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	asm, err := pipeline.Compile(c)
	require.NoError(t, err)
	assert.Contains(t, asm, "idiv")
	// MOD's remainder preamble clears edx with the literal "mov rdx, 0" form
	// spec.md §4.K/L names (not the cqto idiom).
	assert.Contains(t, asm, "$0")
	assert.NotContains(t, asm, "cqto")
}

// TestScenarioCallBetweenFunctions covers
// `fn add(a: i32, b: i32) -> i32 { return a + b; } fn main() -> i32 { return add(40, 2); }` -> 42.
func TestScenarioCallBetweenFunctions(t *testing.T) {
	c := ctx.New("t5.exp", "t5.s")
	defineFunc(c, "add", func() {
		a := c.CurrentFunction().DeclareArgument("a", c.I32Type())
		b := c.CurrentFunction().DeclareArgument("b", c.I32Type())
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.ADD, A: ir.SSA(r), B: ir.SSA(a.SSA), C: ir.SSA(b.SSA)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})
	defineFunc(c, "main", func() {
		callee := c.LabelsAppend(c.Intern("add"))
		args := c.ConstantsAppend(constpool.TupleOf([]ir.Operand{i32(40), i32(2)}))
		r := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.CALL, A: ir.SSA(r), B: ir.LabelRef(callee), C: ir.ConstantRef(args)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
	})

	asm, err := pipeline.Compile(c)
	require.NoError(t, err)
	assert.Contains(t, asm, "add:")
	assert.Contains(t, asm, "main:")
	assert.Contains(t, asm, "call\tadd")
	assert.Contains(t, asm, "$40")
	assert.Contains(t, asm, "$2")
}

// TestScenarioTupleProjection covers
// `fn main() -> i32 { const t = (1, 2, 3); return t.1 + t.2; }` -> 5.
func TestScenarioTupleProjection(t *testing.T) {
	c := ctx.New("t6.exp", "t6.s")
	defineFunc(c, "main", func() {
		tupleConst := c.ConstantsAppend(constpool.TupleOf([]ir.Operand{i32(1), i32(2), i32(3)}))
		tup := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.LOAD, A: ir.SSA(tup), B: ir.ConstantRef(tupleConst)})
		e1 := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.DOT, A: ir.SSA(e1), B: ir.SSA(tup), C: i32(1)})
		e2 := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.DOT, A: ir.SSA(e2), B: ir.SSA(tup), C: i32(2)})
		sum := c.DeclareLocal()
		c.Append(ir.Instruction{Op: ir.ADD, A: ir.SSA(sum), B: ir.SSA(e1), C: ir.SSA(e2)})
		c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(sum)})
	})

	asm, err := pipeline.Compile(c)
	require.NoError(t, err)
	assert.Contains(t, asm, "main:")
	assert.Contains(t, asm, "add")
	// The tuple constant must be materialized into the stack frame (field by
	// field) and both projections read back through [RBP+...] addressing.
	assert.Contains(t, asm, "(%rbp)")
}

// TestAssemblyStabilityAcrossRuns is spec.md §8 testable property #5:
// compiling the same Context twice yields byte-identical .s text. Codegen
// mutates no shared package-level state (each Generator/Allocator is created
// fresh per Function call), so this exercises that there is no hidden
// ordering dependency (e.g. on map iteration) leaking into the output.
func TestAssemblyStabilityAcrossRuns(t *testing.T) {
	build := func() *ctx.Context {
		c := ctx.New("stable.exp", "stable.s")
		defineFunc(c, "add", func() {
			a := c.CurrentFunction().DeclareArgument("a", c.I32Type())
			b := c.CurrentFunction().DeclareArgument("b", c.I32Type())
			r := c.DeclareLocal()
			c.Append(ir.Instruction{Op: ir.ADD, A: ir.SSA(r), B: ir.SSA(a.SSA), C: ir.SSA(b.SSA)})
			c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
		})
		defineFunc(c, "main", func() {
			callee := c.LabelsAppend(c.Intern("add"))
			args := c.ConstantsAppend(constpool.TupleOf([]ir.Operand{i32(40), i32(2)}))
			r := c.DeclareLocal()
			c.Append(ir.Instruction{Op: ir.CALL, A: ir.SSA(r), B: ir.LabelRef(callee), C: ir.ConstantRef(args)})
			c.Append(ir.Instruction{Op: ir.RETURN, B: ir.SSA(r)})
		})
		return c
	}

	asmA, errA := pipeline.Compile(build())
	asmB, errB := pipeline.Compile(build())
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, asmA, asmB)
}
