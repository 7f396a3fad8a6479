// Package codegen implements instruction selection (spec.md §3.6 / §4.K/L):
// per-function lowering from the typed SSA IR to the x86 instruction form
// in internal/x86, driving internal/regalloc for operand placement and
// internal/layout for tuple field addressing.
//
// There is no teacher analog for this component: tinyrange-rtg's backend
// emits raw machine code through a push/pop stack-machine model with no
// register allocator at all (see DESIGN.md). This package is grounded
// directly in spec.md §4.K/L's per-opcode lowering contracts, shaped the
// way the teacher structures a per-opcode dispatch (a big switch over the
// IR opcode, one method per case, spec.md-style rather than invented).
package codegen

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/explang/expc/internal/constpool"
	"github.com/explang/expc/internal/ctx"
	"github.com/explang/expc/internal/ir"
	"github.com/explang/expc/internal/layout"
	"github.com/explang/expc/internal/lifetime"
	"github.com/explang/expc/internal/regalloc"
	"github.com/explang/expc/internal/symtab"
	"github.com/explang/expc/internal/types"
	"github.com/explang/expc/internal/x86"
)

// Generator holds the per-function state threaded through one lowering
// pass. A fresh Generator is created for each Function symbol (spec.md §5:
// "the x86 allocator owns its Allocation objects for the current function
// only; it is destroyed at function boundaries").
type Generator struct {
	c      *ctx.Context
	fn     *ir.Function
	out    *x86.Function
	alloc  *regalloc.Allocator
	layout *layout.Engine
}

// Function lowers sym's IR body to x86 form. sym must be a typechecked
// Function symbol with a non-nil Body (spec.md §4.K/L driver: "for each
// function symbol with kind Function").
func Function(c *ctx.Context, sym *symtab.Symbol, lay *layout.Engine) *x86.Function {
	if sym.Kind != symtab.Function || sym.Body == nil {
		panic(errors.Errorf("codegen: symbol %q is not a typechecked function", sym.Name))
	}
	// Stamp every local's [FirstDef, LastUse] interval; the allocator reads it.
	lifetime.Compute(sym.Body)
	out := &x86.Function{Name: sym.Name}
	g := &Generator{c: c, fn: sym.Body, out: out, layout: lay}
	g.alloc = regalloc.New(&out.Block)

	g.bindResult()
	g.bindArguments()
	for i, inst := range g.fn.Block.Instructions {
		g.genInst(i, inst)
	}
	g.finalize()
	return out
}

// --- driver step 1/2: result & argument binding ---

func (g *Generator) isScalarReturn() bool {
	return g.fn.ReturnType == nil || g.fn.ReturnType.IsScalar()
}

// bindResult implements spec.md §4.K/L step 1: scalar results live in rAX;
// aggregate results are written through a hidden pointer the caller passes
// in rDI (System V's convention for large return values).
func (g *Generator) bindResult() {
	if g.isScalarReturn() {
		g.out.Result = x86.Location{Kind: x86.InGPR, GPR: x86.RAX}
		return
	}
	g.out.Result = x86.Location{Kind: x86.InMemory, Addr: x86.Address{Base: x86.RDI, Offset: 0}}
	g.alloc.Reserve(x86.RDI, len(g.fn.Block.Instructions))
}

// bindArguments implements spec.md §4.K/L step 2: formal arguments are
// assigned to the System V integer-argument GPR sequence, overflowing to
// caller-provided stack slots at [RBP+16+...]. A tuple-typed argument is
// passed by address in the next available GPR slot — the spec does not
// name an aggregate-argument convention explicitly; this mirrors the
// hidden-pointer convention already used for aggregate results (recorded
// as an assumption in DESIGN.md).
func (g *Generator) bindArguments() {
	gprIdx := 0
	if !g.isScalarReturn() {
		gprIdx = 1 // rdi is taken by the hidden result pointer
	}
	stackOffset := int64(16)
	for _, arg := range g.fn.FormalArguments {
		if gprIdx < len(x86.ArgGPRs) {
			gpr := x86.ArgGPRs[gprIdx]
			gprIdx++
			var alloc *x86.Allocation
			if arg.Type.IsScalar() {
				alloc = g.alloc.AllocateToGPR(arg, gpr, 0)
			} else {
				// Pointer to caller-owned storage; dereference it.
				alloc = g.alloc.AllocateToGPR(arg, gpr, 0)
				alloc.Location = x86.InAddress(x86.Address{Base: gpr, Offset: 0})
			}
			g.out.Arguments = append(g.out.Arguments, alloc)
			continue
		}
		w := widthOf(arg.Type)
		alloc := &x86.Allocation{SSA: arg.SSA, Type: arg.Type, LifetimeEnd: arg.Lifetime.LastUse,
			Location: x86.InAddress(x86.Address{Base: x86.RBP, Offset: stackOffset})}
		g.alloc.RegisterIncoming(arg.SSA, alloc)
		g.out.Arguments = append(g.out.Arguments, alloc)
		stackOffset += int64(widthRounded(w))
	}
}

// --- driver step 3: per-opcode dispatch ---

func (g *Generator) genInst(i int, inst ir.Instruction) {
	switch inst.Op {
	case ir.LOAD:
		g.genLoad(i, inst)
	case ir.NEGATE:
		g.genNegate(i, inst)
	case ir.ADD:
		g.genAddSub(i, inst, false)
	case ir.SUB:
		g.genAddSub(i, inst, true)
	case ir.MUL:
		g.genMulDivMod(i, inst, ir.MUL)
	case ir.DIV:
		g.genMulDivMod(i, inst, ir.DIV)
	case ir.MOD:
		g.genMulDivMod(i, inst, ir.MOD)
	case ir.DOT:
		g.genDot(i, inst)
	case ir.CALL:
		g.genCall(i, inst)
	case ir.RETURN:
		g.genReturn(i, inst)
	default:
		panic(fmt.Sprintf("codegen: unhandled opcode %v", inst.Op))
	}
}

// --- LOAD / NEGATE ---

func (g *Generator) genLoad(i int, inst ir.Instruction) {
	localA := g.fn.LocalAt(inst.A.SSA)
	width := widthOf(localA.Type)
	switch inst.B.Kind {
	case ir.KindSSA:
		active := g.alloc.AllocationOf(inst.B.SSA)
		g.alloc.AllocateFromActive(localA, active, i)
	case ir.KindImmediate:
		alloc := g.alloc.Allocate(localA, i)
		g.emit2(x86.MOV, g.locOperand(alloc.Location, width), g.x86OperandOf(inst.B, width))
	case ir.KindConstant:
		if g.c.Constants.At(inst.B.Constant).Kind == constpool.TupleValue {
			alloc := g.alloc.AllocateOnStack(localA, i)
			g.storeConstantTuple(alloc.Location.Addr, g.layout.Of(localA.Type), inst.B.Constant, i)
			return
		}
		alloc := g.alloc.Allocate(localA, i)
		g.emit2(x86.MOV, g.locOperand(alloc.Location, width), g.x86OperandOf(inst.B, width))
	case ir.KindLabel:
		alloc := g.alloc.Allocate(localA, i)
		g.emit2(x86.LEA, g.locOperand(alloc.Location, 8), x86.LabelOperand(inst.B.Label))
	}
}

// storeConstantTuple materializes a tuple constant directly into memory at
// dst, field by field, recursing into nested tuple constants — the LOAD
// counterpart to genDot's copyAggregate (which copies between two already
// materialized addresses; this one copies from the constant pool instead).
func (g *Generator) storeConstantTuple(dst x86.Address, lay *layout.Layout, constIdx int, i int) {
	v := g.c.Constants.At(constIdx)
	for idx, op := range v.Elems {
		off, elemLay := lay.OffsetOf(idx)
		elemAddr := x86.Address{Base: dst.Base, Offset: dst.Offset + int64(off)}
		if op.Kind == ir.KindConstant && g.c.Constants.At(op.Constant).Kind == constpool.TupleValue {
			g.storeConstantTuple(elemAddr, elemLay, op.Constant, i)
			continue
		}
		w := widthFromSize(elemLay.Size)
		g.emit2(x86.MOV, memOperand(elemAddr, w), g.x86OperandOf(op, w))
	}
}

func (g *Generator) genNegate(i int, inst ir.Instruction) {
	localA := g.fn.LocalAt(inst.A.SSA)
	width := widthOf(localA.Type)
	if inst.B.Kind == ir.KindSSA {
		active := g.alloc.AllocationOf(inst.B.SSA)
		aAlloc := g.alloc.AllocateFromActive(localA, active, i)
		g.emit1(x86.NEG, g.locOperand(aAlloc.Location, width))
		return
	}
	aAlloc := g.alloc.Allocate(localA, i)
	g.emit2(x86.MOV, g.locOperand(aAlloc.Location, width), g.x86OperandOf(inst.B, width))
	g.emit1(x86.NEG, g.locOperand(aAlloc.Location, width))
}

// --- ADD / SUB ---

// genAddSub implements spec.md §4.K/L's ADD/SUB contract: SSA+SSA renames
// from whichever operand is already in a GPR (ADD only — SUB always
// renames from B since subtraction is not commutative); mixed SSA+Imm
// renames from the SSA side; Imm/Const-only materializes both operands
// fresh.
func (g *Generator) genAddSub(i int, inst ir.Instruction, sub bool) {
	localA := g.fn.LocalAt(inst.A.SSA)
	width := widthOf(localA.Type)
	opcode := x86.ADD
	if sub {
		opcode = x86.SUB
	}

	bSSA := inst.B.Kind == ir.KindSSA
	cSSA := inst.C.Kind == ir.KindSSA

	switch {
	case bSSA && cSSA:
		bAlloc := g.alloc.AllocationOf(inst.B.SSA)
		cAlloc := g.alloc.AllocationOf(inst.C.SSA)
		if sub {
			aAlloc := g.alloc.AllocateFromActive(localA, bAlloc, i)
			g.emit2(opcode, g.locOperand(aAlloc.Location, width), g.locOperand(cAlloc.Location, width))
			return
		}
		var renameFrom, other *x86.Allocation
		switch {
		case bAlloc.Location.Kind == x86.InGPR:
			renameFrom, other = bAlloc, cAlloc
		case cAlloc.Location.Kind == x86.InGPR:
			renameFrom, other = cAlloc, bAlloc
		}
		if renameFrom != nil {
			aAlloc := g.alloc.AllocateFromActive(localA, renameFrom, i)
			g.emit2(opcode, g.locOperand(aAlloc.Location, width), g.locOperand(other.Location, width))
			return
		}
		// Neither operand is in a GPR: force a fresh register destination
		// rather than writing through either operand's (still-live) memory
		// location (spec.md's destination-aliasing note).
		aAlloc := g.alloc.AllocateToAnyGPR(localA, i)
		longer, shorter := bAlloc, cAlloc
		if cAlloc.LifetimeEnd > bAlloc.LifetimeEnd {
			longer, shorter = cAlloc, bAlloc
		}
		g.emit2(x86.MOV, g.locOperand(aAlloc.Location, width), g.locOperand(longer.Location, width))
		g.emit2(opcode, g.locOperand(aAlloc.Location, width), g.locOperand(shorter.Location, width))

	case bSSA != cSSA:
		if sub && !bSSA {
			// B is the immediate/constant side of a subtraction: the result
			// can't rename from a non-SSA B, so materialize B fresh and
			// subtract the SSA side from it.
			cAlloc := g.alloc.AllocationOf(inst.C.SSA)
			aAlloc := g.alloc.Allocate(localA, i)
			g.emit2(x86.MOV, g.locOperand(aAlloc.Location, width), g.x86OperandOf(inst.B, width))
			g.emit2(opcode, g.locOperand(aAlloc.Location, width), g.locOperand(cAlloc.Location, width))
			return
		}
		ssaOp, otherOp := inst.B, inst.C
		if !bSSA {
			ssaOp, otherOp = inst.C, inst.B
		}
		ssaAlloc := g.alloc.AllocationOf(ssaOp.SSA)
		aAlloc := g.alloc.AllocateFromActive(localA, ssaAlloc, i)
		g.emit2(opcode, g.locOperand(aAlloc.Location, width), g.x86OperandOf(otherOp, width))

	default:
		aAlloc := g.alloc.Allocate(localA, i)
		g.emit2(x86.MOV, g.locOperand(aAlloc.Location, width), g.x86OperandOf(inst.B, width))
		g.emit2(opcode, g.locOperand(aAlloc.Location, width), g.x86OperandOf(inst.C, width))
	}
}

// --- MUL / DIV / MOD ---

// genMulDivMod implements spec.md §4.K/L's fixed-register contract: idiv
// reads rDX:rAX and writes quotient to rAX, remainder to rDX; imul (the
// one-operand form) writes rDX:rAX := rAX * src. An input holding the
// result register is moved out of the way by AllocateToGPR, and one still
// live in the other register of the pair by ReleaseGPR, before it is
// overwritten — one of the two strategies spec.md names for that case, the
// other being an in-place rename.
func (g *Generator) genMulDivMod(i int, inst ir.Instruction, op ir.Opcode) {
	localA := g.fn.LocalAt(inst.A.SSA)
	width := widthOf(localA.Type)

	var resultGPR x86.GPR
	switch op {
	case ir.MUL, ir.DIV:
		resultGPR = x86.RAX
	case ir.MOD:
		resultGPR = x86.RDX
	}
	g.alloc.AllocateToGPR(localA, resultGPR, i)

	// The other half of rDX:rAX is an operand of imul/idiv too: free it, then
	// keep it out of the scratch pool for the rest of this instruction.
	otherGPR := x86.RDX
	if op == ir.MOD {
		otherGPR = x86.RAX
	}
	g.alloc.ReleaseGPR(otherGPR, i)
	g.alloc.Reserve(otherGPR, i)

	g.moveOperandInto(x86.RAX, width, inst.B, i)
	if op != ir.MUL {
		// Clear rdx ahead of idiv (spec.md §4.K/L: "clear rDX (mov rdx, 0)").
		g.emit2(x86.MOV, regOperand(x86.RDX, width), x86.Operand{Kind: x86.OpImmediate, Immediate: 0})
	}

	src, scratch, isScratch := g.materializeSource(inst.C, width, i)
	switch op {
	case ir.MUL:
		g.emit1(x86.IMUL, src)
	default:
		g.emit1(x86.IDIV, src)
	}
	if isScratch {
		g.alloc.ReleaseGPR(scratch, i)
	}
}

// materializeSource returns an x86 operand for op suitable as idiv/imul's
// single register/memory source operand; immediates are materialized into
// a transient scratch GPR since neither instruction accepts one directly.
func (g *Generator) materializeSource(op ir.Operand, width, i int) (operand x86.Operand, scratch x86.GPR, isScratch bool) {
	if op.Kind == ir.KindSSA {
		alloc := g.alloc.AllocationOf(op.SSA)
		return g.locOperand(alloc.Location, width), 0, false
	}
	gpr := g.alloc.AcquireAnyGPR(i)
	g.emit2(x86.MOV, regOperand(gpr, width), g.x86OperandOf(op, width))
	return regOperand(gpr, width), gpr, true
}

// moveOperandInto emits `mov gpr, op` unless op is an SSA local already
// resident in gpr.
func (g *Generator) moveOperandInto(gpr x86.GPR, width int, op ir.Operand, i int) {
	if op.Kind == ir.KindSSA {
		alloc := g.alloc.AllocationOf(op.SSA)
		if alloc.Location.Kind == x86.InGPR && alloc.Location.GPR == gpr {
			return
		}
	}
	g.emit2(x86.MOV, regOperand(gpr, width), g.x86OperandOf(op, width))
}

// --- DOT ---

// genDot implements spec.md §4.K/L's DOT contract and the nested-tuple
// field-composition supplemented feature (SPEC_FULL.md §6): the element
// address is the tuple's base plus the layout engine's offset for the
// requested index, recursing through OffsetOf's sub-layout so a DOT chain
// (`t.0.1`, lowered as nested DOTs against intermediate SSA locals)
// composes correctly without the codegen needing any special case for
// depth.
func (g *Generator) genDot(i int, inst ir.Instruction) {
	localA := g.fn.LocalAt(inst.A.SSA)
	localB := g.fn.LocalAt(inst.B.SSA)
	bAlloc := g.alloc.AllocationOf(inst.B.SSA)
	if bAlloc.Location.Kind != x86.InMemory {
		panic("codegen: DOT operand is not addressable — tuple-typed locals must always be allocated to memory")
	}
	tupleLayout := g.layout.Of(localB.Type)
	idx := int(inst.C.ImmVal)
	elemOffset, elemLayout := tupleLayout.OffsetOf(idx)
	elemAddr := x86.Address{Base: bAlloc.Location.Addr.Base, Offset: bAlloc.Location.Addr.Offset + int64(elemOffset)}

	if localA.Type.IsScalar() {
		width := widthOf(localA.Type)
		aAlloc := g.alloc.Allocate(localA, i)
		g.emit2(x86.MOV, g.locOperand(aAlloc.Location, width), memOperand(elemAddr, width))
		return
	}
	aAlloc := g.alloc.AllocateOnStack(localA, i)
	g.copyAggregate(aAlloc.Location.Addr, elemAddr, elemLayout, i)
}

// copyAggregate performs an element-wise memory-to-memory copy of lay
// (through a scratch GPR — x86 has no mem-to-mem mov), recursing into
// nested TupleLayouts and skipping inserted padding runs.
func (g *Generator) copyAggregate(dst, src x86.Address, lay *layout.Layout, i int) {
	if lay.Kind != layout.TupleLayout {
		w := widthFromSize(lay.Size)
		scratch := g.alloc.AcquireAnyGPR(i)
		g.emit2(x86.MOV, regOperand(scratch, w), memOperand(src, w))
		g.emit2(x86.MOV, memOperand(dst, w), regOperand(scratch, w))
		g.alloc.ReleaseGPR(scratch, i)
		return
	}
	for idx, elem := range lay.Elements {
		if elem.Kind == layout.PaddingLayout {
			continue
		}
		off := int64(lay.Offsets[idx])
		subDst := x86.Address{Base: dst.Base, Offset: dst.Offset + off}
		subSrc := x86.Address{Base: src.Base, Offset: src.Offset + off}
		g.copyAggregate(subDst, subSrc, elem, i)
	}
}

// --- CALL ---

// genCall implements spec.md §4.K/L's CALL contract: scalar result to rAX
// (or a stack slot with its address passed in rDI for an aggregate
// result), up to six arguments in the System V GPR sequence, the rest
// pushed to a caller-allocated stack area bracketed by sub rsp/add rsp
// around the call site. A tuple-typed SSA argument in a GPR slot is passed
// by address (lea), matching bindArguments; a tuple constant written
// directly in the argument list is not supported (x86OperandOf panics).
func (g *Generator) genCall(i int, inst ir.Instruction) {
	localA := g.fn.LocalAt(inst.A.SSA)
	argsVal := g.c.Constants.At(inst.C.Constant)

	aggregateResult := !localA.Type.IsScalar()
	var aAlloc *x86.Allocation
	if aggregateResult {
		aAlloc = g.alloc.AllocateOnStack(localA, i)
	} else {
		aAlloc = g.alloc.AllocateToGPR(localA, x86.RAX, i)
	}

	gprCursor := 0
	if aggregateResult {
		g.emit2(x86.LEA, regOperand(x86.RDI, 8), memOperand(aAlloc.Location.Addr, 8))
		gprCursor = 1
	}

	type regMove struct {
		gpr       x86.GPR
		op        ir.Operand
		width     int
		byAddress bool
	}
	var regMoves []regMove
	var stackArgs []ir.Operand
	for _, argOp := range argsVal.Elems {
		argType := g.opType(argOp)
		if gprCursor < len(x86.ArgGPRs) {
			regMoves = append(regMoves, regMove{x86.ArgGPRs[gprCursor], argOp, widthOf(argType), !argType.IsScalar()})
			gprCursor++
			continue
		}
		stackArgs = append(stackArgs, argOp)
	}

	var stackBytes int64
	if len(stackArgs) > 0 {
		for _, argOp := range stackArgs {
			stackBytes += int64(widthRounded(widthOf(g.opType(argOp))))
		}
		if rem := stackBytes % 16; rem != 0 {
			stackBytes += 16 - rem
		}
		g.emit2(x86.SUB, regOperand(x86.RSP, 8), x86.Operand{Kind: x86.OpImmediate, Immediate: stackBytes})
		var off int64
		for _, argOp := range stackArgs {
			w := widthOf(g.opType(argOp))
			g.emit2(x86.MOV, memOperand(x86.Address{Base: x86.RSP, Offset: off}, w), g.x86OperandOf(argOp, w))
			off += int64(widthRounded(w))
		}
	}

	for _, m := range regMoves {
		if m.byAddress && m.op.Kind == ir.KindSSA {
			alloc := g.alloc.AllocationOf(m.op.SSA)
			g.emit2(x86.LEA, regOperand(m.gpr, 8), memOperand(alloc.Location.Addr, 8))
			continue
		}
		g.emit2(x86.MOV, regOperand(m.gpr, m.width), g.x86OperandOf(m.op, m.width))
	}

	g.emit1(x86.CALL, x86.LabelOperand(inst.B.Label))

	if len(stackArgs) > 0 {
		g.emit2(x86.ADD, regOperand(x86.RSP, 8), x86.Operand{Kind: x86.OpImmediate, Immediate: stackBytes})
	}
}

// --- RETURN ---

// genReturn implements spec.md §4.K/L's RETURN contract: copy the result
// into place unless it's already there. No epilogue is emitted here:
// finalize appends exactly one epilogue after the whole block is lowered,
// so only a RETURN that is the block's last instruction ends the function.
func (g *Generator) genReturn(i int, inst ir.Instruction) {
	if inst.B.Kind == ir.KindSSA {
		local := g.fn.LocalAt(inst.B.SSA)
		alloc := g.alloc.AllocationOf(inst.B.SSA)
		if locationsEqual(alloc.Location, g.out.Result) {
			return
		}
		if local.Type.IsScalar() {
			width := widthOf(local.Type)
			g.emit2(x86.MOV, g.locOperand(g.out.Result, width), g.locOperand(alloc.Location, width))
			return
		}
		lay := g.layout.Of(local.Type)
		g.copyAggregate(g.out.Result.Addr, alloc.Location.Addr, lay, i)
		return
	}
	width := widthOf(g.opType(inst.B))
	g.emit2(x86.MOV, g.locOperand(g.out.Result, width), g.x86OperandOf(inst.B, width))
}

// --- prologue / epilogue ---

// finalize prepends the prologue (spec.md §4.K/L: "prepended after the
// body is complete so stack size is known") and appends the epilogue.
func (g *Generator) finalize() {
	frame := widthRounded16(g.alloc.TotalStackSize())
	g.out.StackFrameSize = frame
	g.out.UsesStack = frame > 0

	prologue := []x86.Instruction{
		{Op: x86.PUSH, Dst: regOperand(x86.RBP, 8), NSrc: 1},
		{Op: x86.MOV, Dst: regOperand(x86.RBP, 8), Src: regOperand(x86.RSP, 8), NSrc: 2},
	}
	if frame > 0 {
		prologue = append(prologue, x86.Instruction{
			Op: x86.SUB, Dst: regOperand(x86.RSP, 8),
			Src: x86.Operand{Kind: x86.OpImmediate, Immediate: int64(frame)}, NSrc: 2,
		})
	}
	g.out.Block.Instructions = append(prologue, g.out.Block.Instructions...)

	g.out.Block.Emit(x86.Instruction{Op: x86.MOV, Dst: regOperand(x86.RSP, 8), Src: regOperand(x86.RBP, 8), NSrc: 2})
	g.out.Block.Emit(x86.Instruction{Op: x86.POP, Dst: regOperand(x86.RBP, 8), NSrc: 1})
	g.out.Block.Emit(x86.Instruction{Op: x86.RET, NSrc: 0})
}

// --- shared helpers ---

func (g *Generator) emit1(op x86.Opcode, dst x86.Operand) {
	g.out.Block.Emit(x86.Instruction{Op: op, Dst: dst, NSrc: 1})
}

func (g *Generator) emit2(op x86.Opcode, dst, src x86.Operand) {
	g.out.Block.Emit(x86.Instruction{Op: op, Dst: dst, Src: src, NSrc: 2})
}

func regOperand(r x86.GPR, width int) x86.Operand  { return x86.RegW(r, width) }
func memOperand(a x86.Address, width int) x86.Operand {
	return x86.Operand{Kind: x86.OpAddress, Addr: a, Width: width}
}

func (g *Generator) locOperand(loc x86.Location, width int) x86.Operand {
	switch loc.Kind {
	case x86.InGPR:
		return regOperand(loc.GPR, width)
	default:
		return memOperand(loc.Addr, width)
	}
}

// x86OperandOf resolves an IR operand to an x86 operand suitable as a mov
// source: SSA locals via their current allocation, immediates directly,
// scalar constants as an inlined immediate (spec.md §4.K/L: "if constant,
// mov a, const"). Tuple constants and label operands are not accepted and
// panic; genLoad stores tuple constants through storeConstantTuple and
// loads labels with lea instead.
func (g *Generator) x86OperandOf(op ir.Operand, width int) x86.Operand {
	switch op.Kind {
	case ir.KindImmediate:
		return x86.Operand{Kind: x86.OpImmediate, Immediate: op.ImmVal, Width: width}
	case ir.KindSSA:
		alloc := g.alloc.AllocationOf(op.SSA)
		return g.locOperand(alloc.Location, width)
	case ir.KindConstant:
		v := g.c.Constants.At(op.Constant)
		if v.Kind != constpool.Scalar {
			panic("codegen: cannot use an aggregate constant as a scalar mov source")
		}
		return x86.Operand{Kind: x86.OpImmediate, Immediate: v.ScalarBits, Width: width}
	default:
		panic(fmt.Sprintf("codegen: unsupported operand kind %v as a mov source", op.Kind))
	}
}

// opType mirrors internal/typecheck's type_of_operand for codegen's own
// use (argument widths, return-value widths) — it is read-only and must
// only ever be called after typecheck.Check has already assigned every
// local's Type.
func (g *Generator) opType(op ir.Operand) *types.Type {
	switch op.Kind {
	case ir.KindImmediate:
		return op.ImmKind.Type()
	case ir.KindSSA:
		return g.fn.LocalAt(op.SSA).Type
	case ir.KindConstant:
		return g.c.Constants.TypeOf(op.Constant, &g.c.Types, g.opType)
	case ir.KindLabel:
		lbl := g.c.Labels.At(op.Label)
		if sym, ok := g.c.Symbols.Lookup(lbl.Name.String()); ok {
			return sym.Type
		}
		return g.c.NilType()
	default:
		return g.c.NilType()
	}
}

func locationsEqual(a, b x86.Location) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == x86.InGPR {
		return a.GPR == b.GPR
	}
	return a.Addr == b.Addr
}

// widthOf returns the storage width in bytes the printer should use for a
// scalar-typed value; tuples/functions never reach this (they're always
// addressed, never loaded as a single operand).
func widthOf(t *types.Type) int {
	if t == nil {
		return 8
	}
	switch t.Kind() {
	case types.Nil, types.Bool, types.I8, types.U8:
		return 1
	case types.I16, types.U16:
		return 2
	case types.I32, types.U32:
		return 4
	default:
		return 8
	}
}

func widthFromSize(n int) int {
	switch {
	case n <= 1:
		return 1
	case n <= 2:
		return 2
	case n <= 4:
		return 4
	default:
		return 8
	}
}

// widthRounded pads a scalar argument's width up to one of the four legal
// operand widths — used for stack-argument slot sizing.
func widthRounded(w int) int { return widthFromSize(w) }

func widthRounded16(n int) int {
	if rem := n % 16; rem != 0 {
		return n + (16 - rem)
	}
	return n
}
