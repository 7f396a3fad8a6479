// Package x86 implements the target-specific data model described in
// spec.md §3.6 / §4.K: GPRs, addressing, locations, instructions, blocks,
// and functions for x86-64 System V — plus (printer.go) the AT&T-syntax
// pretty-printer that internal/asmprint drives.
package x86

import "github.com/explang/expc/internal/types"

// GPR identifies one of the 16 integer registers. Register *number* is
// architecture-fixed; which name prints for it depends on the operand
// width, handled in printer.go.
type GPR int

const (
	RAX GPR = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// System V argument-passing order for integer/pointer arguments.
var ArgGPRs = []GPR{RDI, RSI, RDX, RCX, R8, R9}

// Address is a simple [base+offset] operand — sufficient for this core
// (spec.md §3.6: "simple [base+offset] addressing is sufficient").
type Address struct {
	Base   GPR
	Offset int64
}

// LocationKind tags which alternative of Location is populated.
type LocationKind int

const (
	InGPR LocationKind = iota
	InMemory
)

// Location is where an x86 Allocation currently lives.
type Location struct {
	Kind LocationKind
	GPR  GPR     // InGPR
	Addr Address // InMemory
}

func InRegister(r GPR) Location   { return Location{Kind: InGPR, GPR: r} }
func InAddress(a Address) Location { return Location{Kind: InMemory, Addr: a} }

// Allocation is the x86 storage assigned to one SSA local by
// internal/regalloc (spec.md §3.6).
type Allocation struct {
	SSA      uint32
	Type     *types.Type
	LifetimeEnd int // block-relative index; see ir.Interval.LastUse, computed by internal/lifetime
	Location Location
}

// OperandKind tags which alternative of Operand is populated.
type OperandKind int

const (
	OpGPR OperandKind = iota
	OpAddress
	OpImmediate
	OpLabel
	OpConstantRef
)

// Operand is an x86 instruction operand.
type Operand struct {
	Kind OperandKind

	GPR       GPR     // OpGPR
	Addr      Address // OpAddress
	Immediate int64   // OpImmediate
	Label     int     // OpLabel: index into the label table
	Constant  int     // OpConstantRef: index into the constant pool

	// Width in bytes, selecting the register name / mnemonic suffix
	// (1/2/4/8). Zero means "use the natural width" (8 for addresses and
	// 64-bit ops, inferred by the printer from context otherwise).
	Width int
}

func Reg(r GPR) Operand            { return Operand{Kind: OpGPR, GPR: r, Width: 8} }
func RegW(r GPR, width int) Operand { return Operand{Kind: OpGPR, GPR: r, Width: width} }
func Mem(a Address) Operand        { return Operand{Kind: OpAddress, Addr: a, Width: 8} }
func Imm(v int64) Operand          { return Operand{Kind: OpImmediate, Immediate: v} }
func LabelOperand(idx int) Operand { return Operand{Kind: OpLabel, Label: idx} }
func ConstRef(idx int) Operand     { return Operand{Kind: OpConstantRef, Constant: idx} }

// Opcode is an x86 mnemonic.
type Opcode int

const (
	MOV Opcode = iota
	LEA
	ADD
	SUB
	IMUL  // one-operand form: %rdx:%rax := %rax * Dst (spec.md §4.L MUL lowering)
	IMUL3 // imul dst, src, imm32 — three-operand form, unused by the current lowering but kept for the printer's completeness
	IDIV
	NEG
	CQO // sign-extend rax into rdx:rax ahead of idiv
	PUSH
	POP
	CALL
	RET
	XOR
	LABEL // pseudo-opcode: emits "name:" with no operands
)

// Instruction is one x86 instruction: an opcode and up to two operands (the
// destination first, matching this package's Go-side field order; the AT&T
// printer reverses that to source-then-destination on the page).
type Instruction struct {
	Op   Opcode
	Dst  Operand
	Src  Operand
	NSrc int // 0, 1, or 2 — how many of Dst/Src are populated (RET/CQO/LABEL use 0 or 1)
}

// Block is an ordered sequence of x86 instructions.
type Block struct {
	Instructions []Instruction
}

func (b *Block) Emit(inst Instruction) { b.Instructions = append(b.Instructions, inst) }

// Function is one compiled function's x86 form: its argument locations,
// result location, frame size, and instruction stream. Prologue/epilogue
// are synthesized by internal/codegen once the body (and therefore the
// frame size) is complete.
type Function struct {
	Name            string
	Arguments       []*Allocation
	Result          Location
	StackFrameSize  int // high-water mark from internal/regalloc, 16-byte aligned
	UsesStack       bool
	Block           Block
}
