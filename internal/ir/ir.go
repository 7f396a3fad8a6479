// Package ir implements the typed SSA three-address instruction stream
// described in spec.md §3.3 / §4.D: operands, instructions, blocks, and
// functions. The IR builder here never allocates x86 locations — a Local's
// Location field is left unset, and internal/codegen does not set it either
// (placements live in internal/regalloc's x86.Allocation values).
package ir

import "github.com/explang/expc/internal/types"

// Opcode is the SSA instruction opcode.
type Opcode int

const (
	LOAD Opcode = iota
	NEGATE
	ADD
	SUB
	MUL
	DIV
	MOD
	DOT
	CALL
	RETURN
)

func (op Opcode) String() string {
	switch op {
	case LOAD:
		return "load"
	case NEGATE:
		return "negate"
	case ADD:
		return "add"
	case SUB:
		return "sub"
	case MUL:
		return "mul"
	case DIV:
		return "div"
	case MOD:
		return "mod"
	case DOT:
		return "dot"
	case CALL:
		return "call"
	case RETURN:
		return "return"
	default:
		return "op?"
	}
}

// OperandKind tags which alternative of Operand is populated.
type OperandKind int

const (
	KindNone OperandKind = iota
	KindSSA
	KindConstant
	KindLabel
	KindImmediate
)

// ImmediateKind narrows KindImmediate to the scalar kind carried inline.
type ImmediateKind int

const (
	ImmI8 ImmediateKind = iota
	ImmI16
	ImmI32
	ImmI64
	ImmU8
	ImmU16
	ImmU32
	ImmU64
	ImmBool
)

// FitsImmediateKind reports whether bits is in range for k — the
// integer-literal range check named in SPEC_FULL.md §6.2. Lexing a literal
// is out of this core's scope, but a literal promoted to a constant (one too
// wide to carry inline) is re-validated here before it enters the constant
// pool, the one boundary this core actually owns.
func FitsImmediateKind(k ImmediateKind, bits int64) bool {
	switch k {
	case ImmI8:
		return bits >= -128 && bits <= 127
	case ImmI16:
		return bits >= -32768 && bits <= 32767
	case ImmI32:
		return bits >= -2147483648 && bits <= 2147483647
	case ImmI64:
		return true
	case ImmU8:
		return bits >= 0 && bits <= 255
	case ImmU16:
		return bits >= 0 && bits <= 65535
	case ImmU32:
		return bits >= 0 && bits <= 4294967295
	case ImmU64:
		return bits >= 0 // the sign bit of a u64 is carried as a negative int64 bit pattern
	case ImmBool:
		return bits == 0 || bits == 1
	default:
		return false
	}
}

// Type returns the scalar type corresponding to this immediate kind.
func (k ImmediateKind) Type() *types.Type {
	switch k {
	case ImmI8:
		return types.I8Type()
	case ImmI16:
		return types.I16Type()
	case ImmI32:
		return types.I32Type()
	case ImmI64:
		return types.I64Type()
	case ImmU8:
		return types.U8Type()
	case ImmU16:
		return types.U16Type()
	case ImmU32:
		return types.U32Type()
	case ImmU64:
		return types.U64Type()
	case ImmBool:
		return types.BoolType()
	default:
		panic("ir: unhandled ImmediateKind")
	}
}

// Operand is the sum type carried by each instruction slot: an SSA
// reference, a constant-pool index, a label index, or an inline immediate.
type Operand struct {
	Kind OperandKind

	SSA      uint32 // KindSSA
	Constant int    // KindConstant: index into the constant pool
	Label    int    // KindLabel: index into the label table

	ImmKind ImmediateKind // KindImmediate
	ImmVal  int64         // KindImmediate: sign/zero-extended bit pattern
}

// NoOperand is the zero Operand, used for instruction slots that an opcode
// doesn't use (e.g. RETURN's A per I-IR3).
var NoOperand = Operand{Kind: KindNone}

func SSA(n uint32) Operand           { return Operand{Kind: KindSSA, SSA: n} }
func ConstantRef(idx int) Operand    { return Operand{Kind: KindConstant, Constant: idx} }
func LabelRef(idx int) Operand       { return Operand{Kind: KindLabel, Label: idx} }
func Immediate(k ImmediateKind, v int64) Operand {
	return Operand{Kind: KindImmediate, ImmKind: k, ImmVal: v}
}

// IsSSA reports whether o references an SSA local.
func (o Operand) IsSSA() bool { return o.Kind == KindSSA }

// Instruction is a single three-address SSA instruction. Not every opcode
// uses all three operand slots: RETURN uses only B (I-IR3); DOT requires C
// to be an immediate integer index (I-IR5); CALL requires C to reference a
// constant tuple (I-IR4).
type Instruction struct {
	Op Opcode
	A  Operand
	B  Operand
	C  Operand
}

// Block is an ordered sequence of instructions.
type Block struct {
	Instructions []Instruction
}

func (b *Block) Append(inst Instruction) {
	b.Instructions = append(b.Instructions, inst)
}

// Location is a placement slot on a Local. No package in this module sets
// it: internal/regalloc records placements in x86.Allocation values, so it
// stays the zero value.
type Location struct {
	Set  bool
	GPR  int  // valid iff Set && !Spilled
	Spilled bool
	StackOffset int // valid iff Set && Spilled: bytes below RBP
}

// Interval is the lifetime computed by internal/lifetime: [FirstDef, LastUse]
// over block-relative instruction indices (spec.md §3.5).
type Interval struct {
	SSA      uint32
	FirstDef int
	LastUse  int
}

// Local is an SSA local: a value produced by exactly one instruction (or a
// formal argument), referenced by its SSA index everywhere else.
type Local struct {
	SSA      uint32
	Name     string // optional; "" if synthesized
	HasName  bool
	Type     *types.Type // nil until internal/typecheck assigns it
	Location Location
	Lifetime Interval
}

// Function is one compiled function body: its formal arguments, declared
// locals (indexable by SSA number), return type, and instruction block.
type Function struct {
	Name            string
	FormalArguments []*Local // also present in Locals, in order, at the front
	ReturnType      *types.Type
	Locals          []*Local
	Block           Block
}

// DeclareLocal appends a fresh Local and returns its SSA number (I-IR1: the
// number equals the length of Locals at the time of the call).
func (f *Function) DeclareLocal() uint32 {
	n := uint32(len(f.Locals))
	f.Locals = append(f.Locals, &Local{SSA: n})
	return n
}

// LocalAt returns the Local for ssa. Panics out of range: every SSA number
// in a well-formed function was produced by DeclareLocal on this Function.
func (f *Function) LocalAt(ssa uint32) *Local {
	return f.Locals[ssa]
}

// Append adds inst to the function's block, in program order.
func (f *Function) Append(inst Instruction) {
	f.Block.Append(inst)
}

// DeclareArgument declares a fresh local and marks it as a formal argument
// of the given type, in declaration order.
func (f *Function) DeclareArgument(name string, t *types.Type) *Local {
	ssa := f.DeclareLocal()
	l := f.LocalAt(ssa)
	l.Name = name
	l.HasName = name != ""
	l.Type = t
	f.FormalArguments = append(f.FormalArguments, l)
	return l
}
