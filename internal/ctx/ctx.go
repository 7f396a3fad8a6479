// Package ctx implements the Context described in spec.md §3.4/§5: the
// single owner of the type interner, string interner, constant pool, label
// table, and symbol table, threaded through every other component instead
// of living behind package-level globals (spec.md §9's first redesign
// flag). It also exposes the IR builder API consumed by the (out-of-scope)
// parser, spec.md §6.1.
package ctx

import (
	"github.com/pkg/errors"

	"github.com/explang/expc/internal/compileerr"
	"github.com/explang/expc/internal/constpool"
	"github.com/explang/expc/internal/ir"
	"github.com/explang/expc/internal/strtab"
	"github.com/explang/expc/internal/symtab"
	"github.com/explang/expc/internal/types"
)

// Context owns every interner/pool/table in the compilation unit and the
// "current function" pointer the IR builder API below appends to. There is
// exactly one Context per compilation (spec.md §5: single-threaded,
// cooperative, no suspension — there is no locking because there is no
// sharing across threads).
type Context struct {
	Types     types.Interner
	Strings   strtab.Interner
	Labels    strtab.Labels
	Constants constpool.Pool
	Symbols   symtab.Table

	SourcePath string
	OutputPath string

	curFunc *ir.Function

	// Errors accumulated by the typechecker (spec.md §7 propagation policy:
	// report and continue to the next top-level symbol).
	Errors []*compileerr.Error
}

// New creates an empty Context for compiling the unit at sourcePath into
// outputPath.
func New(sourcePath, outputPath string) *Context {
	return &Context{SourcePath: sourcePath, OutputPath: outputPath}
}

// ReportError appends err to the accumulated error list without aborting
// the compilation of later symbols (spec.md §7).
func (c *Context) ReportError(err *compileerr.Error) {
	c.Errors = append(c.Errors, err)
}

// Failed reports whether any error has been accumulated.
func (c *Context) Failed() bool { return len(c.Errors) > 0 }

// --- §6.1 IR builder API ---

// EnterFunction sets fn as the current function that Append/DeclareLocal
// operate on, and returns it for convenience. The (out-of-scope) parser
// calls this once per function body it parses.
func (c *Context) EnterFunction(fn *ir.Function) *ir.Function {
	c.curFunc = fn
	return fn
}

// CurrentFunction returns the function set by the most recent EnterFunction
// call. Panics if none is set: calling the builder API outside a function
// body is a parser bug, not a user-facing error.
func (c *Context) CurrentFunction() *ir.Function {
	if c.curFunc == nil {
		panic(errors.New("ctx: no current function (EnterFunction was never called)"))
	}
	return c.curFunc
}

// DeclareLocal declares a fresh local on the current function.
func (c *Context) DeclareLocal() uint32 {
	return c.CurrentFunction().DeclareLocal()
}

// LocalAt returns the Local for ssa on the current function.
func (c *Context) LocalAt(ssa uint32) *ir.Local {
	return c.CurrentFunction().LocalAt(ssa)
}

// Append appends inst to the current function's block.
func (c *Context) Append(inst ir.Instruction) {
	c.CurrentFunction().Append(inst)
}

// ConstantsAppend interns v in the constant pool.
func (c *Context) ConstantsAppend(v constpool.Value) int {
	return c.Constants.Append(v)
}

// ScalarConstant interns a scalar constant after validating that bits fits
// within kind's declared range, reporting compileerr.IntegerLiteralOutOfRange
// otherwise (SPEC_FULL.md §6.2's integer-literal range check — resolved from
// original_source/, since this core's own Immediate operands carry no range
// validation of their own and lexing is out of scope). The value is interned
// either way so typechecking can continue past the error per spec.md §7's
// propagation policy.
func (c *Context) ScalarConstant(k ir.ImmediateKind, bits int64) int {
	if !ir.FitsImmediateKind(k, bits) {
		c.ReportError(compileerr.At(compileerr.Position{Path: c.SourcePath}, compileerr.IntegerLiteralOutOfRange,
			"integer literal %d does not fit in %s", bits, k.Type()))
	}
	return c.Constants.Append(constpool.ScalarValue(k, bits))
}

// LabelsAppend interns view in the label table.
func (c *Context) LabelsAppend(view *strtab.View) int {
	return c.Labels.Append(view)
}

// Intern interns s in the string table.
func (c *Context) Intern(s string) *strtab.View {
	return c.Strings.Intern(s)
}

func (c *Context) NilType() *types.Type  { return types.NilType() }
func (c *Context) BoolType() *types.Type { return types.BoolType() }
func (c *Context) I8Type() *types.Type   { return types.I8Type() }
func (c *Context) I16Type() *types.Type  { return types.I16Type() }
func (c *Context) I32Type() *types.Type  { return types.I32Type() }
func (c *Context) I64Type() *types.Type  { return types.I64Type() }
func (c *Context) U8Type() *types.Type   { return types.U8Type() }
func (c *Context) U16Type() *types.Type  { return types.U16Type() }
func (c *Context) U32Type() *types.Type  { return types.U32Type() }
func (c *Context) U64Type() *types.Type  { return types.U64Type() }

// TupleType interns a tuple type, collapsing a length-1 tuple to its sole
// element per I-T1.
func (c *Context) TupleType(elems []*types.Type) *types.Type {
	if len(elems) == 1 {
		return elems[0]
	}
	return c.Types.Tuple(elems)
}

// FunctionType interns a function type.
func (c *Context) FunctionType(ret, args *types.Type) *types.Type {
	return c.Types.Function(ret, args)
}

// SymbolTableAt returns (inserting if absent) the Symbol named name.
func (c *Context) SymbolTableAt(name string) *symtab.Symbol {
	return c.Symbols.At(name)
}
