// Package constpool implements the per-compilation-unit constant pool
// described in spec.md §3.2 / §4.C: a deduplicated, append-only sequence of
// Values, referenced everywhere else by integer index.
package constpool

import (
	"github.com/explang/expc/internal/ir"
	"github.com/explang/expc/internal/types"
)

// ValueKind tags which alternative of Value is populated.
type ValueKind int

const (
	Uninitialized ValueKind = iota
	Scalar
	TupleValue
)

// Value is a constant-pool entry: an uninitialized placeholder, a scalar
// bit pattern tagged with its kind, or a tuple of operands (each of which
// may itself reference the constant pool, an immediate, or a label).
type Value struct {
	Kind ValueKind

	ScalarKind ir.ImmediateKind // Scalar
	ScalarBits int64            // Scalar

	Elems []ir.Operand // TupleValue
}

func ScalarValue(k ir.ImmediateKind, bits int64) Value {
	return Value{Kind: Scalar, ScalarKind: k, ScalarBits: bits}
}

func TupleOf(elems []ir.Operand) Value {
	owned := make([]ir.Operand, len(elems))
	copy(owned, elems)
	return Value{Kind: TupleValue, Elems: owned}
}

func equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Uninitialized:
		return true
	case Scalar:
		return a.ScalarKind == b.ScalarKind && a.ScalarBits == b.ScalarBits
	case TupleValue:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if a.Elems[i] != b.Elems[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Pool is the append-only, structurally-deduplicated constant pool.
type Pool struct {
	values []Value
}

// Append interns v, returning its ConstantIndex; appending an equal Value
// returns the existing index rather than growing the pool (spec.md §4.C).
func (p *Pool) Append(v Value) int {
	for i, existing := range p.values {
		if equal(existing, v) {
			return i
		}
	}
	idx := len(p.values)
	p.values = append(p.values, v)
	return idx
}

// At returns the Value at idx.
func (p *Pool) At(idx int) Value { return p.values[idx] }

// Len reports the number of distinct constants.
func (p *Pool) Len() int { return len(p.values) }

// TypeOf computes the Type of a constant value given an interner for the
// tuple case — scalars carry their kind directly; tuples recurse over
// their element operands, each of which must already have a determinable
// type (immediate: its ImmediateKind; nested constant: recursive TypeOf).
// Used by internal/typecheck when resolving a CALL's argument tuple or a
// LOAD of a constant.
func (p *Pool) TypeOf(idx int, interner *types.Interner, operandType func(ir.Operand) *types.Type) *types.Type {
	v := p.At(idx)
	switch v.Kind {
	case Scalar:
		return v.ScalarKind.Type()
	case TupleValue:
		elems := make([]*types.Type, len(v.Elems))
		for i, op := range v.Elems {
			elems[i] = operandType(op)
		}
		return interner.Tuple(elems)
	default:
		return types.NilType()
	}
}
