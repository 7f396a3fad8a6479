// Package lifetime implements the single backward pass over a function's
// block described in spec.md §3.5 / §4.H: for each SSA local, the interval
// [first_def, last_use] over block-relative instruction indices.
package lifetime

import "github.com/explang/expc/internal/ir"

// Lifetimes is a function's intervals, sorted by ascending FirstDef (ties
// broken by SSA number, spec.md §3.5).
type Lifetimes struct {
	Intervals []ir.Interval
}

// Of returns the interval for ssa, or false if ssa has no interval (never
// defined in this block — shouldn't happen for a well-formed function, but
// callers should check rather than index blindly).
func (l *Lifetimes) Of(ssa uint32) (ir.Interval, bool) {
	for _, iv := range l.Intervals {
		if iv.SSA == ssa {
			return iv, true
		}
	}
	return ir.Interval{}, false
}

// Compute runs the backward pass over fn.Block and returns the function's
// Lifetimes (spec.md §4.H).
//
// The pass scans from the last instruction to the first. Because it runs
// backward, the *last* write to first_def seen during the scan is actually
// the *earliest* definition in program order — so every defining
// instruction's index simply overwrites first_def as the scan reaches it.
// last_use is the running max of every index that references the local as
// B or C.
func Compute(fn *ir.Function) *Lifetimes {
	numLocals := 0
	for _, inst := range fn.Block.Instructions {
		if inst.A.Kind == ir.KindSSA && int(inst.A.SSA)+1 > numLocals {
			numLocals = int(inst.A.SSA) + 1
		}
	}
	// Formal arguments are "defined" before instruction 0 (first_def = 0 by
	// convention; no instruction in Block.Instructions ever writes A to a
	// formal argument's SSA number, so the scan below never touches them —
	// seed them explicitly).
	for _, a := range fn.FormalArguments {
		if int(a.SSA)+1 > numLocals {
			numLocals = int(a.SSA) + 1
		}
	}

	scratch := make([]ir.Interval, numLocals)
	seen := make([]bool, numLocals)
	for i := range scratch {
		scratch[i].SSA = uint32(i)
	}
	for _, a := range fn.FormalArguments {
		scratch[a.SSA].FirstDef = 0
		scratch[a.SSA].LastUse = 0
		seen[a.SSA] = true
	}

	insts := fn.Block.Instructions
	for i := len(insts) - 1; i >= 0; i-- {
		inst := insts[i]
		if inst.A.Kind == ir.KindSSA {
			scratch[inst.A.SSA].FirstDef = i
			if !seen[inst.A.SSA] {
				scratch[inst.A.SSA].LastUse = i
				seen[inst.A.SSA] = true
			}
		}
		if inst.B.Kind == ir.KindSSA {
			markUse(scratch, seen, inst.B.SSA, i)
		}
		if inst.C.Kind == ir.KindSSA {
			markUse(scratch, seen, inst.C.SSA, i)
		}
	}

	result := &Lifetimes{}
	for i := 0; i < numLocals; i++ {
		if !seen[i] {
			continue
		}
		insertSorted(result, scratch[i])
		// Also stamp the interval directly onto the Local so downstream
		// components (internal/regalloc) can read it without holding onto
		// this Lifetimes value.
		fn.Locals[i].Lifetime = scratch[i]
	}
	return result
}

func markUse(scratch []ir.Interval, seen []bool, ssa uint32, idx int) {
	if !seen[ssa] || idx > scratch[ssa].LastUse {
		scratch[ssa].LastUse = idx
	}
	seen[ssa] = true
}

// insertSorted performs the insertion-sort-by-FirstDef (ties by SSA)
// spec.md §4.H calls for; num_locals is small so this is never a hot path.
func insertSorted(l *Lifetimes, iv ir.Interval) {
	i := len(l.Intervals)
	l.Intervals = append(l.Intervals, iv)
	for i > 0 {
		prev := l.Intervals[i-1]
		if prev.FirstDef < iv.FirstDef || (prev.FirstDef == iv.FirstDef && prev.SSA <= iv.SSA) {
			break
		}
		l.Intervals[i] = prev
		i--
	}
	l.Intervals[i] = iv
}
