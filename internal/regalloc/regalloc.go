// Package regalloc implements the linear-scan register/stack allocator
// described in spec.md §3.6 / §4.I. Allocations are issued in program order
// by the instruction selector (internal/codegen); every state transition
// here is therefore sequenced exactly as codegen walks the block, so the
// allocator's bookkeeping always reflects the dynamic order of the x86
// instruction stream emitted so far (spec.md §5).
//
// Open Question #3 (spec.md §9, carried verbatim): spills use a uniform
// 8-byte stack slot regardless of the spilled value's actual layout size.
// Layout-aware sizing is the documented TODO for a reimplementation; this
// allocator keeps the uniform-slot behavior so its externally observable
// frame layout matches the spec exactly.
package regalloc

import (
	"github.com/explang/expc/internal/ir"
	"github.com/explang/expc/internal/x86"
)

// allocatableOrder is the GPR preference order for allocate()/acquireAnyGPR.
// RSP and RBP are never in this list: they are "pre-acquired and never
// freed" per spec.md §4.I.
var allocatableOrder = []x86.GPR{
	x86.RAX, x86.RCX, x86.RDX, x86.RBX, x86.RSI, x86.RDI,
	x86.R8, x86.R9, x86.R10, x86.R11, x86.R12, x86.R13, x86.R14, x86.R15,
}

const spillSlotSize = 8 // uniform slot size — Open Question #3 above

// Allocator is the per-function allocator state: which GPRs are active,
// which stack slots are live, and the high-water stack size.
type Allocator struct {
	block *x86.Block // where spill/rename/reallocate moves are emitted

	active          map[x86.GPR]*x86.Allocation
	activeStack     []*x86.Allocation
	activeStackSize int
	totalStackSize  int

	bySSA map[uint32]*x86.Allocation
}

// New creates an Allocator that emits bookkeeping moves into block.
func New(block *x86.Block) *Allocator {
	return &Allocator{
		block:  block,
		active: make(map[x86.GPR]*x86.Allocation),
		bySSA:  make(map[uint32]*x86.Allocation),
	}
}

// TotalStackSize is the high-water mark used to size the stack frame
// (rounded to 16 bytes by the caller, spec.md §4.L prologue).
func (a *Allocator) TotalStackSize() int { return a.totalStackSize }

// AllocationOf returns the Allocation for ssa. Panics if none exists: every
// SSA local codegen references must already have been allocated by program
// order (I-IR2).
func (a *Allocator) AllocationOf(ssa uint32) *x86.Allocation {
	alloc, ok := a.bySSA[ssa]
	if !ok {
		panic("regalloc: no allocation for SSA local — codegen referenced it before defining it")
	}
	return alloc
}

func (a *Allocator) emit(inst x86.Instruction) { a.block.Emit(inst) }

// expire releases any active GPR or stack allocation whose lifetime has
// already ended strictly before blockIndex.
func (a *Allocator) expire(blockIndex int) {
	for gpr, alloc := range a.active {
		if alloc.LifetimeEnd < blockIndex {
			delete(a.active, gpr)
		}
	}
	kept := a.activeStack[:0]
	for _, alloc := range a.activeStack {
		if alloc.LifetimeEnd < blockIndex {
			a.activeStackSize -= spillSlotSize
		} else {
			kept = append(kept, alloc)
		}
	}
	a.activeStack = kept
}

func (a *Allocator) freeGPR() (x86.GPR, bool) {
	for _, g := range allocatableOrder {
		if _, busy := a.active[g]; !busy {
			return g, true
		}
	}
	return 0, false
}

// oldestActive returns the active GPR allocation with the largest
// LifetimeEnd (the one that dies last), per spec.md §4.I's spill-the-oldest
// rule. Entries with no SSA local behind them (Reserve, AcquireAnyGPR) are
// never chosen.
func (a *Allocator) oldestActive() (x86.GPR, *x86.Allocation, bool) {
	var bestGPR x86.GPR
	var best *x86.Allocation
	for g, alloc := range a.active {
		if alloc.Type == nil {
			continue
		}
		if best == nil || alloc.LifetimeEnd > best.LifetimeEnd {
			bestGPR, best = g, alloc
		}
	}
	return bestGPR, best, best != nil
}

func (a *Allocator) newAllocation(local *ir.Local) *x86.Allocation {
	alloc := &x86.Allocation{SSA: local.SSA, Type: local.Type, LifetimeEnd: local.Lifetime.LastUse}
	a.bySSA[local.SSA] = alloc
	return alloc
}

// spillToStack clears gpr's bit, grows the stack frame by one slot, points
// alloc at the new [RBP-offset] address, and emits the mov that writes the
// register out (spec.md §4.I.1).
func (a *Allocator) spillToStack(gpr x86.GPR, alloc *x86.Allocation) {
	delete(a.active, gpr)
	a.activeStackSize += spillSlotSize
	if a.activeStackSize > a.totalStackSize {
		a.totalStackSize = a.activeStackSize
	}
	addr := x86.Address{Base: x86.RBP, Offset: -int64(a.activeStackSize)}
	alloc.Location = x86.InAddress(addr)
	a.activeStack = append(a.activeStack, alloc)
	a.emit(x86.Instruction{Op: x86.MOV, Dst: x86.Mem(addr), Src: x86.Reg(gpr), NSrc: 2})
}

func (a *Allocator) placeInGPR(gpr x86.GPR, alloc *x86.Allocation) {
	alloc.Location = x86.InRegister(gpr)
	a.active[gpr] = alloc
}

// Allocate is the general allocate(local, block_index) operation: release
// expired allocations, then try a free GPR; else spill the oldest active
// allocation unless it outlives the new one, in which case the new local
// goes straight to the stack (spec.md §4.I).
func (a *Allocator) Allocate(local *ir.Local, blockIndex int) *x86.Allocation {
	a.expire(blockIndex)
	alloc := a.newAllocation(local)

	if gpr, ok := a.freeGPR(); ok {
		a.placeInGPR(gpr, alloc)
		return alloc
	}

	oldestGPR, oldest, any := a.oldestActive()
	if any && oldest.LifetimeEnd <= alloc.LifetimeEnd {
		a.spillToStack(oldestGPR, oldest)
		a.placeInGPR(oldestGPR, alloc)
		return alloc
	}

	// Either nothing is active (impossible here since freeGPR already
	// failed) or the oldest active allocation outlives the new one: the new
	// local goes to the stack instead.
	a.activeStackSize += spillSlotSize
	if a.activeStackSize > a.totalStackSize {
		a.totalStackSize = a.activeStackSize
	}
	addr := x86.Address{Base: x86.RBP, Offset: -int64(a.activeStackSize)}
	alloc.Location = x86.InAddress(addr)
	a.activeStack = append(a.activeStack, alloc)
	return alloc
}

// AllocateToAnyGPR is like Allocate but skips the prefer-stack heuristic:
// it always ends up in a register, spilling the oldest active allocation
// if none is free. Used when the instruction form requires a register
// destination (e.g. ADD when neither operand is in a register, spec.md §4.L).
func (a *Allocator) AllocateToAnyGPR(local *ir.Local, blockIndex int) *x86.Allocation {
	a.expire(blockIndex)
	alloc := a.newAllocation(local)

	if gpr, ok := a.freeGPR(); ok {
		a.placeInGPR(gpr, alloc)
		return alloc
	}
	oldestGPR, oldest, any := a.oldestActive()
	if !any {
		panic("regalloc: no free GPR and nothing active to spill")
	}
	a.spillToStack(oldestGPR, oldest)
	a.placeInGPR(oldestGPR, alloc)
	return alloc
}

// AllocateToGPR force-acquires gpr for local. If gpr is currently held by a
// live allocation, that allocation is reallocated elsewhere first
// (spec.md §4.I.2).
func (a *Allocator) AllocateToGPR(local *ir.Local, gpr x86.GPR, blockIndex int) *x86.Allocation {
	a.expire(blockIndex)
	if holder, busy := a.active[gpr]; busy {
		a.reallocateActive(gpr, holder, blockIndex)
	}
	alloc := a.newAllocation(local)
	a.placeInGPR(gpr, alloc)
	return alloc
}

// reallocateActive moves the allocation currently in gpr to another free
// GPR (emitting a register-to-register mov and updating its Location), or
// spills it if no GPR is free (spec.md §4.I.2).
func (a *Allocator) reallocateActive(gpr x86.GPR, alloc *x86.Allocation, blockIndex int) {
	if dest, ok := a.freeGPR(); ok {
		delete(a.active, gpr)
		a.emit(x86.Instruction{Op: x86.MOV, Dst: x86.Reg(dest), Src: x86.Reg(gpr), NSrc: 2})
		a.placeInGPR(dest, alloc)
		return
	}
	a.spillToStack(gpr, alloc)
}

// AllocateFromActive implements the "rename" operation: if active's
// interval already ends at or before blockIndex, the new local reuses its
// storage with no emitted move; otherwise a fresh allocation is made and a
// move from active's location is emitted (spec.md §4.I).
func (a *Allocator) AllocateFromActive(local *ir.Local, active *x86.Allocation, blockIndex int) *x86.Allocation {
	if active.LifetimeEnd <= blockIndex {
		// Dies here (or already dead): rename in place, no move.
		a.expire(blockIndex)
		alloc := &x86.Allocation{SSA: local.SSA, Type: local.Type, LifetimeEnd: local.Lifetime.LastUse, Location: active.Location}
		a.bySSA[local.SSA] = alloc
		// The storage active occupied now belongs to alloc under the new
		// SSA number — re-key the register/stack bookkeeping so future
		// expire()/spill() calls see the right owner.
		switch active.Location.Kind {
		case x86.InGPR:
			a.active[active.Location.GPR] = alloc
		case x86.InMemory:
			for i, s := range a.activeStack {
				if s == active {
					a.activeStack[i] = alloc
				}
			}
		}
		return alloc
	}
	fresh := a.Allocate(local, blockIndex)
	a.emitMoveFromLocation(fresh, active.Location)
	return fresh
}

func (a *Allocator) emitMoveFromLocation(dst *x86.Allocation, src x86.Location) {
	var srcOperand x86.Operand
	switch src.Kind {
	case x86.InGPR:
		srcOperand = x86.Reg(src.GPR)
	case x86.InMemory:
		srcOperand = x86.Mem(src.Addr)
	}
	a.emit(x86.Instruction{Op: x86.MOV, Dst: locationOperand(dst.Location), Src: srcOperand, NSrc: 2})
}

func locationOperand(loc x86.Location) x86.Operand {
	switch loc.Kind {
	case x86.InGPR:
		return x86.Reg(loc.GPR)
	default:
		return x86.Mem(loc.Addr)
	}
}

// AcquireAnyGPR is transient scratch acquisition: spills the oldest active
// allocation if none is free, but — unlike Allocate/AllocateToAnyGPR — does
// not register any SSA-backed Allocation for the result; the caller frees
// it with ReleaseGPR once done.
func (a *Allocator) AcquireAnyGPR(blockIndex int) x86.GPR {
	a.expire(blockIndex)
	if gpr, ok := a.freeGPR(); ok {
		a.active[gpr] = &x86.Allocation{LifetimeEnd: blockIndex}
		return gpr
	}
	oldestGPR, oldest, any := a.oldestActive()
	if !any {
		panic("regalloc: no free GPR and nothing active to spill for scratch acquisition")
	}
	a.spillToStack(oldestGPR, oldest)
	a.active[oldestGPR] = &x86.Allocation{LifetimeEnd: blockIndex}
	return oldestGPR
}

// ReleaseGPR frees gpr. If its current holder's lifetime still extends
// past blockIndex, the holder is reallocated out of the way first;
// otherwise the register is simply cleared (spec.md §4.I).
func (a *Allocator) ReleaseGPR(gpr x86.GPR, blockIndex int) {
	holder, busy := a.active[gpr]
	if !busy {
		return
	}
	if holder.LifetimeEnd > blockIndex {
		a.reallocateActive(gpr, holder, blockIndex)
		return
	}
	delete(a.active, gpr)
}

// AllocateOnStack forces local directly onto the stack, bypassing the
// free-GPR search entirely. internal/codegen uses this for aggregate
// (tuple) values: a value spread across several fields needs an
// addressable destination for the element-wise copy its DOT/CALL/RETURN
// lowering performs, not a single GPR. Like every other spill slot, this
// uses the uniform 8-byte granularity named in spec.md §4.I.1 — for a
// tuple wider than one slot this undersizes the reservation, a direct
// consequence of Open Question #3 (layout-aware sizing is the documented
// fix for a reimplementation, not applied here).
func (a *Allocator) AllocateOnStack(local *ir.Local, blockIndex int) *x86.Allocation {
	a.expire(blockIndex)
	alloc := a.newAllocation(local)
	a.activeStackSize += spillSlotSize
	if a.activeStackSize > a.totalStackSize {
		a.totalStackSize = a.activeStackSize
	}
	addr := x86.Address{Base: x86.RBP, Offset: -int64(a.activeStackSize)}
	alloc.Location = x86.InAddress(addr)
	a.activeStack = append(a.activeStack, alloc)
	return alloc
}

// RegisterIncoming records a pre-existing Allocation for ssa without
// folding it into the active-GPR/stack bookkeeping. Used for caller-owned
// storage the allocator never spills or reallocates — stack-passed
// incoming arguments addressed [RBP+16+...] (spec.md §4.K/L step 2).
func (a *Allocator) RegisterIncoming(ssa uint32, alloc *x86.Allocation) {
	a.bySSA[ssa] = alloc
}

// Reserve marks gpr permanently occupied until untilIndex, so it is never
// handed out by freeGPR/oldestActive. Used to protect the hidden
// aggregate-result pointer that lives in a fixed GPR (System V: rdi)
// outside the SSA local set for the whole function body.
func (a *Allocator) Reserve(gpr x86.GPR, untilIndex int) {
	a.active[gpr] = &x86.Allocation{LifetimeEnd: untilIndex}
}
