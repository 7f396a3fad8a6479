// Package symtab implements the global symbol table described in
// spec.md §3.4 / §4.E. Like internal/strtab, this is a plain Go map rather
// than a hand-rolled open-addressed table — see the redesign flag in
// spec.md §9.
package symtab

import (
	"github.com/explang/expc/internal/ir"
	"github.com/explang/expc/internal/types"
)

// Kind tags whether a Symbol has been resolved to a function body yet.
type Kind int

const (
	Undefined Kind = iota
	Function
)

// Symbol is a global symbol: a name, its kind, its type (nil until
// typechecked), and its function body once one exists.
type Symbol struct {
	Name string
	Kind Kind
	Type *types.Type
	Body *ir.Function

	// Typechecking state, so the typechecker (internal/typecheck) can detect
	// mutually recursive functions and report the defect named in spec.md
	// §9 rather than recursing forever — see DESIGN.md's Open Question #2.
	Checking bool
	Checked  bool
}

// Table is the open-addressed-by-contract (map-backed) symbol table.
// At(name) inserts an Undefined symbol on first reference, matching
// spec.md's "at(name) → &Symbol inserts an Undefined symbol on miss".
type Table struct {
	byName map[string]*Symbol
	order  []*Symbol // insertion order, for deterministic iteration
}

// At returns the Symbol named name, creating an Undefined one if absent.
func (t *Table) At(name string) *Symbol {
	if t.byName == nil {
		t.byName = make(map[string]*Symbol)
	}
	if sym, ok := t.byName[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name, Kind: Undefined}
	t.byName[name] = sym
	t.order = append(t.order, sym)
	return sym
}

// Lookup returns the Symbol named name without inserting, and whether it
// was present.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// All iterates only occupied slots, in insertion order (spec.md: "Iteration
// visits only occupied slots").
func (t *Table) All() []*Symbol {
	return t.order
}
