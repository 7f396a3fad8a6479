// Package pipeline wires the per-compilation-unit stages together: typecheck
// every function symbol, lower each to x86 form, and hand the result to the
// assembly emitter. This is the part of spec.md §5's "parse → typecheck →
// per-symbol codegen → emit" pipeline that lives below the (out-of-scope)
// front end, so tests can drive it directly off a hand-built Context
// without a parser (spec.md §6.1's IR builder API is exactly how).
package pipeline

import (
	"github.com/pkg/errors"

	"github.com/explang/expc/internal/asmprint"
	"github.com/explang/expc/internal/codegen"
	"github.com/explang/expc/internal/ctx"
	"github.com/explang/expc/internal/layout"
	"github.com/explang/expc/internal/symtab"
	"github.com/explang/expc/internal/typecheck"
)

// Compile runs typecheck then codegen over every Function symbol in c,
// returning the rendered assembly text. The codegen phase runs only if
// typecheck succeeded (spec.md §7 propagation policy).
func Compile(c *ctx.Context) (string, error) {
	if !typecheck.Check(c) {
		return "", errors.Errorf("%d typecheck error(s) in %s", len(c.Errors), c.SourcePath)
	}

	lay := &layout.Engine{}
	unit := &asmprint.Unit{SourcePath: c.SourcePath, Labels: &c.Labels}
	for _, sym := range c.Symbols.All() {
		if sym.Kind != symtab.Function || sym.Body == nil {
			continue
		}
		unit.Functions = append(unit.Functions, codegen.Function(c, sym, lay))
	}
	return asmprint.Emit(unit), nil
}
