// Package asmprint implements the assembly emitter described in
// spec.md §3.7 / §4.M: it renders a compilation unit's x86 functions to a
// single AT&T-syntax GNU-assembler text file, driving internal/x86's
// Printer for operand/instruction formatting.
package asmprint

import (
	"fmt"
	"strings"

	"github.com/explang/expc/internal/strtab"
	"github.com/explang/expc/internal/x86"
)

// version is embedded in the footer's .ident directive (spec.md §4.M).
const version = "expc 0.1"

// Unit is everything the emitter needs for one compilation unit: the
// source path (for the header's .file directive) and the x86 functions to
// emit, in the order they should appear in the output.
type Unit struct {
	SourcePath string
	Functions  []*x86.Function
	Labels     *strtab.Labels
}

// Emit renders u to a single .s file's contents.
func Emit(u *Unit) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, ".file\t%q\n", u.SourcePath)
	// Hard-coded target — open question per spec.md §9: should be derived
	// from a target triple in a reimplementation that supports more than
	// one CPU.
	sb.WriteString(".arch znver3\n")

	p := &x86.Printer{ResolveLabel: labelResolver(u.Labels)}
	for _, fn := range u.Functions {
		emitFunction(&sb, p, fn)
	}

	fmt.Fprintf(&sb, ".ident\t%q\n", version)
	sb.WriteString(".section .note.GNU-stack,\"\",@progbits\n")
	return sb.String()
}

func labelResolver(labels *strtab.Labels) x86.LabelResolver {
	if labels == nil {
		return nil
	}
	return func(idx int) string {
		return labels.At(idx).Name.String()
	}
}

func emitFunction(sb *strings.Builder, p *x86.Printer, fn *x86.Function) {
	fmt.Fprintf(sb, ".globl\t%s\n", fn.Name)
	sb.WriteString(".text\n")
	fmt.Fprintf(sb, ".type\t%s,@function\n", fn.Name)
	fmt.Fprintf(sb, "%s:\n", fn.Name)
	sb.WriteString(p.FormatBlock(&fn.Block))
	fmt.Fprintf(sb, ".size\t%s,.-%s\n", fn.Name, fn.Name)
}
