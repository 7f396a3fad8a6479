// Package layout implements the x86 layout engine described in
// spec.md §3.6 / §4.J: size/alignment of scalar and tuple types with
// System V x86-64 padding rules, cached per type pointer.
package layout

import "github.com/explang/expc/internal/types"

// Kind tags which alternative of Layout is populated.
type Kind int

const (
	ScalarLayout Kind = iota
	PaddingLayout
	TupleLayout
)

// Layout describes the physical shape of a value: a bare scalar, an
// inserted padding run, or a tuple of sub-layouts at increasing offsets.
type Layout struct {
	Kind  Kind
	Size  int
	Align int

	// TupleLayout
	Elements []*Layout
	Offsets  []int // Offsets[i] is the byte offset of Elements[i]

	// PaddingLayout
	PadBytes int
}

// Engine caches Layouts by type pointer and deduplicates padding layouts by
// byte count (spec.md §3.6).
type Engine struct {
	byType    map[*types.Type]*Layout
	paddingBy map[int]*Layout
}

func (e *Engine) padding(n int) *Layout {
	if e.paddingBy == nil {
		e.paddingBy = make(map[int]*Layout)
	}
	if l, ok := e.paddingBy[n]; ok {
		return l
	}
	l := &Layout{Kind: PaddingLayout, Size: n, Align: 1, PadBytes: n}
	e.paddingBy[n] = l
	return l
}

// Of returns (computing and caching on first use) the Layout of t.
func (e *Engine) Of(t *types.Type) *Layout {
	if e.byType == nil {
		e.byType = make(map[*types.Type]*Layout)
	}
	if l, ok := e.byType[t]; ok {
		return l
	}
	var l *Layout
	if t.Kind() == types.Tuple {
		l = e.tupleLayout(t)
	} else {
		size := types.SizeOf(t)
		align := types.AlignOf(t)
		l = &Layout{Kind: ScalarLayout, Size: size, Align: align}
	}
	e.byType[t] = l
	return l
}

// tupleLayout walks elements in order, inserting a deduplicated Padding
// layout before any element whose alignment isn't satisfied by the current
// offset (spec.md §4.J).
func (e *Engine) tupleLayout(t *types.Type) *Layout {
	elemTypes := t.Elems()
	tl := &Layout{Kind: TupleLayout}
	offset := 0
	maxAlign := 1
	for _, et := range elemTypes {
		elemLayout := e.Of(et)
		if elemLayout.Align > maxAlign {
			maxAlign = elemLayout.Align
		}
		if rem := offset % elemLayout.Align; rem != 0 {
			pad := elemLayout.Align - rem
			tl.Elements = append(tl.Elements, e.padding(pad))
			tl.Offsets = append(tl.Offsets, offset)
			offset += pad
		}
		tl.Elements = append(tl.Elements, elemLayout)
		tl.Offsets = append(tl.Offsets, offset)
		offset += elemLayout.Size
	}
	tl.Size = offset
	tl.Align = maxAlign
	return tl
}

// OffsetOf returns the byte offset of the idx-th *semantic* element of a
// tuple Layout (i.e. skipping over any inserted Padding entries) — this is
// what internal/codegen's DOT lowering needs: the address of logical
// element idx, not physical slot idx.
func (tl *Layout) OffsetOf(idx int) (offset int, elem *Layout) {
	semantic := 0
	for i, e := range tl.Elements {
		if e.Kind == PaddingLayout {
			continue
		}
		if semantic == idx {
			return tl.Offsets[i], e
		}
		semantic++
	}
	panic("layout: element index out of range")
}
