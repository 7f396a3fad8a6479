package strtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternDedupesByContent(t *testing.T) {
	var in Interner
	a := in.Intern("foo")
	b := in.Intern("foo")
	assert.Same(t, a, b)
	assert.Equal(t, 1, in.Len())

	c := in.Intern("bar")
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, in.Len())
}

func TestViewStringOnNilIsEmpty(t *testing.T) {
	var v *View
	assert.Equal(t, "", v.String())
}

func TestLabelsAppendDedupesAndIndexes(t *testing.T) {
	var in Interner
	var labels Labels

	i0 := labels.Append(in.Intern("main"))
	i1 := labels.Append(in.Intern("helper"))
	i2 := labels.Append(in.Intern("main"))

	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	assert.Equal(t, i0, i2, "re-appending the same name returns the existing index")
	assert.Equal(t, 2, labels.Len())
}

func TestLabelsAtReturnsInsertedEntry(t *testing.T) {
	var in Interner
	var labels Labels
	idx := labels.Append(in.Intern("entry"))
	lbl := labels.At(idx)
	require.NotNil(t, lbl)
	assert.Equal(t, idx, lbl.Index)
	assert.Equal(t, "entry", lbl.Name.String())
}
