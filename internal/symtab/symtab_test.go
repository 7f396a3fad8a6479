package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explang/expc/internal/ir"
)

func TestAtCreatesUndefinedOnFirstLookup(t *testing.T) {
	var tab Table
	sym := tab.At("foo")
	require.NotNil(t, sym)
	assert.Equal(t, "foo", sym.Name)
	assert.Equal(t, Undefined, sym.Kind)
}

func TestAtReturnsSameSymbolOnRepeatedLookup(t *testing.T) {
	var tab Table
	a := tab.At("foo")
	b := tab.At("foo")
	assert.Same(t, a, b)
}

func TestLookupDoesNotCreate(t *testing.T) {
	var tab Table
	sym, ok := tab.Lookup("missing")
	assert.False(t, ok)
	assert.Nil(t, sym)
}

func TestAllPreservesDeclarationOrder(t *testing.T) {
	var tab Table
	tab.At("c")
	tab.At("a")
	tab.At("b")

	var names []string
	for _, s := range tab.All() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestSymbolCanBeMarkedFunction(t *testing.T) {
	var tab Table
	sym := tab.At("main")
	sym.Kind = Function
	sym.Body = &ir.Function{Name: "main"}

	again, ok := tab.Lookup("main")
	require.True(t, ok)
	assert.Equal(t, Function, again.Kind)
	assert.NotNil(t, again.Body)
}
