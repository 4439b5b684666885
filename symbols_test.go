// Symbol table tests: no shadowing, stable slot assignment.

package chasm

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestSymbolTableDeclareAssignsSequentialSlots(t *testing.T) {
	st := newSymbolTable()
	be.Equal(t, st.declare("x"), uint32(0))
	be.Equal(t, st.declare("y"), uint32(1))
	be.Equal(t, st.declare("z"), uint32(2))
	be.Equal(t, st.count(), 3)
}

func TestSymbolTableRedeclareReusesSlot(t *testing.T) {
	st := newSymbolTable()
	idx := st.declare("x")
	be.Equal(t, st.declare("x"), idx)
	be.Equal(t, st.count(), 1)
}

func TestSymbolTableLookupUndeclared(t *testing.T) {
	st := newSymbolTable()
	_, ok := st.lookup("missing")
	be.Equal(t, ok, false)
}

func TestSymbolTableLookupDeclared(t *testing.T) {
	st := newSymbolTable()
	idx := st.declare("a")
	got, ok := st.lookup("a")
	be.Equal(t, ok, true)
	be.Equal(t, got, idx)
}

func TestSymbolTableWithParams(t *testing.T) {
	st := newSymbolTableWithParams([]string{"a", "b", "c"})
	for i, name := range []string{"a", "b", "c"} {
		idx, ok := st.lookup(name)
		be.Equal(t, ok, true)
		be.Equal(t, idx, uint32(i))
	}
	be.Equal(t, st.count(), 3)
}
