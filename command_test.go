package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// snapshot captures cell raw text and metadata for equality checks.
type gridSnapshot struct {
	cells map[Address]string
	meta  map[string]map[Address]any
}

func snapshotGrid(g *Grid) gridSnapshot {
	snap := gridSnapshot{
		cells: make(map[Address]string),
		meta:  make(map[string]map[Address]any),
	}
	for addr := range g.cells {
		snap.cells[addr] = g.GetRaw(addr)
	}
	for _, name := range g.MetadataNames() {
		entries := make(map[Address]any)
		g.Metadata(name).Each(func(addr Address, v any) {
			entries[addr] = v
		})
		snap.meta[name] = entries
	}
	return snap
}

func TestInsertRowsShiftsCellsAndMetadata(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A1", "top"))
	require.NoError(t, g.Set("B2", "middle"))
	require.NoError(t, g.Set("B4", "bottom"))
	g.Metadata("style").Set(Address{Row: 1, Col: 1}, "bold")

	require.NoError(t, g.InsertRows(1, 2))

	// row 0 stays, rows >= 1 move down by 2
	require.Equal(t, "top", g.GetRaw(Address{Row: 0, Col: 0}))
	require.Equal(t, "", g.GetRaw(Address{Row: 1, Col: 1}))
	require.Equal(t, "middle", g.GetRaw(Address{Row: 3, Col: 1}))
	require.Equal(t, "bottom", g.GetRaw(Address{Row: 5, Col: 1}))

	// metadata followed its cell
	_, ok := g.Metadata("style").Get(Address{Row: 1, Col: 1})
	require.False(t, ok)
	v, ok := g.Metadata("style").Get(Address{Row: 3, Col: 1})
	require.True(t, ok)
	require.Equal(t, "bold", v)
}

func TestInsertColumnsShiftsCells(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A1", "left"))
	require.NoError(t, g.Set("C1", "right"))

	require.NoError(t, g.InsertColumns(1, 1))

	require.Equal(t, "left", g.GetRaw(Address{Row: 0, Col: 0}))
	require.Equal(t, "right", g.GetRaw(Address{Row: 0, Col: 3}))
}

func TestRemoveRowsCapturesAndRestores(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A1", "keep"))
	require.NoError(t, g.Set("A2", "gone1"))
	require.NoError(t, g.Set("A3", "gone2"))
	require.NoError(t, g.Set("A4", "shifted"))
	g.Metadata("style").Set(Address{Row: 1, Col: 0}, "red")
	g.Metadata("note").Set(Address{Row: 3, Col: 0}, "hello")

	before := snapshotGrid(g)

	require.NoError(t, g.RemoveRows(1, 2))

	require.Equal(t, "keep", g.GetRaw(Address{Row: 0, Col: 0}))
	require.Equal(t, "shifted", g.GetRaw(Address{Row: 1, Col: 0}))
	require.Equal(t, 2, g.Len())
	_, ok := g.Metadata("style").Get(Address{Row: 1, Col: 0})
	require.False(t, ok)
	v, ok := g.Metadata("note").Get(Address{Row: 1, Col: 0})
	require.True(t, ok)
	require.Equal(t, "hello", v)

	// undo restores the removed band and metadata exactly
	require.True(t, g.Undo())
	require.Equal(t, before, snapshotGrid(g))
}

func TestRemoveColumnsCapturesAndRestores(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A1", "keep"))
	require.NoError(t, g.Set("B1", "gone"))
	require.NoError(t, g.Set("C1", "shifted"))
	g.Metadata("width").Set(Address{Row: 0, Col: 1}, 42)

	before := snapshotGrid(g)

	require.NoError(t, g.RemoveColumns(1, 1))
	require.Equal(t, "shifted", g.GetRaw(Address{Row: 0, Col: 1}))
	require.Equal(t, 2, g.Len())

	require.True(t, g.Undo())
	require.Equal(t, before, snapshotGrid(g))
}

func TestRedoUndoIsNoOp(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A1", "a"))
	require.NoError(t, g.Set("B2", "=A1&\"x\""))
	require.NoError(t, g.Set("C3", "c"))
	g.Metadata("style").Set(Address{Row: 2, Col: 2}, "italic")

	before := snapshotGrid(g)

	commands := []Command{
		&InsertRowsCommand{Row: 0, Count: 3},
		&RemoveRowsCommand{Row: 1, Count: 1},
		&InsertColumnsCommand{Col: 1, Count: 2},
		&RemoveColumnsCommand{Col: 0, Count: 2},
	}

	// each command individually round-trips
	for _, cmd := range commands {
		require.NoError(t, g.Apply(cmd))
		require.True(t, g.Undo())
		require.Equal(t, before, snapshotGrid(g), "command %s", cmd)
	}

	// and a whole sequence unwinds in reverse order
	for _, cmd := range commands {
		require.NoError(t, g.Apply(cmd))
	}
	for range commands {
		require.True(t, g.Undo())
	}
	require.Equal(t, before, snapshotGrid(g))
}

func TestRedoReappliesEdit(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A2", "x"))

	require.NoError(t, g.InsertRows(0, 1))
	after := snapshotGrid(g)

	require.True(t, g.Undo())
	require.True(t, g.Redo())
	require.Equal(t, after, snapshotGrid(g))

	// a second redo has nothing to do
	require.False(t, g.Redo())
}

func TestNewEditClearsRedo(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A1", "x"))

	require.NoError(t, g.InsertRows(0, 1))
	require.True(t, g.Undo())
	require.Equal(t, 1, g.History().RedoLen())

	require.NoError(t, g.InsertColumns(0, 1))
	require.Equal(t, 0, g.History().RedoLen())
	require.False(t, g.Redo())
}

func TestUndoOnEmptyHistory(t *testing.T) {
	g := NewGrid()
	require.False(t, g.Undo())
	require.False(t, g.Redo())
}

func TestHistoryLimitDropsOldest(t *testing.T) {
	g := NewGrid(WithHistoryLimit(2))

	require.NoError(t, g.InsertRows(0, 1))
	require.NoError(t, g.InsertRows(0, 1))
	require.NoError(t, g.InsertRows(0, 1))

	require.Equal(t, 2, g.History().UndoLen())
	require.True(t, g.Undo())
	require.True(t, g.Undo())
	require.False(t, g.Undo())
}

func TestCommandValidation(t *testing.T) {
	g := NewGrid()

	require.Error(t, g.InsertRows(-1, 1))
	require.Error(t, g.InsertRows(0, 0))
	require.Error(t, g.RemoveColumns(0, -2))

	// failed validation records nothing
	require.Equal(t, 0, g.History().UndoLen())
}

func TestFormulaTextIsNotRewritten(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A1", "5"))
	require.NoError(t, g.Set("B1", "=A1*2"))

	require.NoError(t, g.InsertRows(0, 1))

	// the formula moved but its text still names A1, which is now empty
	require.Equal(t, "=A1*2", g.GetRaw(Address{Row: 1, Col: 1}))
	v := g.GetCell(Address{Row: 1, Col: 1})
	require.Equal(t, 0.0, v)
}
