package gridcalc

import (
	"fmt"

	"github.com/gammazero/deque"
)

// DefaultHistoryLimit bounds the undo history when no limit is configured.
const DefaultHistoryLimit = 100

// Command is a reversible structural edit. Redo applies the edit and Undo
// reverts it; Redo followed by Undo leaves cells and every metadata store
// exactly as they were. Commands re-key addresses only, formula text is
// never rewritten.
type Command interface {
	Validate() error
	Redo(g *Grid)
	Undo(g *Grid)
	String() string
}

// History sequences commands on bounded undo/redo stacks. A new edit
// clears the redo stack; the oldest undo entries are dropped once the
// limit is reached.
type History struct {
	undo  deque.Deque[Command]
	redo  deque.Deque[Command]
	limit int
}

// NewHistory creates a history retaining at most limit commands.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push records an applied command and clears the redo stack.
func (h *History) Push(cmd Command) {
	h.undo.PushBack(cmd)
	for h.undo.Len() > h.limit {
		h.undo.PopFront()
	}
	h.redo.Clear()
}

// PopUndo moves the most recent command to the redo stack and returns it.
func (h *History) PopUndo() (Command, bool) {
	if h.undo.Len() == 0 {
		return nil, false
	}
	cmd := h.undo.PopBack()
	h.redo.PushBack(cmd)
	return cmd, true
}

// PopRedo moves the most recently undone command back to the undo stack
// and returns it.
func (h *History) PopRedo() (Command, bool) {
	if h.redo.Len() == 0 {
		return nil, false
	}
	cmd := h.redo.PopBack()
	h.undo.PushBack(cmd)
	return cmd, true
}

// UndoLen returns how many commands can be undone.
func (h *History) UndoLen() int {
	return h.undo.Len()
}

// RedoLen returns how many commands can be redone.
func (h *History) RedoLen() int {
	return h.redo.Len()
}

func validateBand(index, count int) error {
	if index < 0 {
		return NewEngineError(OutOfRange, fmt.Sprintf("index must not be negative: %d", index))
	}
	if count <= 0 {
		return NewEngineError(InvalidArgument, fmt.Sprintf("count must be positive: %d", count))
	}
	return nil
}

// metadataSnapshot captures the metadata entries inside a removed band,
// keyed by store name.
type metadataSnapshot map[string]map[Address]any

func captureMetadata(g *Grid, inBand func(Address) bool) metadataSnapshot {
	snap := make(metadataSnapshot)
	for name, store := range g.metadata {
		for addr, v := range store.entries {
			if inBand(addr) {
				if snap[name] == nil {
					snap[name] = make(map[Address]any)
				}
				snap[name][addr] = v
			}
		}
	}
	return snap
}

func restoreMetadata(g *Grid, snap metadataSnapshot) {
	for name, entries := range snap {
		store := g.Metadata(name)
		for addr, v := range entries {
			store.entries[addr] = v
		}
	}
}

// InsertRowsCommand shifts rows at and below Row down by Count, opening a
// band of empty rows.
type InsertRowsCommand struct {
	Row   int
	Count int
}

func (c *InsertRowsCommand) Validate() error {
	return validateBand(c.Row, c.Count)
}

func (c *InsertRowsCommand) Redo(g *Grid) {
	shift := func(a Address) (Address, bool) {
		if a.Row >= c.Row {
			return Address{Row: a.Row + c.Count, Col: a.Col}, true
		}
		return a, true
	}
	g.shiftCells(shift)
	g.shiftMetadata(shift)
}

func (c *InsertRowsCommand) Undo(g *Grid) {
	// the inserted band is empty, shifting back loses nothing
	shift := func(a Address) (Address, bool) {
		if a.Row >= c.Row+c.Count {
			return Address{Row: a.Row - c.Count, Col: a.Col}, true
		}
		return a, true
	}
	g.shiftCells(shift)
	g.shiftMetadata(shift)
}

func (c *InsertRowsCommand) String() string {
	return fmt.Sprintf("insert %d row(s) at %d", c.Count, c.Row)
}

// RemoveRowsCommand deletes Count rows starting at Row. The removed cells
// and metadata are captured inside the command on Redo, so Undo restores
// them exactly. Each Redo captures afresh.
type RemoveRowsCommand struct {
	Row   int
	Count int

	savedCells map[Address]*Cell
	savedMeta  metadataSnapshot
}

func (c *RemoveRowsCommand) Validate() error {
	return validateBand(c.Row, c.Count)
}

func (c *RemoveRowsCommand) inBand(a Address) bool {
	return a.Row >= c.Row && a.Row < c.Row+c.Count
}

func (c *RemoveRowsCommand) Redo(g *Grid) {
	c.savedCells = make(map[Address]*Cell)
	for addr, cell := range g.cells {
		if c.inBand(addr) {
			c.savedCells[addr] = cell
		}
	}
	c.savedMeta = captureMetadata(g, c.inBand)

	shift := func(a Address) (Address, bool) {
		if c.inBand(a) {
			return Address{}, false
		}
		if a.Row >= c.Row+c.Count {
			return Address{Row: a.Row - c.Count, Col: a.Col}, true
		}
		return a, true
	}
	g.shiftCells(shift)
	g.shiftMetadata(shift)
}

func (c *RemoveRowsCommand) Undo(g *Grid) {
	shift := func(a Address) (Address, bool) {
		if a.Row >= c.Row {
			return Address{Row: a.Row + c.Count, Col: a.Col}, true
		}
		return a, true
	}
	g.shiftCells(shift)
	g.shiftMetadata(shift)

	for addr, cell := range c.savedCells {
		g.cells[addr] = cell
	}
	restoreMetadata(g, c.savedMeta)
}

func (c *RemoveRowsCommand) String() string {
	return fmt.Sprintf("remove %d row(s) at %d", c.Count, c.Row)
}

// InsertColumnsCommand shifts columns at and right of Col right by Count,
// opening a band of empty columns.
type InsertColumnsCommand struct {
	Col   int
	Count int
}

func (c *InsertColumnsCommand) Validate() error {
	return validateBand(c.Col, c.Count)
}

func (c *InsertColumnsCommand) Redo(g *Grid) {
	shift := func(a Address) (Address, bool) {
		if a.Col >= c.Col {
			return Address{Row: a.Row, Col: a.Col + c.Count}, true
		}
		return a, true
	}
	g.shiftCells(shift)
	g.shiftMetadata(shift)
}

func (c *InsertColumnsCommand) Undo(g *Grid) {
	shift := func(a Address) (Address, bool) {
		if a.Col >= c.Col+c.Count {
			return Address{Row: a.Row, Col: a.Col - c.Count}, true
		}
		return a, true
	}
	g.shiftCells(shift)
	g.shiftMetadata(shift)
}

func (c *InsertColumnsCommand) String() string {
	return fmt.Sprintf("insert %d column(s) at %d", c.Count, c.Col)
}

// RemoveColumnsCommand deletes Count columns starting at Col, capturing
// removed content for Undo the way RemoveRowsCommand does.
type RemoveColumnsCommand struct {
	Col   int
	Count int

	savedCells map[Address]*Cell
	savedMeta  metadataSnapshot
}

func (c *RemoveColumnsCommand) Validate() error {
	return validateBand(c.Col, c.Count)
}

func (c *RemoveColumnsCommand) inBand(a Address) bool {
	return a.Col >= c.Col && a.Col < c.Col+c.Count
}

func (c *RemoveColumnsCommand) Redo(g *Grid) {
	c.savedCells = make(map[Address]*Cell)
	for addr, cell := range g.cells {
		if c.inBand(addr) {
			c.savedCells[addr] = cell
		}
	}
	c.savedMeta = captureMetadata(g, c.inBand)

	shift := func(a Address) (Address, bool) {
		if c.inBand(a) {
			return Address{}, false
		}
		if a.Col >= c.Col+c.Count {
			return Address{Row: a.Row, Col: a.Col - c.Count}, true
		}
		return a, true
	}
	g.shiftCells(shift)
	g.shiftMetadata(shift)
}

func (c *RemoveColumnsCommand) Undo(g *Grid) {
	shift := func(a Address) (Address, bool) {
		if a.Col >= c.Col {
			return Address{Row: a.Row, Col: a.Col + c.Count}, true
		}
		return a, true
	}
	g.shiftCells(shift)
	g.shiftMetadata(shift)

	for addr, cell := range c.savedCells {
		g.cells[addr] = cell
	}
	restoreMetadata(g, c.savedMeta)
}

func (c *RemoveColumnsCommand) String() string {
	return fmt.Sprintf("remove %d column(s) at %d", c.Count, c.Col)
}
