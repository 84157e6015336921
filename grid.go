package gridcalc

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Cell holds one populated grid position. Formula cells keep their raw text
// and parsed AST; literal cells keep the parsed value. Parse failures are
// recorded at write time and surface as error values on read.
type Cell struct {
	Value    Primitive
	Formula  string // raw "="-prefixed text, empty for literals
	Raw      string // original input text as written
	ast      ASTNode
	parseErr *CellError
}

// IsFormula reports whether the cell was written as a formula.
func (c *Cell) IsFormula() bool {
	return c.Formula != ""
}

// MetadataStore is an address-keyed side table (styles, notes, validation
// rules). Structural edits re-key every registered store together with the
// cells, so metadata follows its cell.
type MetadataStore struct {
	entries map[Address]any
}

func newMetadataStore() *MetadataStore {
	return &MetadataStore{entries: make(map[Address]any)}
}

func (m *MetadataStore) Get(addr Address) (any, bool) {
	v, ok := m.entries[addr]
	return v, ok
}

func (m *MetadataStore) Set(addr Address, value any) {
	m.entries[addr] = value
}

func (m *MetadataStore) Delete(addr Address) {
	delete(m.entries, addr)
}

func (m *MetadataStore) Len() int {
	return len(m.entries)
}

// Each calls fn for every entry. Iteration order is unspecified.
func (m *MetadataStore) Each(fn func(addr Address, value any)) {
	for addr, v := range m.entries {
		fn(addr, v)
	}
}

// Grid is a sparse spreadsheet grid with demand-driven formula evaluation.
// All operations are synchronous and single-threaded; the caller provides
// any serialization it needs.
type Grid struct {
	cells    map[Address]*Cell
	metadata map[string]*MetadataStore
	registry *FunctionRegistry
	dispatch *DispatchAdapter
	history  *History
	log      *zap.SugaredLogger
}

// Option configures a Grid at construction time.
type Option func(*Grid)

// WithLogger replaces the default no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(g *Grid) {
		g.log = log
	}
}

// WithRegistry replaces the default function registry.
func WithRegistry(r *FunctionRegistry) Option {
	return func(g *Grid) {
		g.registry = r
	}
}

// WithHistoryLimit bounds how many commands the undo history retains.
func WithHistoryLimit(limit int) Option {
	return func(g *Grid) {
		g.history = NewHistory(limit)
	}
}

// NewGrid creates an empty grid with the default builtins registered.
func NewGrid(opts ...Option) *Grid {
	g := &Grid{
		cells:    make(map[Address]*Cell),
		metadata: make(map[string]*MetadataStore),
		history:  NewHistory(DefaultHistoryLimit),
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.dispatch == nil {
		g.dispatch = NewDispatchAdapter(g.log)
	}
	if g.registry == nil {
		g.registry = NewDefaultRegistry()
	}
	return g
}

// Dispatch returns the grid's dispatch adapter, for handler registration.
func (g *Grid) Dispatch() *DispatchAdapter {
	return g.dispatch
}

// Registry returns the grid's function registry.
func (g *Grid) Registry() *FunctionRegistry {
	return g.registry
}

// History returns the grid's undo/redo history.
func (g *Grid) History() *History {
	return g.history
}

// Set writes cell content by "A1"-style reference. Returns an engine error
// for a malformed reference; formula parse failures are not errors here,
// they become error values on read.
func (g *Grid) Set(ref, text string) error {
	addr, err := ParseAddress(ref)
	if err != nil {
		return err
	}
	g.SetCell(addr, text)
	return nil
}

// SetCell writes cell content at an address. Leading '=' marks a formula,
// which is parsed immediately; everything else is a literal. Empty text
// clears the cell.
func (g *Grid) SetCell(addr Address, text string) {
	if text == "" {
		delete(g.cells, addr)
		return
	}

	cell := &Cell{Raw: text}
	if strings.HasPrefix(text, "=") {
		cell.Formula = text
		ast, parseErr := ParseFormula(text)
		if parseErr != nil {
			cell.parseErr = parseErr
			g.log.Debugf("formula at %s failed to parse: %v", addr, parseErr)
		} else {
			cell.ast = ast
		}
	} else {
		cell.Value = parseLiteral(text)
	}
	g.cells[addr] = cell
}

// Get evaluates and returns the value at an "A1"-style reference.
func (g *Grid) Get(ref string) (Primitive, error) {
	addr, err := ParseAddress(ref)
	if err != nil {
		return nil, err
	}
	return g.GetCell(addr), nil
}

// GetCell evaluates and returns the value at an address. Empty cells yield
// nil; failures yield *CellError values.
func (g *Grid) GetCell(addr Address) Primitive {
	return newEvalContext(g).evaluateAddress(addr)
}

// EvaluateCell evaluates a cell by coordinates. A nil visited set starts a
// fresh top-level evaluation with all guards reset; passing a non-nil set
// continues an in-flight evaluation, for callers that thread their own
// cycle tracking through nested reads.
func (g *Grid) EvaluateCell(row, col int, visited map[Address]struct{}) Primitive {
	ctx := newEvalContext(g)
	if visited != nil {
		ctx.visited = visited
	}
	return ctx.evaluateAddress(Address{Row: row, Col: col})
}

// GetCellRaw returns the original text at coordinates, "" for empty cells.
func (g *Grid) GetCellRaw(row, col int) string {
	return g.GetRaw(Address{Row: row, Col: col})
}

// GetRaw returns the text as originally written: formula source for formula
// cells, literal text otherwise, "" for empty cells.
func (g *Grid) GetRaw(addr Address) string {
	cell, exists := g.cells[addr]
	if !exists {
		return ""
	}
	return cell.Raw
}

// Display renders the evaluated value at an address for presentation.
// Errors render as their sentinel text.
func (g *Grid) Display(addr Address) string {
	return toString(g.GetCell(addr))
}

// Clear removes the cell at an address, leaving metadata untouched.
func (g *Grid) Clear(addr Address) {
	delete(g.cells, addr)
}

// Len returns the number of populated cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Metadata returns the named metadata store, creating it on first use.
func (g *Grid) Metadata(name string) *MetadataStore {
	store, exists := g.metadata[name]
	if !exists {
		store = newMetadataStore()
		g.metadata[name] = store
	}
	return store
}

// MetadataNames returns the registered store names, sorted.
func (g *Grid) MetadataNames() []string {
	names := make([]string, 0, len(g.metadata))
	for name := range g.metadata {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bounds returns the smallest range covering every populated cell, and
// false if the grid is empty.
func (g *Grid) Bounds() (CellRange, bool) {
	if len(g.cells) == 0 {
		return CellRange{}, false
	}
	first := true
	var r CellRange
	for addr := range g.cells {
		if first {
			r = CellRange{Start: addr, End: addr}
			first = false
			continue
		}
		r.Start.Row = min(r.Start.Row, addr.Row)
		r.Start.Col = min(r.Start.Col, addr.Col)
		r.End.Row = max(r.End.Row, addr.Row)
		r.End.Col = max(r.End.Col, addr.Col)
	}
	return r, true
}

// Apply executes a structural edit and records it for undo.
func (g *Grid) Apply(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	cmd.Redo(g)
	g.history.Push(cmd)
	return nil
}

// Undo reverts the most recent structural edit. Returns false if there is
// nothing to undo.
func (g *Grid) Undo() bool {
	cmd, ok := g.history.PopUndo()
	if !ok {
		return false
	}
	cmd.Undo(g)
	return true
}

// Redo re-applies the most recently undone structural edit. Returns false
// if there is nothing to redo.
func (g *Grid) Redo() bool {
	cmd, ok := g.history.PopRedo()
	if !ok {
		return false
	}
	cmd.Redo(g)
	return true
}

// InsertRows shifts rows at and below the index down by count and records
// the edit in history.
func (g *Grid) InsertRows(row, count int) error {
	return g.Apply(&InsertRowsCommand{Row: row, Count: count})
}

// RemoveRows deletes count rows starting at the index, shifting later rows
// up, and records the edit in history.
func (g *Grid) RemoveRows(row, count int) error {
	return g.Apply(&RemoveRowsCommand{Row: row, Count: count})
}

// InsertColumns shifts columns at and right of the index right by count and
// records the edit in history.
func (g *Grid) InsertColumns(col, count int) error {
	return g.Apply(&InsertColumnsCommand{Col: col, Count: count})
}

// RemoveColumns deletes count columns starting at the index, shifting later
// columns left, and records the edit in history.
func (g *Grid) RemoveColumns(col, count int) error {
	return g.Apply(&RemoveColumnsCommand{Col: col, Count: count})
}

// shiftCells re-keys every populated cell through the mapping. Cells mapped
// to a negative row or column are dropped. The map is rebuilt, so cost is
// proportional to the populated cell count, not the grid extent.
func (g *Grid) shiftCells(mapAddr func(Address) (Address, bool)) {
	shifted := make(map[Address]*Cell, len(g.cells))
	for addr, cell := range g.cells {
		if newAddr, keep := mapAddr(addr); keep {
			shifted[newAddr] = cell
		}
	}
	g.cells = shifted
}

// shiftMetadata re-keys every registered metadata store through the mapping.
func (g *Grid) shiftMetadata(mapAddr func(Address) (Address, bool)) {
	for _, store := range g.metadata {
		shifted := make(map[Address]any, len(store.entries))
		for addr, v := range store.entries {
			if newAddr, keep := mapAddr(addr); keep {
				shifted[newAddr] = v
			}
		}
		store.entries = shifted
	}
}

// String renders the populated region as a small table, for debugging.
func (g *Grid) String() string {
	bounds, ok := g.Bounds()
	if !ok {
		return "(empty grid)"
	}
	var b strings.Builder
	for row := bounds.Start.Row; row <= bounds.End.Row; row++ {
		for col := bounds.Start.Col; col <= bounds.End.Col; col++ {
			if col > bounds.Start.Col {
				b.WriteByte('\t')
			}
			fmt.Fprint(&b, g.Display(Address{Row: row, Col: col}))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
