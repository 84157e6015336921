package gridcalc

import "fmt"

const (
	// MaxEvalDepth caps how deep one evaluation may recurse through
	// references before reporting a depth error.
	MaxEvalDepth = 100

	// MaxEvaluations caps how many cell evaluations a single top-level
	// read may trigger, bounding work on wide dependency fans.
	MaxEvaluations = 100000
)

// EvalContext carries the per-evaluation state for one top-level read: the
// set of addresses currently in flight, the recursion depth, and the total
// evaluation count. A fresh context is created at depth zero, so the guards
// reset between top-level reads and never leak state across them.
type EvalContext struct {
	grid    *Grid
	visited map[Address]struct{}
	depth   int
	evals   int
}

func newEvalContext(g *Grid) *EvalContext {
	return &EvalContext{
		grid:    g,
		visited: make(map[Address]struct{}),
	}
}

// Dispatch forwards an operation to the grid's dispatch adapter. Used by
// bridge functions that delegate work to another subsystem.
func (ctx *EvalContext) Dispatch(operation, input string) Primitive {
	return ctx.grid.dispatch.Request(operation, input)
}

// evaluateAddress resolves one cell to a value, recursing through formula
// references. Re-entering an in-flight address is a cycle; the visited mark
// is dropped when the cell completes, so diamond-shaped dependencies (two
// paths to the same cell) evaluate fine.
func (ctx *EvalContext) evaluateAddress(addr Address) Primitive {
	ctx.evals++
	if ctx.evals > MaxEvaluations {
		return NewCellError(ErrorCodeLimit,
			fmt.Sprintf("evaluation limit of %d exceeded", MaxEvaluations))
	}

	ctx.depth++
	defer func() { ctx.depth-- }()
	if ctx.depth > MaxEvalDepth {
		return NewCellError(ErrorCodeDepth,
			fmt.Sprintf("evaluation depth limit of %d exceeded at %s", MaxEvalDepth, addr))
	}

	if _, inFlight := ctx.visited[addr]; inFlight {
		return NewCellError(ErrorCodeCycle,
			fmt.Sprintf("circular reference through %s", addr))
	}

	cell, exists := ctx.grid.cells[addr]
	if !exists {
		return nil // empty cell
	}

	if cell.parseErr != nil {
		return cell.parseErr
	}

	if cell.ast != nil {
		ctx.visited[addr] = struct{}{}
		defer delete(ctx.visited, addr)
		return normalizeResult(cell.ast.Eval(ctx))
	}

	return normalizeResult(cell.Value)
}

// normalizeResult converts values that have no meaning as a cell result.
// Any string beginning with '#' reads as an error value, never as text,
// and a range has no scalar value, so a bare-range formula is a type
// error rather than a leaked expansion.
func normalizeResult(value Primitive) Primitive {
	if s, ok := value.(string); ok && IsErrorText(s) {
		return errorFromText(s)
	}
	if _, ok := value.(*RangeValue); ok {
		return NewCellError(ErrorCodeValue, "range has no value in scalar context")
	}
	return value
}
