package gridcalc

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxRangeCells caps how many cells a single range may cover. The check
// happens on rows*cols before any cell is visited, so an oversized range
// fails in constant time.
const MaxRangeCells = 10000

// maxColumnIndex bounds decoded column labels so that row and column
// arithmetic stays far from integer overflow.
const maxColumnIndex = 1 << 30

// Address identifies a cell by zero-based row and column.
type Address struct {
	Row int
	Col int
}

func (a Address) String() string {
	return FormatAddress(a.Row, a.Col)
}

// ColumnLabel converts a zero-based column index to its letter label using
// bijective base-26: 0="A", 25="Z", 26="AA", 27="AB".
func ColumnLabel(col int) string {
	label := ""
	for col >= 0 {
		label = string(rune('A'+col%26)) + label
		col = col/26 - 1
	}
	return label
}

// ColumnIndex converts a letter label back to its zero-based column index.
// Inverse of ColumnLabel for every valid label.
func ColumnIndex(label string) (int, error) {
	if label == "" {
		return 0, NewEngineError(InvalidArgument, "empty column label")
	}
	col := 0
	for _, ch := range label {
		if ch >= 'a' && ch <= 'z' {
			ch -= 32
		}
		if ch < 'A' || ch > 'Z' {
			return 0, NewEngineError(InvalidArgument, fmt.Sprintf("invalid column label: %s", label))
		}
		col = col*26 + int(ch-'A') + 1
		if col > maxColumnIndex {
			return 0, NewEngineError(OutOfRange, fmt.Sprintf("column label too large: %s", label))
		}
	}
	return col - 1, nil
}

// FormatAddress renders a zero-based (row, col) pair as "A1"-style notation.
func FormatAddress(row, col int) string {
	return ColumnLabel(col) + strconv.Itoa(row+1)
}

// ParseAddress parses an "A1"-style reference into zero-based (row, col).
// Case-insensitive on the column letters. Returns an engine error for
// malformed input; formula-level reference failures are reported by the
// evaluator, not here.
func ParseAddress(ref string) (Address, error) {
	if len(ref) < 2 {
		return Address{}, NewEngineError(InvalidArgument, fmt.Sprintf("invalid cell reference: %s", ref))
	}

	// find where letters end and digits begin
	letterEnd := 0
	for i, ch := range ref {
		if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' {
			letterEnd = i + 1
		} else {
			break
		}
	}

	if letterEnd == 0 || letterEnd == len(ref) {
		return Address{}, NewEngineError(InvalidArgument, fmt.Sprintf("invalid cell reference: %s", ref))
	}

	col, err := ColumnIndex(ref[:letterEnd])
	if err != nil {
		return Address{}, err
	}

	rowNum, err := strconv.ParseInt(ref[letterEnd:], 10, 32)
	if err != nil {
		return Address{}, NewEngineError(InvalidArgument, fmt.Sprintf("invalid row number in reference: %s", ref))
	}
	if rowNum < 1 {
		return Address{}, NewEngineError(InvalidArgument, fmt.Sprintf("row number must be positive: %d", rowNum))
	}

	return Address{Row: int(rowNum - 1), Col: col}, nil
}

// CellRange is a normalized rectangular block: Start is always the top-left
// corner and End the bottom-right, whichever order the corners were written.
type CellRange struct {
	Start Address
	End   Address
}

// NewCellRange normalizes two corner addresses into a CellRange.
func NewCellRange(a, b Address) CellRange {
	return CellRange{
		Start: Address{Row: min(a.Row, b.Row), Col: min(a.Col, b.Col)},
		End:   Address{Row: max(a.Row, b.Row), Col: max(a.Col, b.Col)},
	}
}

// ParseRangeRef parses "A1:B3"-style notation into a normalized CellRange.
func ParseRangeRef(ref string) (CellRange, error) {
	parts := strings.Split(ref, ":")
	if len(parts) != 2 {
		return CellRange{}, NewEngineError(InvalidArgument, fmt.Sprintf("invalid range format: %s", ref))
	}
	start, err := ParseAddress(parts[0])
	if err != nil {
		return CellRange{}, err
	}
	end, err := ParseAddress(parts[1])
	if err != nil {
		return CellRange{}, err
	}
	return NewCellRange(start, end), nil
}

func (r CellRange) String() string {
	return r.Start.String() + ":" + r.End.String()
}

// CellCount returns rows*cols for the block. Computed from the corners, so
// it is safe to call on ranges far beyond the expansion ceiling.
func (r CellRange) CellCount() int {
	rows := r.End.Row - r.Start.Row + 1
	cols := r.End.Col - r.Start.Col + 1
	return rows * cols
}

// Contains reports whether the address lies inside the block.
func (r CellRange) Contains(a Address) bool {
	return a.Row >= r.Start.Row && a.Row <= r.End.Row &&
		a.Col >= r.Start.Col && a.Col <= r.End.Col
}

// Expand enumerates the block's addresses in row-major order. The size
// ceiling is checked before allocation; an oversized range never enumerates
// a single cell. Each dimension is bounded first, so the rows*cols product
// cannot overflow.
func (r CellRange) Expand() ([]Address, *CellError) {
	rows := r.End.Row - r.Start.Row + 1
	cols := r.End.Col - r.Start.Col + 1
	if rows <= 0 || cols <= 0 || rows > MaxRangeCells || cols > MaxRangeCells || rows*cols > MaxRangeCells {
		return nil, NewCellError(ErrorCodeRef,
			fmt.Sprintf("range %s exceeds the %d cell limit", r, MaxRangeCells))
	}
	addrs := make([]Address, 0, rows*cols)
	for row := r.Start.Row; row <= r.End.Row; row++ {
		for col := r.Start.Col; col <= r.End.Col; col++ {
			addrs = append(addrs, Address{Row: row, Col: col})
		}
	}
	return addrs, nil
}
