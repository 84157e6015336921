package gridcalc

import (
	"fmt"
	"strconv"
	"strings"
)

// Primitive represents basic cell value types.
// types:
//   - float64: numeric values (integers are converted to float64)
//   - string: text values
//   - bool: boolean values (TRUE/FALSE)
//   - nil: empty cells
//   - *CellError: error values (#REF!, #CYCLE!, etc.)
//   - *RangeValue: expanded range, valid only as a function argument
type Primitive any

// RangeValue is the row-major expansion of a range reference. It only makes
// sense as a function argument; using it where a scalar is expected is a
// type error.
type RangeValue struct {
	Values []Primitive
}

// parseLiteral interprets non-formula cell input. Numeric text becomes a
// number, TRUE/FALSE a boolean, everything else stays text.
func parseLiteral(text string) Primitive {
	if text == "" {
		return nil
	}
	if num, err := strconv.ParseFloat(text, 64); err == nil {
		return num
	}
	if strings.EqualFold(text, "TRUE") {
		return true
	}
	if strings.EqualFold(text, "FALSE") {
		return false
	}
	return text
}

// toNumber converts value to number, returning ok=false if conversion fails
func toNumber(value Primitive) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		num, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return num, true
	case nil:
		return 0, true
	default:
		return 0, false
	}
}

// toString converts value to string
func toString(value Primitive) string {
	switch v := value.(type) {
	case nil:
		return ""
	case *CellError:
		return v.Sentinel()
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

// isTruthy checks if value is truthy
func isTruthy(value Primitive) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v != ""
	case nil:
		return false
	default:
		return true
	}
}

// comparePrimitives compares two primitive values. returns -1 if left < right,
// 0 if equal, 1 if left > right. values with no common numeric or boolean
// interpretation fall back to string comparison.
func comparePrimitives(left, right Primitive) int {
	// handle nil values
	if left == nil && right == nil {
		return 0
	}
	if left == nil {
		return -1
	}
	if right == nil {
		return 1
	}

	// try numeric comparison first
	leftNum, leftIsNum := toNumber(left)
	rightNum, rightIsNum := toNumber(right)

	if leftIsNum && rightIsNum {
		if leftNum < rightNum {
			return -1
		} else if leftNum > rightNum {
			return 1
		}
		return 0
	}

	// try boolean comparison
	leftBool, leftIsBool := left.(bool)
	rightBool, rightIsBool := right.(bool)

	if leftIsBool && rightIsBool {
		if leftBool == rightBool {
			return 0
		} else if !leftBool && rightBool {
			return -1
		}
		return 1
	}

	// string comparison
	leftStr := toString(left)
	rightStr := toString(right)

	if leftStr < rightStr {
		return -1
	} else if leftStr > rightStr {
		return 1
	}
	return 0
}

// checkForError returns the error if value is a *CellError, nil otherwise
func checkForError(value Primitive) *CellError {
	if err, ok := value.(*CellError); ok {
		return err
	}
	return nil
}
