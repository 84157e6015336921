package gridcalc

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode/utf8"
)

// Function implements a formula function. Arguments arrive evaluated;
// error values and expanded ranges pass through unchanged, and the
// function decides how to treat them.
type Function func(ctx *EvalContext, args []Primitive) Primitive

// FunctionRegistry maps upper-cased function names to implementations.
// Registration is append-only: a name, once bound, cannot be rebound.
// The mutex covers registration from multi-goroutine host init; lookups
// during evaluation are single-threaded by contract.
type FunctionRegistry struct {
	mu        sync.Mutex
	functions map[string]Function
}

// NewFunctionRegistry creates an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register binds a function name, case-insensitively. Rebinding an
// existing name fails with AlreadyExists.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	upper := strings.ToUpper(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[upper]; exists {
		return NewEngineError(AlreadyExists, fmt.Sprintf("function already registered: %s", upper))
	}
	r.functions[upper] = fn
	return nil
}

// Lookup resolves a function name, case-insensitively.
func (r *FunctionRegistry) Lookup(name string) (Function, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn, ok := r.functions[strings.ToUpper(name)]
	return fn, ok
}

// Names returns the registered function names, unordered.
func (r *FunctionRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}

// NewDefaultRegistry creates a registry with all builtins bound.
func NewDefaultRegistry() *FunctionRegistry {
	r := NewFunctionRegistry()
	for name, fn := range builtins {
		// names in the builtins table are unique, Register cannot fail
		_ = r.Register(name, fn)
	}
	return r
}

// flattenArgs expands range arguments into their cell values, yielding a
// flat scalar list. Error values pass through as scalars.
func flattenArgs(args []Primitive) []Primitive {
	flat := make([]Primitive, 0, len(args))
	for _, arg := range args {
		if rv, ok := arg.(*RangeValue); ok {
			flat = append(flat, rv.Values...)
			continue
		}
		flat = append(flat, arg)
	}
	return flat
}

// firstError returns the first error value among the arguments, if any.
func firstError(args []Primitive) *CellError {
	for _, arg := range args {
		if err := checkForError(arg); err != nil {
			return err
		}
	}
	return nil
}

// scalarNumber coerces a single scalar argument to a number, rejecting
// ranges and propagating error values.
func scalarNumber(arg Primitive) (float64, *CellError) {
	if err := checkForError(arg); err != nil {
		return 0, err
	}
	if _, ok := arg.(*RangeValue); ok {
		return 0, NewCellError(ErrorCodeValue, "expected a single value, got a range")
	}
	num, ok := toNumber(arg)
	if !ok {
		return 0, NewCellError(ErrorCodeValue, "expected a numeric value")
	}
	return num, nil
}

var builtins = map[string]Function{
	"SUM": func(ctx *EvalContext, args []Primitive) Primitive {
		values := flattenArgs(args)
		if err := firstError(values); err != nil {
			return err
		}
		sum := 0.0
		for _, v := range values {
			if v == nil {
				continue
			}
			if num, ok := toNumber(v); ok {
				sum += num
			}
			// non-numeric cells are ignored, not an error
		}
		return sum
	},

	"AVERAGE": func(ctx *EvalContext, args []Primitive) Primitive {
		values := flattenArgs(args)
		if err := firstError(values); err != nil {
			return err
		}
		sum := 0.0
		count := 0
		for _, v := range values {
			if v == nil {
				continue
			}
			if num, ok := toNumber(v); ok {
				sum += num
				count++
			}
		}
		if count == 0 {
			return NewCellError(ErrorCodeDiv0, "AVERAGE of no numeric values")
		}
		return sum / float64(count)
	},

	"COUNT": func(ctx *EvalContext, args []Primitive) Primitive {
		values := flattenArgs(args)
		if err := firstError(values); err != nil {
			return err
		}
		count := 0
		for _, v := range values {
			if v == nil {
				continue
			}
			if _, ok := toNumber(v); ok {
				count++
			}
		}
		return float64(count)
	},

	"MIN": func(ctx *EvalContext, args []Primitive) Primitive {
		values := flattenArgs(args)
		if err := firstError(values); err != nil {
			return err
		}
		best := math.Inf(1)
		found := false
		for _, v := range values {
			if v == nil {
				continue
			}
			if num, ok := toNumber(v); ok {
				best = math.Min(best, num)
				found = true
			}
		}
		if !found {
			return 0.0
		}
		return best
	},

	"MAX": func(ctx *EvalContext, args []Primitive) Primitive {
		values := flattenArgs(args)
		if err := firstError(values); err != nil {
			return err
		}
		best := math.Inf(-1)
		found := false
		for _, v := range values {
			if v == nil {
				continue
			}
			if num, ok := toNumber(v); ok {
				best = math.Max(best, num)
				found = true
			}
		}
		if !found {
			return 0.0
		}
		return best
	},

	"ABS": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) != 1 {
			return NewCellError(ErrorCodeValue, "ABS requires exactly one argument")
		}
		num, err := scalarNumber(args[0])
		if err != nil {
			return err
		}
		return math.Abs(num)
	},

	"ROUND": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) < 1 || len(args) > 2 {
			return NewCellError(ErrorCodeValue, "ROUND requires one or two arguments")
		}
		num, err := scalarNumber(args[0])
		if err != nil {
			return err
		}
		digits := 0.0
		if len(args) == 2 {
			digits, err = scalarNumber(args[1])
			if err != nil {
				return err
			}
		}
		scale := math.Pow(10, math.Trunc(digits))
		return math.Round(num*scale) / scale
	},

	"LEN": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) != 1 {
			return NewCellError(ErrorCodeValue, "LEN requires exactly one argument")
		}
		if err := checkForError(args[0]); err != nil {
			return err
		}
		return float64(utf8.RuneCountInString(toString(args[0])))
	},

	"UPPER": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) != 1 {
			return NewCellError(ErrorCodeValue, "UPPER requires exactly one argument")
		}
		if err := checkForError(args[0]); err != nil {
			return err
		}
		return strings.ToUpper(toString(args[0]))
	},

	"LOWER": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) != 1 {
			return NewCellError(ErrorCodeValue, "LOWER requires exactly one argument")
		}
		if err := checkForError(args[0]); err != nil {
			return err
		}
		return strings.ToLower(toString(args[0]))
	},

	"TRIM": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) != 1 {
			return NewCellError(ErrorCodeValue, "TRIM requires exactly one argument")
		}
		if err := checkForError(args[0]); err != nil {
			return err
		}
		return strings.TrimSpace(toString(args[0]))
	},

	"CONCATENATE": func(ctx *EvalContext, args []Primitive) Primitive {
		values := flattenArgs(args)
		if err := firstError(values); err != nil {
			return err
		}
		var b strings.Builder
		for _, v := range values {
			b.WriteString(toString(v))
		}
		return b.String()
	},

	"IF": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) < 2 || len(args) > 3 {
			return NewCellError(ErrorCodeValue, "IF requires two or three arguments")
		}
		if err := checkForError(args[0]); err != nil {
			return err
		}
		if isTruthy(args[0]) {
			return args[1]
		}
		if len(args) == 3 {
			return args[2]
		}
		return false
	},

	"AND": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) == 0 {
			return NewCellError(ErrorCodeValue, "AND requires at least one argument")
		}
		values := flattenArgs(args)
		if err := firstError(values); err != nil {
			return err
		}
		for _, v := range values {
			if !isTruthy(v) {
				return false
			}
		}
		return true
	},

	"OR": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) == 0 {
			return NewCellError(ErrorCodeValue, "OR requires at least one argument")
		}
		values := flattenArgs(args)
		if err := firstError(values); err != nil {
			return err
		}
		for _, v := range values {
			if isTruthy(v) {
				return true
			}
		}
		return false
	},

	"NOT": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) != 1 {
			return NewCellError(ErrorCodeValue, "NOT requires exactly one argument")
		}
		if err := checkForError(args[0]); err != nil {
			return err
		}
		return !isTruthy(args[0])
	},

	// CIPHER and CIPHERREV bridge formulas to the external cipher
	// subsystem through the dispatch adapter. An unknown operation
	// reports #CIPHER?, a handler failure #ERROR!.
	"CIPHER": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) != 1 {
			return NewCellError(ErrorCodeValue, "CIPHER requires exactly one argument")
		}
		if err := checkForError(args[0]); err != nil {
			return err
		}
		return ctx.Dispatch(OpEncode, toString(args[0]))
	},

	"CIPHERREV": func(ctx *EvalContext, args []Primitive) Primitive {
		if len(args) != 1 {
			return NewCellError(ErrorCodeValue, "CIPHERREV requires exactly one argument")
		}
		if err := checkForError(args[0]); err != nil {
			return err
		}
		return ctx.Dispatch(OpDecode, toString(args[0]))
	},
}
