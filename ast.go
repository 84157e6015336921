package gridcalc

import (
	"fmt"
	"math"
	"strings"
)

type NodePosition struct {
	Start int
	End   int
}

// ASTNode is a parsed formula fragment. Eval returns a Primitive; failures
// come back as *CellError values, never as panics, so every node propagates
// errors from its children unchanged.
type ASTNode interface {
	Eval(ctx *EvalContext) Primitive
	GetPosition() NodePosition
	ToString() string
}

// StringNode represents a string literal
type StringNode struct {
	Value    string
	Position NodePosition
}

func (n *StringNode) Eval(ctx *EvalContext) Primitive {
	return n.Value
}

func (n *StringNode) GetPosition() NodePosition {
	return n.Position
}

func (n *StringNode) ToString() string {
	escaped := strings.ReplaceAll(n.Value, "\"", "\"\"")
	return fmt.Sprintf("\"%s\"", escaped)
}

// NumberNode represents a numeric literal
type NumberNode struct {
	Value    float64
	Position NodePosition
}

func (n *NumberNode) Eval(ctx *EvalContext) Primitive {
	return n.Value
}

func (n *NumberNode) GetPosition() NodePosition {
	return n.Position
}

func (n *NumberNode) ToString() string {
	// format number without unnecessary decimals
	if n.Value == float64(int64(n.Value)) {
		return fmt.Sprintf("%d", int64(n.Value))
	}
	return fmt.Sprintf("%g", n.Value)
}

// BooleanNode represents a boolean literal
type BooleanNode struct {
	Value    bool
	Position NodePosition
}

func (n *BooleanNode) Eval(ctx *EvalContext) Primitive {
	return n.Value
}

func (n *BooleanNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BooleanNode) ToString() string {
	if n.Value {
		return "TRUE"
	}
	return "FALSE"
}

// CellRefNode represents a single cell reference with an absolute address.
type CellRefNode struct {
	Addr     Address
	Position NodePosition
}

func (n *CellRefNode) Eval(ctx *EvalContext) Primitive {
	return ctx.evaluateAddress(n.Addr)
}

func (n *CellRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *CellRefNode) ToString() string {
	return n.Addr.String()
}

// RangeRefNode represents a rectangular range reference. It evaluates to a
// *RangeValue, which only functions accept; in any scalar position the
// operator nodes report a type error.
type RangeRefNode struct {
	Range    CellRange
	Position NodePosition
}

func (n *RangeRefNode) Eval(ctx *EvalContext) Primitive {
	addrs, cellErr := n.Range.Expand()
	if cellErr != nil {
		return cellErr
	}
	values := make([]Primitive, len(addrs))
	for i, addr := range addrs {
		values[i] = ctx.evaluateAddress(addr)
	}
	return &RangeValue{Values: values}
}

func (n *RangeRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *RangeRefNode) ToString() string {
	return n.Range.String()
}

// BinaryOpNode represents a binary operation
type BinaryOpNode struct {
	Op       BinaryOp
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

func (n *BinaryOpNode) Eval(ctx *EvalContext) Primitive {
	leftVal := n.Left.Eval(ctx)
	rightVal := n.Right.Eval(ctx)

	// propagate errors unchanged
	if err := checkForError(leftVal); err != nil {
		return err
	}
	if err := checkForError(rightVal); err != nil {
		return err
	}

	// ranges have no scalar meaning outside function arguments
	if _, ok := leftVal.(*RangeValue); ok {
		return NewCellError(ErrorCodeValue, "range is not a valid operand")
	}
	if _, ok := rightVal.(*RangeValue); ok {
		return NewCellError(ErrorCodeValue, "range is not a valid operand")
	}

	switch n.Op {
	case BinOpAdd:
		if leftNum, leftOk := toNumber(leftVal); leftOk {
			if rightNum, rightOk := toNumber(rightVal); rightOk {
				return leftNum + rightNum
			}
		}
		return NewCellError(ErrorCodeValue, "addition requires numeric values")

	case BinOpSubtract:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return NewCellError(ErrorCodeValue, "subtraction requires numeric values")
		}
		return leftNum - rightNum

	case BinOpMultiply:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return NewCellError(ErrorCodeValue, "multiplication requires numeric values")
		}
		return leftNum * rightNum

	case BinOpDivide:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return NewCellError(ErrorCodeValue, "division requires numeric values")
		}
		if rightNum == 0 {
			return NewCellError(ErrorCodeDiv0, "division by zero")
		}
		return leftNum / rightNum

	case BinOpPower:
		leftNum, leftOk := toNumber(leftVal)
		rightNum, rightOk := toNumber(rightVal)
		if !leftOk || !rightOk {
			return NewCellError(ErrorCodeValue, "power requires numeric values")
		}
		return math.Pow(leftNum, rightNum)

	case BinOpConcat:
		return toString(leftVal) + toString(rightVal)

	case BinOpEqual:
		return comparePrimitives(leftVal, rightVal) == 0

	case BinOpNotEqual:
		return comparePrimitives(leftVal, rightVal) != 0

	case BinOpLess:
		return comparePrimitives(leftVal, rightVal) < 0

	case BinOpLessEqual:
		return comparePrimitives(leftVal, rightVal) <= 0

	case BinOpGreater:
		return comparePrimitives(leftVal, rightVal) > 0

	case BinOpGreaterEqual:
		return comparePrimitives(leftVal, rightVal) >= 0

	default:
		return NewCellError(ErrorCodeValue, "unknown operator")
	}
}

func (n *BinaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BinaryOpNode) ToString() string {
	opStr := ""
	switch n.Op {
	case BinOpAdd:
		opStr = "+"
	case BinOpSubtract:
		opStr = "-"
	case BinOpMultiply:
		opStr = "*"
	case BinOpDivide:
		opStr = "/"
	case BinOpPower:
		opStr = "^"
	case BinOpConcat:
		opStr = "&"
	case BinOpEqual:
		opStr = "="
	case BinOpNotEqual:
		opStr = "<>"
	case BinOpLess:
		opStr = "<"
	case BinOpLessEqual:
		opStr = "<="
	case BinOpGreater:
		opStr = ">"
	case BinOpGreaterEqual:
		opStr = ">="
	}
	return fmt.Sprintf("(%s%s%s)", n.Left.ToString(), opStr, n.Right.ToString())
}

// UnaryOpNode represents a unary operation
type UnaryOpNode struct {
	Op       UnaryOp
	Operand  ASTNode
	Position NodePosition
}

func (n *UnaryOpNode) Eval(ctx *EvalContext) Primitive {
	val := n.Operand.Eval(ctx)

	if err := checkForError(val); err != nil {
		return err
	}
	if _, ok := val.(*RangeValue); ok {
		return NewCellError(ErrorCodeValue, "range is not a valid operand")
	}

	switch n.Op {
	case UnaryOpPlus:
		num, ok := toNumber(val)
		if !ok {
			return NewCellError(ErrorCodeValue, "unary plus requires a numeric value")
		}
		return num

	case UnaryOpMinus:
		num, ok := toNumber(val)
		if !ok {
			return NewCellError(ErrorCodeValue, "negation requires a numeric value")
		}
		return -num

	case UnaryOpPercent:
		num, ok := toNumber(val)
		if !ok {
			return NewCellError(ErrorCodeValue, "percent requires a numeric value")
		}
		return num / 100.0

	default:
		return NewCellError(ErrorCodeValue, "unknown unary operator")
	}
}

func (n *UnaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *UnaryOpNode) ToString() string {
	opStr := ""
	switch n.Op {
	case UnaryOpPlus:
		opStr = "+"
	case UnaryOpMinus:
		opStr = "-"
	case UnaryOpPercent:
		return fmt.Sprintf("(%s%%)", n.Operand.ToString())
	}
	return fmt.Sprintf("%s%s", opStr, n.Operand.ToString())
}

// FunctionCallNode represents a function call
type FunctionCallNode struct {
	Name     string
	Args     []ASTNode
	Position NodePosition
}

func (n *FunctionCallNode) Eval(ctx *EvalContext) Primitive {
	// arguments are evaluated eagerly; error values pass through to the
	// function, which decides how to treat them
	args := make([]Primitive, len(n.Args))
	for i, argNode := range n.Args {
		args[i] = argNode.Eval(ctx)
	}

	fn, ok := ctx.grid.registry.Lookup(n.Name)
	if !ok {
		return NewCellError(ErrorCodeName, fmt.Sprintf("unknown function: %s", n.Name))
	}
	return fn(ctx, args)
}

func (n *FunctionCallNode) GetPosition() NodePosition {
	return n.Position
}

func (n *FunctionCallNode) ToString() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.ToString()
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ","))
}
