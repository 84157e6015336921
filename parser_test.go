package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValidFormulas(t *testing.T) {
	valid := []string{
		"=1",
		"=1.5",
		"=1e3",
		"=.5",
		"=-1",
		"=+1",
		"=--1",
		"=1+2",
		"=1+2*3",
		"=(1+2)*3",
		"=2^3^2",
		"=50%",
		"=\"hello\"",
		"=\"say \"\"hi\"\"\"",
		"=TRUE",
		"=false",
		"=A1",
		"=a1",
		"=AA10",
		"=A1+B2",
		"=A1:B3",
		"=SUM(A1:B3)",
		"=SUM(A1,B2,3)",
		"=SUM()",
		"=IF(A1>3,\"big\",\"small\")",
		"=CONCATENATE(\"a\",\"b\")&\"c\"",
		"=1<2",
		"=1<=2",
		"=1<>2",
		"=1>=2",
		"=NOT(TRUE)",
		"=ROUND(1.234,2)",
		"= 1 + 2 ",
	}

	for _, formula := range valid {
		t.Run(formula, func(t *testing.T) {
			node, err := ParseFormula(formula)
			require.Nil(t, err)
			require.NotNil(t, node)
		})
	}
}

func TestParseInvalidFormulas(t *testing.T) {
	invalid := []string{
		"",
		"1+2",
		"=",
		"=1+",
		"=+",
		"=1 2",
		"=(1+2",
		"=1+2)",
		"=\"unclosed",
		"=SUM(1,",
		"=SUM(1 2)",
		"=SUM(,1)",
		"=1,2",
		"=@",
		"=notafunction",
	}

	for _, formula := range invalid {
		t.Run(formula, func(t *testing.T) {
			node, err := ParseFormula(formula)
			require.NotNil(t, err)
			require.Nil(t, node)
			require.Equal(t, ErrorCodeParse, err.Code)
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		formula  string
		rendered string
	}{
		{"=1+2*3", "(1+(2*3))"},
		{"=1*2+3", "((1*2)+3)"},
		{"=(1+2)*3", "((1+2)*3)"},
		{"=1&2+3", "(1&(2+3))"},
		{"=1=2&3", "(1=(2&3))"},
		{"=2^3^2", "(2^(3^2))"},
		{"=-2^2", "(-2^2)"},
		{"=1+2<3", "((1+2)<3)"},
	}

	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			node, err := ParseFormula(tc.formula)
			require.Nil(t, err)
			require.Equal(t, tc.rendered, node.ToString())
		})
	}
}

func TestParseCellAndRangeNodes(t *testing.T) {
	node, err := ParseFormula("=B3")
	require.Nil(t, err)
	cellRef, ok := node.(*CellRefNode)
	require.True(t, ok)
	require.Equal(t, Address{Row: 2, Col: 1}, cellRef.Addr)

	node, err = ParseFormula("=B3:A1")
	require.Nil(t, err)
	rangeRef, ok := node.(*RangeRefNode)
	require.True(t, ok)
	// corners are normalized regardless of written order
	require.Equal(t, Address{Row: 0, Col: 0}, rangeRef.Range.Start)
	require.Equal(t, Address{Row: 2, Col: 1}, rangeRef.Range.End)
}

func TestParseFunctionNameIsUpperCased(t *testing.T) {
	node, err := ParseFormula("=sum(A1)")
	require.Nil(t, err)
	call, ok := node.(*FunctionCallNode)
	require.True(t, ok)
	require.Equal(t, "SUM", call.Name)
	require.Len(t, call.Args, 1)
}
