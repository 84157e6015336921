package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	r := NewDefaultRegistry()

	for _, name := range []string{"SUM", "sum", "Sum"} {
		_, ok := r.Lookup(name)
		require.True(t, ok, "lookup %s", name)
	}

	_, ok := r.Lookup("NOSUCHFUNC")
	require.False(t, ok)
}

func TestRegistryIsAppendOnly(t *testing.T) {
	r := NewFunctionRegistry()

	double := func(ctx *EvalContext, args []Primitive) Primitive {
		num, cellErr := scalarNumber(args[0])
		if cellErr != nil {
			return cellErr
		}
		return num * 2
	}

	require.NoError(t, r.Register("DOUBLE", double))

	// rebinding fails, in any case variant
	err := r.Register("DOUBLE", double)
	require.Error(t, err)
	engErr, ok := err.(*EngineError)
	require.True(t, ok)
	require.Equal(t, AlreadyExists, engErr.Code)

	err = r.Register("double", double)
	require.Error(t, err)

	// the original binding is untouched
	fn, ok := r.Lookup("double")
	require.True(t, ok)
	require.Equal(t, 8.0, fn(nil, []Primitive{4.0}))
}

func TestCustomFunctionInFormula(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Registry().Register("TRIPLE", func(ctx *EvalContext, args []Primitive) Primitive {
		num, cellErr := scalarNumber(args[0])
		if cellErr != nil {
			return cellErr
		}
		return num * 3
	}))

	require.NoError(t, g.Set("A1", "=TRIPLE(5)"))
	v, err := g.Get("A1")
	require.NoError(t, err)
	require.Equal(t, 15.0, v)

	// lower-case spelling in the formula resolves to the same function
	require.NoError(t, g.Set("A2", "=triple(2)"))
	v, _ = g.Get("A2")
	require.Equal(t, 6.0, v)
}

func TestUnknownFunctionReportsNameError(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A1", "=MISSING(1)"))
	v, _ := g.Get("A1")
	requireCellError(t, v, ErrorCodeName)
}

func TestDefaultRegistryNames(t *testing.T) {
	r := NewDefaultRegistry()
	names := r.Names()
	require.Contains(t, names, "SUM")
	require.Contains(t, names, "IF")
	require.Contains(t, names, "CIPHER")
	require.Contains(t, names, "CIPHERREV")
}
