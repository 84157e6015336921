package gridcalc

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// rot13 stands in for the cipher subsystem in these tests.
func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		}
		return r
	}, s)
}

func TestDispatchUnknownOperation(t *testing.T) {
	d := NewDispatchAdapter(nil)
	v := d.Request("no.such.op", "payload")
	requireCellError(t, v, ErrorCodeCipher)
}

func TestDispatchRegisteredHandler(t *testing.T) {
	d := NewDispatchAdapter(nil)
	require.NoError(t, d.RegisterHandler(OpEncode, func(input string) (Primitive, error) {
		return rot13(input), nil
	}))

	v := d.Request(OpEncode, "hello")
	require.Equal(t, rot13("hello"), v)
}

func TestDispatchOneHandlerPerOperation(t *testing.T) {
	d := NewDispatchAdapter(nil)
	h := func(input string) (Primitive, error) { return input, nil }

	require.NoError(t, d.RegisterHandler(OpEncode, h))

	err := d.RegisterHandler(OpEncode, h)
	require.Error(t, err)
	engErr, ok := err.(*EngineError)
	require.True(t, ok)
	require.Equal(t, AlreadyExists, engErr.Code)

	require.Error(t, d.RegisterHandler(OpDecode, nil))
}

func TestDispatchHandlerError(t *testing.T) {
	d := NewDispatchAdapter(nil)
	require.NoError(t, d.RegisterHandler(OpEncode, func(input string) (Primitive, error) {
		return nil, errors.New("backend unavailable")
	}))

	v := d.Request(OpEncode, "x")
	requireCellError(t, v, ErrorCodeOther)
}

func TestDispatchHandlerPanicIsRecovered(t *testing.T) {
	d := NewDispatchAdapter(NewDevLogger(false))
	require.NoError(t, d.RegisterHandler(OpEncode, func(input string) (Primitive, error) {
		panic("handler bug")
	}))

	// the panic never escapes; the caller sees a generic error value
	require.NotPanics(t, func() {
		v := d.Request(OpEncode, "x")
		requireCellError(t, v, ErrorCodeOther)
	})
}

func TestCipherFormulaBridge(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Dispatch().RegisterHandler(OpEncode, func(input string) (Primitive, error) {
		return rot13(input), nil
	}))
	require.NoError(t, g.Dispatch().RegisterHandler(OpDecode, func(input string) (Primitive, error) {
		return rot13(input), nil
	}))

	require.NoError(t, g.Set("A1", "secret"))
	require.NoError(t, g.Set("B1", "=CIPHER(A1)"))
	require.NoError(t, g.Set("C1", "=CIPHERREV(B1)"))

	v, _ := g.Get("B1")
	require.Equal(t, rot13("secret"), v)

	// the formula result matches the handler applied directly
	v, _ = g.Get("C1")
	require.Equal(t, "secret", v)
}

func TestCipherFormulaWithoutHandler(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Set("A1", "=CIPHER(\"x\")"))
	v, _ := g.Get("A1")
	requireCellError(t, v, ErrorCodeCipher)
}

func TestDispatchResultLeadingHashIsError(t *testing.T) {
	d := NewDispatchAdapter(nil)
	require.NoError(t, d.RegisterHandler(OpEncode, func(input string) (Primitive, error) {
		return "#BROKEN", nil
	}))

	v := d.Request(OpEncode, "x")
	requireCellError(t, v, ErrorCodeOther)
}
