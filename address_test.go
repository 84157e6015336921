package gridcalc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnLabel(t *testing.T) {
	cases := []struct {
		col   int
		label string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.label, ColumnLabel(tc.col))
	}
}

func TestColumnIndexRoundTrip(t *testing.T) {
	for col := 0; col < 2000; col++ {
		label := ColumnLabel(col)
		back, err := ColumnIndex(label)
		require.NoError(t, err)
		require.Equal(t, col, back, "label %s", label)
	}
}

func TestColumnIndexCaseInsensitive(t *testing.T) {
	col, err := ColumnIndex("aa")
	require.NoError(t, err)
	require.Equal(t, 26, col)
}

func TestColumnIndexInvalid(t *testing.T) {
	for _, label := range []string{"", "A1", "-", "A B"} {
		_, err := ColumnIndex(label)
		require.Error(t, err, "label %q", label)
	}
}

func TestColumnIndexRejectsOversizedLabel(t *testing.T) {
	// labels whose decoded index would overflow column arithmetic
	for _, label := range []string{"ZZZZZZZ", "ZZZZZZZZZZZZZ", "AAAAAAAAAAAAAAAAAAAA"} {
		_, err := ColumnIndex(label)
		require.Error(t, err, "label %q", label)
		engErr, ok := err.(*EngineError)
		require.True(t, ok)
		require.Equal(t, OutOfRange, engErr.Code)
	}

	// a six-letter label is still within bounds
	col, err := ColumnIndex("ZZZZZZ")
	require.NoError(t, err)
	back, err := ColumnIndex(ColumnLabel(col))
	require.NoError(t, err)
	require.Equal(t, col, back)
}

func TestParseRangeRefRejectsOversizedColumn(t *testing.T) {
	_, err := ParseRangeRef("A1:ZZZZZZZZZZZZZ2147483647")
	require.Error(t, err)
}

func TestCellRangeExpandOverflowingCount(t *testing.T) {
	// corners built directly, past anything the parser would admit; the
	// rows*cols product wraps around, the per-dimension check must not
	for _, r := range []CellRange{
		{End: Address{Row: 1<<31 - 1, Col: 1 << 31}},
		{End: Address{Row: 1<<62 - 1, Col: 1<<62 - 1}},
	} {
		addrs, cellErr := r.Expand()
		require.Nil(t, addrs)
		require.NotNil(t, cellErr)
		require.Equal(t, ErrorCodeRef, cellErr.Code)
	}
}

func TestParseAddress(t *testing.T) {
	cases := []struct {
		ref  string
		addr Address
	}{
		{"A1", Address{Row: 0, Col: 0}},
		{"B2", Address{Row: 1, Col: 1}},
		{"Z99", Address{Row: 98, Col: 25}},
		{"AA1", Address{Row: 0, Col: 26}},
		{"c10", Address{Row: 9, Col: 2}},
	}

	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			addr, err := ParseAddress(tc.ref)
			require.NoError(t, err)
			require.Equal(t, tc.addr, addr)
		})
	}
}

func TestParseAddressInvalid(t *testing.T) {
	for _, ref := range []string{"", "A", "1", "A0", "A-1", "1A", "A1B", "AB"} {
		t.Run(ref, func(t *testing.T) {
			_, err := ParseAddress(ref)
			require.Error(t, err)
		})
	}
}

func TestFormatAddressRoundTrip(t *testing.T) {
	for _, addr := range []Address{
		{Row: 0, Col: 0},
		{Row: 9, Col: 2},
		{Row: 999, Col: 26},
		{Row: 0, Col: 702},
	} {
		back, err := ParseAddress(FormatAddress(addr.Row, addr.Col))
		require.NoError(t, err)
		require.Equal(t, addr, back)
	}
}

func TestCellRangeNormalization(t *testing.T) {
	r := NewCellRange(Address{Row: 5, Col: 3}, Address{Row: 1, Col: 7})
	require.Equal(t, Address{Row: 1, Col: 3}, r.Start)
	require.Equal(t, Address{Row: 5, Col: 7}, r.End)
	require.Equal(t, 25, r.CellCount())
}

func TestCellRangeExpand(t *testing.T) {
	r, err := ParseRangeRef("A1:C2")
	require.NoError(t, err)

	addrs, cellErr := r.Expand()
	require.Nil(t, cellErr)
	require.Equal(t, []Address{
		{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2},
		{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2},
	}, addrs)
}

func TestCellRangeExpandCeiling(t *testing.T) {
	// exactly at the limit is fine
	atLimit := NewCellRange(Address{}, Address{Row: 99, Col: 99})
	require.Equal(t, MaxRangeCells, atLimit.CellCount())
	addrs, cellErr := atLimit.Expand()
	require.Nil(t, cellErr)
	require.Len(t, addrs, MaxRangeCells)

	// one past the limit fails before any enumeration
	past := NewCellRange(Address{}, Address{Row: 100, Col: 99})
	addrs, cellErr = past.Expand()
	require.Nil(t, addrs)
	require.NotNil(t, cellErr)
	require.Equal(t, ErrorCodeRef, cellErr.Code)
}

func TestCellRangeExpandHugeIsBounded(t *testing.T) {
	// a range covering a million rows must fail in constant time
	huge, err := ParseRangeRef("A1:ZZ1000000")
	require.NoError(t, err)
	_, cellErr := huge.Expand()
	require.NotNil(t, cellErr)
	require.Equal(t, ErrorCodeRef, cellErr.Code)
}

func TestCellRangeContains(t *testing.T) {
	r, err := ParseRangeRef("B2:D4")
	require.NoError(t, err)
	require.True(t, r.Contains(Address{Row: 1, Col: 1}))
	require.True(t, r.Contains(Address{Row: 3, Col: 3}))
	require.False(t, r.Contains(Address{Row: 0, Col: 1}))
	require.False(t, r.Contains(Address{Row: 1, Col: 4}))
}
