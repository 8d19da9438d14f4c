package spreadsheet

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestColumnLabel(t *testing.T) {
	cases := map[int]string{
		0:     "A",
		1:     "B",
		25:    "Z",
		26:    "AA",
		27:    "AB",
		51:    "AZ",
		52:    "BA",
		701:   "ZZ",
		702:   "AAA",
		16383: "XFD",
	}
	for in, want := range cases {
		assert.Equal(t, want, ColumnLabel(in), "index %d", in)
	}
	assert.Equal(t, "", ColumnLabel(-1))
}

func TestColumnLabel_LargestIndices(t *testing.T) {
	top := ColumnLabel(math.MaxInt)
	require.NotEmpty(t, top)
	assert.Equal(t, strings.ToUpper(top), top)
	assert.NotEqual(t, top, ColumnLabel(math.MaxInt-1))
	for _, r := range top {
		assert.True(t, r >= 'A' && r <= 'Z', "unexpected %q in %s", r, top)
	}

	got, err := ColumnIndex(ColumnLabel(math.MaxInt - 1))
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt-1, got)
}

func TestColumnLabel_AgreesWithExcelize(t *testing.T) {
	for i := 0; i < 2000; i++ {
		want, err := excelize.ColumnNumberToName(i + 1)
		require.NoError(t, err)
		require.Equal(t, want, ColumnLabel(i), "index %d", i)
	}
}

func TestColumnLabel_TierGrowsAtMultiplesOf26(t *testing.T) {
	for n := 0; n < 800; n++ {
		here := len(ColumnLabel(n))
		next := len(ColumnLabel(n + 1))
		if next > here {
			// a new tier starts at 26, 26+26^2, ...
			assert.True(t, strings.Trim(ColumnLabel(n), "Z") == "", "tier boundary after %s", ColumnLabel(n))
		}
	}
	assert.Len(t, ColumnLabel(25), 1)
	assert.Len(t, ColumnLabel(26), 2)
}

func TestColumnIndex_RoundTrip(t *testing.T) {
	for i := 0; i < 5000; i++ {
		got, err := ColumnIndex(ColumnLabel(i))
		require.NoError(t, err)
		require.Equal(t, i, got)
	}
	got, err := ColumnIndex("ab")
	require.NoError(t, err)
	assert.Equal(t, 27, got)

	for _, bad := range []string{"", "A1", "-", "Ä"} {
		_, err := ColumnIndex(bad)
		assert.Error(t, err, bad)
	}
}

func TestCellRef(t *testing.T) {
	assert.Equal(t, "A1", CellRef(0, 0))
	assert.Equal(t, "AA10", CellRef(26, 9))
}
