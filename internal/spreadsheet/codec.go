package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnLabel converts a zero-based column index into its spreadsheet label:
// 0 -> "A", 25 -> "Z", 26 -> "AA", 701 -> "ZZ", 702 -> "AAA".
// Letters act as base-26 digits with no zero digit.
func ColumnLabel(index int) string {
	if index < 0 {
		return ""
	}
	var buf []byte
	for n := index; n >= 0; n = n/26 - 1 {
		buf = append(buf, byte('A'+n%26))
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// ColumnIndex is the inverse of ColumnLabel. Lower-case letters are accepted.
func ColumnIndex(label string) (int, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return 0, fmt.Errorf("empty column label")
	}
	n := 0
	for _, r := range label {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column label %q", label)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// CellRef builds a reference such as "B1" from zero-based coordinates.
func CellRef(col, row int) string {
	return ColumnLabel(col) + strconv.Itoa(row+1)
}
