package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrNoSheets          = errors.New("workbook has no sheets")
)

// Format of an uploaded workbook.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Sheet is the decoded used range of one worksheet. Cells is rectangular;
// FirstCol and FirstRow are the zero-based coordinates of Cells[0][0].
type Sheet struct {
	Name     string
	FirstCol int
	FirstRow int
	Cells    [][]string
}

// Width returns the number of columns in the used range.
func (s *Sheet) Width() int {
	if len(s.Cells) == 0 {
		return 0
	}
	return len(s.Cells[0])
}

// Workbook holds every sheet of an uploaded file.
type Workbook struct {
	Format Format
	Sheets []Sheet
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// Sheet returns the named sheet, or the first one when name is empty.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	if len(w.Sheets) == 0 {
		return nil, ErrNoSheets
	}
	if name == "" {
		return &w.Sheets[0], nil
	}
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
}

// DetectFormat sniffs the file header and falls back to the file extension.
func DetectFormat(data []byte, filename string) (Format, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS, nil
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	}
	return "", ErrUnsupportedFormat
}

// ReadWorkbook decodes an xlsx or xls file.
func ReadWorkbook(r io.Reader, filename string) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	format, err := DetectFormat(data, filename)
	if err != nil {
		return nil, err
	}
	var sheets []Sheet
	switch format {
	case FormatXLSX:
		sheets, err = readXLSX(data)
	case FormatXLS:
		sheets, err = readXLS(data)
	}
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	return &Workbook{Format: format, Sheets: sheets}, nil
}

func readXLSX(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
		}
		firstCol, firstRow, lastCol, lastRow := usedRangeFromRows(rows)

		// The stored dimension can be wider than the populated cells (styled
		// but empty columns); keep whichever range is larger.
		if dim, err := f.GetSheetDimension(name); err == nil && dim != "" {
			if fc, fr, lc, lr, ok := parseDimension(dim); ok {
				firstCol, firstRow = min(firstCol, fc), min(firstRow, fr)
				lastCol, lastRow = max(lastCol, lc), max(lastRow, lr)
			}
		}
		sheets = append(sheets, buildSheet(name, rows, firstCol, firstRow, lastCol, lastRow))
	}
	return sheets, nil
}

// parseDimension turns "B2:K40" into zero-based inclusive bounds.
func parseDimension(dim string) (firstCol, firstRow, lastCol, lastRow int, ok bool) {
	parts := strings.Split(dim, ":")
	c1, r1, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return 0, 0, 0, 0, false
	}
	c2, r2 := c1, r1
	if len(parts) > 1 {
		if c2, r2, err = excelize.CellNameToCoordinates(parts[len(parts)-1]); err != nil {
			return 0, 0, 0, 0, false
		}
	}
	return c1 - 1, r1 - 1, c2 - 1, r2 - 1, true
}

// usedRangeFromRows finds the bounding box of non-empty cells. An empty grid
// yields an inverted range (last < first).
func usedRangeFromRows(rows [][]string) (firstCol, firstRow, lastCol, lastRow int) {
	firstCol, firstRow, lastCol, lastRow = int(^uint(0)>>1), int(^uint(0)>>1), -1, -1
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			firstCol, lastCol = min(firstCol, c), max(lastCol, c)
			firstRow, lastRow = min(firstRow, r), max(lastRow, r)
		}
	}
	if lastRow < 0 {
		return 0, 0, -1, -1
	}
	return firstCol, firstRow, lastCol, lastRow
}

func buildSheet(name string, rows [][]string, firstCol, firstRow, lastCol, lastRow int) Sheet {
	s := Sheet{Name: name, FirstCol: firstCol, FirstRow: firstRow}
	if lastCol < firstCol || lastRow < firstRow {
		return s
	}
	s.Cells = make([][]string, 0, lastRow-firstRow+1)
	for r := firstRow; r <= lastRow; r++ {
		line := make([]string, lastCol-firstCol+1)
		if r < len(rows) {
			for c := firstCol; c <= lastCol && c < len(rows[r]); c++ {
				line[c-firstCol] = rows[r][c]
			}
		}
		s.Cells = append(s.Cells, line)
	}
	return s
}

func readXLS(data []byte) ([]Sheet, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		wb, err = xls.OpenReader(bytes.NewReader(data), "windows-1252")
		if err != nil {
			return nil, fmt.Errorf("failed to parse xls file: %w", err)
		}
	}

	sheets := make([]Sheet, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		rows := make([][]string, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				continue
			}
			line := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				line[c] = strings.TrimSpace(row.Col(c))
			}
			rows[r] = line
		}
		firstCol, firstRow, lastCol, lastRow := usedRangeFromRows(rows)
		sheets = append(sheets, buildSheet(ws.Name, rows, firstCol, firstRow, lastCol, lastRow))
	}
	return sheets, nil
}
