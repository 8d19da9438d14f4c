package spreadsheet

import "strings"

// PlaceholderPrefix names blank header cells: a blank header in column B
// becomes "Column B".
const PlaceholderPrefix = "Column "

// HeaderDescriptor pairs a header with the cell it came from.
type HeaderDescriptor struct {
	Header      string `json:"header"`
	Column      string `json:"column"`
	Cell        string `json:"cell"`
	Placeholder bool   `json:"placeholder"`
}

// Extraction is the header row and the data rows of one sheet. HeaderRow is
// the zero-based sheet row the headers were read from.
//
// Rows are keyed by header text. When two columns share a header the later
// column overwrites the earlier one in every row; such headers are listed in
// DuplicateHeaders so callers can warn about it.
type Extraction struct {
	Sheet            string              `json:"sheet"`
	HeaderRow        int                 `json:"header_row"`
	Headers          []string            `json:"headers"`
	Descriptors      []HeaderDescriptor  `json:"descriptors"`
	Origins          map[string]string   `json:"origins"`
	DuplicateHeaders []string            `json:"duplicate_headers"`
	Rows             []map[string]string `json:"-"`
}

// Extract derives headers from the first row of the used range and turns
// every following row into a header-keyed record.
func Extract(sheet *Sheet) *Extraction {
	out := &Extraction{
		Sheet:            sheet.Name,
		HeaderRow:        sheet.FirstRow,
		Headers:          []string{},
		Descriptors:      []HeaderDescriptor{},
		Origins:          map[string]string{},
		DuplicateHeaders: []string{},
		Rows:             []map[string]string{},
	}
	if len(sheet.Cells) == 0 {
		return out
	}

	width := sheet.Width()
	seen := make(map[string]int, width)
	for c := 0; c < width; c++ {
		col := ColumnLabel(sheet.FirstCol + c)
		header := strings.TrimSpace(sheet.Cells[0][c])
		placeholder := header == ""
		if placeholder {
			header = PlaceholderPrefix + col
		}
		out.Headers = append(out.Headers, header)
		out.Descriptors = append(out.Descriptors, HeaderDescriptor{
			Header:      header,
			Column:      col,
			Cell:        CellRef(sheet.FirstCol+c, sheet.FirstRow),
			Placeholder: placeholder,
		})
		out.Origins[header] = CellRef(sheet.FirstCol+c, sheet.FirstRow)
		seen[header]++
		if seen[header] == 2 {
			out.DuplicateHeaders = append(out.DuplicateHeaders, header)
		}
	}

	for _, line := range sheet.Cells[1:] {
		rec := make(map[string]string, width)
		for c, header := range out.Headers {
			v := ""
			if c < len(line) {
				v = line[c]
			}
			rec[header] = v
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}
