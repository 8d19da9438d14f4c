package mapping

import (
	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/spreadsheet"
)

// RowError reports a cell that could not be converted into the schema.
// Row is the 1-based spreadsheet row number.
type RowError struct {
	Row     int    `json:"row"`
	Header  string `json:"header"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BuildRecords converts extracted rows into beneficiary records through m.
// Unmapped columns are ignored. Rows that map to an empty record are
// skipped; rows with an unconvertible cell are skipped and reported.
func BuildRecords(ex *spreadsheet.Extraction, m *Mapping) ([]domain.Beneficiary, []RowError) {
	records := make([]domain.Beneficiary, 0, len(ex.Rows))
	rowErrs := []RowError{}
	pairs := m.Pairs()

	for i, row := range ex.Rows {
		var b domain.Beneficiary
		failed := false
		for header, field := range pairs {
			v, ok := row[header]
			if !ok {
				continue
			}
			if err := b.Set(field, v); err != nil {
				rowErrs = append(rowErrs, RowError{
					Row:     ex.HeaderRow + i + 2,
					Header:  header,
					Field:   field,
					Message: err.Error(),
				})
				failed = true
			}
		}
		if failed || b.IsEmpty() {
			continue
		}
		records = append(records, b)
	}
	return records, rowErrs
}
