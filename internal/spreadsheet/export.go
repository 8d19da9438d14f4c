package spreadsheet

import (
	"fmt"
	"io"

	"beneficiary-data/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ExportSheetName is the single worksheet of an export.
const ExportSheetName = "Beneficiaries"

// ExportRows formats every non-empty record as label -> display value.
func ExportRows(records []domain.Beneficiary) []map[string]string {
	out := make([]map[string]string, 0, len(records))
	for i := range records {
		if records[i].IsEmpty() {
			continue
		}
		out = append(out, exportRow(&records[i]))
	}
	return out
}

func exportRow(b *domain.Beneficiary) map[string]string {
	row := make(map[string]string, len(domain.Schema))
	for _, f := range domain.Schema {
		switch f.Key {
		case domain.FieldAmount:
			row[f.Label] = FormatAmount(b.Amount)
		case domain.FieldBirthMonth:
			row[f.Label] = NormalizeBirthMonth(b.BirthMonth)
		default:
			row[f.Label] = b.Get(f.Key)
		}
	}
	return row
}

// WriteExport writes the records as an xlsx workbook with one fixed-width
// column per schema field.
func WriteExport(w io.Writer, records []domain.Beneficiary) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ExportSheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, field := range domain.Schema {
		col := ColumnLabel(i)
		cell := col + "1"
		if err := f.SetCellValue(ExportSheetName, cell, field.Label); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(ExportSheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		if err := f.SetColWidth(ExportSheetName, col, col, field.Width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r, row := range ExportRows(records) {
		for c, field := range domain.Schema {
			v := row[field.Label]
			if v == "" {
				continue
			}
			cell := CellRef(c, r+1)
			// Text cells keep leading zeros ("03") and long ID numbers intact.
			if err := f.SetCellStr(ExportSheetName, cell, v); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(ExportSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
