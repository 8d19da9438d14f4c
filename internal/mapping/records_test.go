package mapping

import (
	"bytes"
	"testing"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/spreadsheet"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRecords(t *testing.T) {
	ex := spreadsheet.Extract(&spreadsheet.Sheet{Cells: [][]string{
		{"Surname", "Given", "Cash", "Notes"},
		{" Santos ", "Maria", "1,000", "ignored"},
		{"", "", "", "only notes"},
		{"Cruz", "Jose", "lots", ""},
	}})
	m, err := FromPairs(map[string]string{
		"Surname": domain.FieldLastName,
		"Given":   domain.FieldFirstName,
		"Cash":    domain.FieldAmount,
	})
	require.NoError(t, err)

	records, rowErrs := BuildRecords(ex, m)
	require.Len(t, records, 1)
	assert.Equal(t, "Santos", records[0].LastName)
	assert.True(t, records[0].Amount.Equal(decimal.NewFromInt(1000)))

	require.Len(t, rowErrs, 1)
	assert.Equal(t, 4, rowErrs[0].Row)
	assert.Equal(t, domain.FieldAmount, rowErrs[0].Field)
}

// Exporting and re-importing reproduces every field value; only the birth
// month comes back in its normalized numeric form.
func TestExportImportRoundTrip(t *testing.T) {
	original := []domain.Beneficiary{
		{
			LastName: "Santos", FirstName: "Maria", MiddleName: "Reyes", ExtName: "",
			BirthMonth: "March", BirthDay: "4", BirthYear: "1980", Sex: "Female",
			CivilStatus: "Married", Street: "Purok 3", Barangay: "San Isidro",
			CityMunicipality: "Tanauan", Province: "Batangas", District: "3rd",
			TypeOfAssistance: "Medical", Amount: decimal.RequireFromString("12500.5"),
			PhilsysNumber: "0012345678901234", ContactNumber: "09171234567",
			BeneficiaryCategory: "Senior Citizen", SubCategory: "Indigent",
		},
		{LastName: "Cruz", FirstName: "Jose", BirthMonth: "11", Amount: decimal.RequireFromString("1000000")},
	}

	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteExport(&buf, original))

	wb, err := spreadsheet.ReadWorkbook(bytes.NewReader(buf.Bytes()), "export.xlsx")
	require.NoError(t, err)
	sheet, err := wb.Sheet("")
	require.NoError(t, err)
	ex := spreadsheet.Extract(sheet)

	m := New()
	assert.Equal(t, len(domain.Schema), m.Apply(Suggest(ex.Headers, domain.Schema), true))

	got, rowErrs := BuildRecords(ex, m)
	require.Empty(t, rowErrs)

	want := make([]domain.Beneficiary, len(original))
	copy(want, original)
	for i := range want {
		want[i].BirthMonth = spreadsheet.NormalizeBirthMonth(want[i].BirthMonth)
	}
	diff := cmp.Diff(want, got, cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmpopts.IgnoreFields(domain.Beneficiary{}, "CreatedAt", "UpdatedAt"))
	assert.Empty(t, diff)
}
