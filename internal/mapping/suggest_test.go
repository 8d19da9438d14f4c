package mapping

import (
	"testing"

	"beneficiary-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suggestionFor(t *testing.T, got []Suggestion, header string) (Suggestion, bool) {
	t.Helper()
	for _, s := range got {
		if s.Header == header {
			return s, true
		}
	}
	return Suggestion{}, false
}

func TestSuggest_ExactMatches(t *testing.T) {
	got := Suggest([]string{"LAST_NAME", "first name", "Amount", "PhilSys Number"}, domain.Schema)
	require.Len(t, got, 4)
	for _, s := range got {
		assert.True(t, s.Exact, s.Header)
	}
	assert.Equal(t, domain.FieldLastName, got[0].FieldKey)
	assert.Equal(t, domain.FieldFirstName, got[1].FieldKey)
	assert.Equal(t, domain.FieldAmount, got[2].FieldKey)
	assert.Equal(t, domain.FieldPhilsysNumber, got[3].FieldKey)
}

func TestSuggest_ApproximateMatches(t *testing.T) {
	got := Suggest([]string{"Surname / Last Name of Applicant", "Barangay Name", "Sex (M/F)", "Total Amount"}, domain.Schema)

	s, ok := suggestionFor(t, got, "Barangay Name")
	require.True(t, ok)
	assert.False(t, s.Exact)
	assert.Equal(t, domain.FieldBarangay, s.FieldKey)

	s, ok = suggestionFor(t, got, "Sex (M/F)")
	require.True(t, ok)
	assert.False(t, s.Exact)
	assert.Equal(t, domain.FieldSex, s.FieldKey)

	s, ok = suggestionFor(t, got, "Total Amount")
	require.True(t, ok)
	assert.Equal(t, domain.FieldAmount, s.FieldKey)

	s, ok = suggestionFor(t, got, "Surname / Last Name of Applicant")
	require.True(t, ok)
	assert.False(t, s.Exact)
	assert.Equal(t, domain.FieldLastName, s.FieldKey)
}

func TestSuggest_NoMatch(t *testing.T) {
	got := Suggest([]string{"Remarks", "", "   "}, domain.Schema)
	assert.Empty(t, got)
}

func TestSuggest_KeyTierBeatsLabelTier(t *testing.T) {
	schema := []domain.Field{
		{Key: "code", Label: "Zip"},
		{Key: "zip", Label: "Postal"},
	}
	got := Suggest([]string{"zip"}, schema)
	require.Len(t, got, 1)
	assert.Equal(t, "zip", got[0].FieldKey, "exact key match is tried before exact label match")
	assert.True(t, got[0].Exact)
}

func TestSuggest_ExactAlwaysMarkedExact(t *testing.T) {
	for _, f := range domain.Schema {
		for _, h := range []string{f.Key, f.Label} {
			got := Suggest([]string{h}, domain.Schema)
			require.Len(t, got, 1, h)
			assert.True(t, got[0].Exact, h)
			assert.Equal(t, f.Key, got[0].FieldKey, h)
		}
	}
}
