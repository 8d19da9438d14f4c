package dedupe

import (
	"strings"
	"testing"

	"beneficiary-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func person(id, last, first, middle, m, d, y string) domain.Beneficiary {
	return domain.Beneficiary{
		BeneficiaryID: id, LastName: last, FirstName: first, MiddleName: middle,
		BirthMonth: m, BirthDay: d, BirthYear: y,
	}
}

func TestFind_CaseInsensitiveNames(t *testing.T) {
	records := []domain.Beneficiary{
		person("1", "Santos", "Maria", "Reyes", "3", "4", "1980"),
		person("2", "SANTOS", "maria", "reyes", "3", "4", "1980"),
		person("3", "Santos", "Maria", "Reyes", "3", "5", "1980"),
		person("4", " santos ", "MARIA", "Reyes", "3", "4", "1980"),
	}
	report := Find(records)

	require.Len(t, report.Groups, 1)
	g := report.Groups[0]
	assert.Equal(t, "1", g.Keep.BeneficiaryID, "first encountered record is kept")
	require.Len(t, g.Remove, 2)
	assert.Equal(t, "2", g.Remove[0].BeneficiaryID)
	assert.Equal(t, "4", g.Remove[1].BeneficiaryID)
	assert.Equal(t, 2, report.CandidateCount)
	assert.Equal(t, []string{"2", "4"}, report.RemovalIDs())
}

func TestFind_BlankNamesNeedMatchingBirthDates(t *testing.T) {
	records := []domain.Beneficiary{
		person("1", "", "", "", "1", "1", "1990"),
		person("2", "", "", "", "2", "1", "1990"),
		person("3", "", "", "", "", "", ""),
		person("4", "", "", "", "1", "1", "1990"),
	}
	report := Find(records)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "1", report.Groups[0].Keep.BeneficiaryID)
	assert.Equal(t, "4", report.Groups[0].Remove[0].BeneficiaryID)
}

func TestFind_NoDuplicates(t *testing.T) {
	report := Find([]domain.Beneficiary{
		person("1", "A", "B", "", "1", "1", "2000"),
		person("2", "A", "B", "C", "1", "1", "2000"),
	})
	assert.Empty(t, report.Groups)
	assert.Equal(t, 0, report.CandidateCount)
	assert.Empty(t, report.RemovalIDs())
}

func TestKey_SeparatorCannotBeForged(t *testing.T) {
	a := person("1", "a"+keySeparator+"b", "c", "", "", "", "")
	b := person("2", "a", "b"+keySeparator+"c", "", "", "", "")
	assert.NotEqual(t, Key(&a), Key(&b))
	assert.Equal(t, 5, strings.Count(Key(&a), keySeparator))
}

func TestKey_UnicodeNormalization(t *testing.T) {
	composed := person("1", "Pe\u00f1a", "Jos\u00e9", "", "", "", "")
	decomposed := person("2", "Pen\u0303a", "Jose\u0301", "", "", "", "")
	assert.Equal(t, Key(&composed), Key(&decomposed))
}
