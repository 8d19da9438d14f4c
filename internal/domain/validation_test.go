package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validationNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func validApplicant() *Beneficiary {
	return &Beneficiary{
		LastName:   "Santos",
		FirstName:  "Maria",
		MiddleName: "Reyes",
		BirthMonth: "March",
		BirthDay:   "4",
		BirthYear:  "1980",
		Sex:        "f",
	}
}

func TestValidateApplication_Valid(t *testing.T) {
	b := validApplicant()
	require.Nil(t, ValidateApplication(b, validationNow))
	assert.Equal(t, "Female", b.Sex)
}

func TestValidateApplication_Required(t *testing.T) {
	errs := ValidateApplication(&Beneficiary{}, validationNow)
	require.NotNil(t, errs)
	for _, k := range []string{FieldLastName, FieldFirstName, FieldBirthMonth, FieldBirthDay, FieldBirthYear, FieldSex} {
		assert.Contains(t, errs, k)
	}
	assert.NotContains(t, errs, FieldMiddleName)
}

func TestValidateApplication_Underage(t *testing.T) {
	b := validApplicant()
	b.BirthMonth, b.BirthDay, b.BirthYear = "10", "19", "2008"
	errs := ValidateApplication(b, validationNow)
	require.NotNil(t, errs)
	assert.Equal(t, "applicant must be at least 18 years old", errs[FieldBirthYear])

	b.BirthDay = "18"
	assert.Nil(t, ValidateApplication(b, validationNow), "turns 18 today")
}

func TestValidateApplication_ReportsEveryField(t *testing.T) {
	b := validApplicant()
	b.LastName = "J."
	b.Sex = "x"
	b.BirthMonth, b.BirthDay, b.BirthYear = "1", "1", "2020"

	errs := ValidateApplication(b, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, errs)
	assert.Contains(t, errs, FieldLastName)
	assert.Contains(t, errs, FieldSex)
	assert.Equal(t, "applicant must be at least 18 years old", errs[FieldBirthYear])
	assert.NotContains(t, errs, FieldFirstName)
}

func TestValidateApplication_MalformedNames(t *testing.T) {
	b := validApplicant()
	b.MiddleName = "R."
	b.FirstName = "M4ria"
	errs := ValidateApplication(b, validationNow)
	require.NotNil(t, errs)
	assert.Contains(t, errs, FieldMiddleName)
	assert.Contains(t, errs, FieldFirstName)
	assert.NotContains(t, errs, FieldLastName)
}

func TestValidateApplication_ImpossibleDate(t *testing.T) {
	b := validApplicant()
	b.BirthMonth, b.BirthDay = "February", "30"
	errs := ValidateApplication(b, validationNow)
	require.NotNil(t, errs)
	assert.Contains(t, errs, FieldBirthDay)
	assert.Contains(t, errs.Error(), "birth_day")
}
