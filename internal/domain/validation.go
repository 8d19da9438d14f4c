package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// MinimumApplicantAge is the age an applicant must have reached on the day
// the form is submitted.
const MinimumApplicantAge = 18

// FieldErrors maps a schema field key to a user-facing message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateApplication checks the applicant-facing rules on b and
// canonicalizes sex. It returns nil when b is acceptable.
func ValidateApplication(b *Beneficiary, now time.Time) FieldErrors {
	b.Normalize()
	errs := FieldErrors{}

	for _, key := range []string{FieldLastName, FieldFirstName, FieldBirthMonth, FieldBirthDay, FieldBirthYear, FieldSex} {
		if b.Get(key) == "" {
			errs[key] = "this field is required"
		}
	}

	for _, key := range []string{FieldLastName, FieldFirstName, FieldMiddleName} {
		v := b.Get(key)
		if v == "" || errs[key] != "" {
			continue
		}
		if !validNamePart(v) {
			errs[key] = "enter the full name, not an initial"
		}
	}

	if b.Sex != "" {
		switch strings.ToLower(b.Sex) {
		case "male", "m":
			b.Sex = "Male"
		case "female", "f":
			b.Sex = "Female"
		default:
			errs[FieldSex] = "must be Male or Female"
		}
	}

	if errs[FieldBirthMonth] == "" && errs[FieldBirthDay] == "" && errs[FieldBirthYear] == "" {
		validateBirthDate(b, now, errs)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateBirthDate(b *Beneficiary, now time.Time, errs FieldErrors) {
	month, ok := ParseMonth(b.BirthMonth)
	if !ok {
		errs[FieldBirthMonth] = "invalid month"
	}
	day, err := strconv.Atoi(b.BirthDay)
	if err != nil || day < 1 || day > 31 {
		errs[FieldBirthDay] = "invalid day"
	}
	year, err := strconv.Atoi(b.BirthYear)
	if err != nil || year < 1900 {
		errs[FieldBirthYear] = "invalid year"
	}
	if errs[FieldBirthMonth] != "" || errs[FieldBirthDay] != "" || errs[FieldBirthYear] != "" {
		return
	}

	birth := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	if birth.Day() != day {
		errs[FieldBirthDay] = "day does not exist in that month"
		return
	}
	if birth.After(now) {
		errs[FieldBirthYear] = "birth date is in the future"
		return
	}
	if ageOn(birth, now) < MinimumApplicantAge {
		errs[FieldBirthYear] = "applicant must be at least 18 years old"
	}
}

func ageOn(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// validNamePart rejects bare initials and values with digits or symbols.
func validNamePart(s string) bool {
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ' || r == '-' || r == '\'' || r == '.':
		default:
			return false
		}
	}
	return letters >= 2
}
