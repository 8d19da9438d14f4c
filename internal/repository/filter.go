package repository

import (
	"strings"

	"beneficiary-data/internal/domain"
)

// BeneficiaryFilter 列表查询条件
//
// Search matches a case-insensitive substring of any name part.
// TypeOfAssistance matches exactly, ignoring case. SortBy is a schema field
// key; anything else sorts by creation time. Size <= 0 returns every match.
type BeneficiaryFilter struct {
	Search           string
	TypeOfAssistance string
	SortBy           string
	Desc             bool
	Page             int
	Size             int
}

// Offset is the number of matches skipped before the requested page.
func (f BeneficiaryFilter) Offset() int {
	if f.Size <= 0 || f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Size
}

// SortField returns the validated sort key, or "" for creation order.
func (f BeneficiaryFilter) SortField() string {
	if _, ok := domain.FieldByKey(f.SortBy); ok {
		return f.SortBy
	}
	return ""
}

var nameFields = []string{domain.FieldLastName, domain.FieldFirstName, domain.FieldMiddleName, domain.FieldExtName}

// Matches applies Search and TypeOfAssistance to b. Empty records never
// match.
func (f BeneficiaryFilter) Matches(b *domain.Beneficiary) bool {
	if b.IsEmpty() {
		return false
	}
	if f.TypeOfAssistance != "" && !strings.EqualFold(strings.TrimSpace(b.TypeOfAssistance), strings.TrimSpace(f.TypeOfAssistance)) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	for _, key := range nameFields {
		if strings.Contains(strings.ToLower(b.Get(key)), q) {
			return true
		}
	}
	return false
}

// Less orders a before b under the filter's sort. Ties fall back to creation
// time and then id so paging is stable.
func (f BeneficiaryFilter) Less(a, b *domain.Beneficiary) bool {
	if key := f.SortField(); key != "" {
		var c int
		if key == domain.FieldAmount {
			c = a.Amount.Cmp(b.Amount)
		} else {
			c = strings.Compare(strings.ToLower(a.Get(key)), strings.ToLower(b.Get(key)))
		}
		if c != 0 {
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if f.Desc && f.SortField() == "" {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.BeneficiaryID < b.BeneficiaryID
}

// paginate slices one page out of a sorted result.
func paginate[T any](all []T, f BeneficiaryFilter) []T {
	if f.Size <= 0 {
		return all
	}
	start := f.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
