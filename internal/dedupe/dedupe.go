// Package dedupe finds beneficiary records that describe the same person.
package dedupe

import (
	"strings"

	"beneficiary-data/internal/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// keySeparator joins identity parts. It is stripped from values first so it
// can never occur inside a part.
const keySeparator = "\x1f"

// Group is a set of two or more records sharing an identity key. Keep is the
// first record in input order; Remove holds the rest.
type Group struct {
	Key    string               `json:"key"`
	Name   string               `json:"name"`
	Keep   domain.Beneficiary   `json:"keep"`
	Remove []domain.Beneficiary `json:"remove"`
}

// Report is the outcome of a duplicate scan.
type Report struct {
	Groups         []Group `json:"groups"`
	CandidateCount int     `json:"candidate_count"`
}

// RemovalIDs lists the ids of every record proposed for deletion.
func (r *Report) RemovalIDs() []string {
	ids := make([]string, 0, r.CandidateCount)
	for _, g := range r.Groups {
		for _, b := range g.Remove {
			ids = append(ids, b.BeneficiaryID)
		}
	}
	return ids
}

// Key builds the identity of a record from its name parts and birth date
// parts, lower-cased, with missing parts treated as empty.
func Key(b *domain.Beneficiary) string {
	fold := cases.Lower(language.Und)
	parts := []string{b.LastName, b.FirstName, b.MiddleName, b.BirthMonth, b.BirthDay, b.BirthYear}
	for i, p := range parts {
		p = strings.ReplaceAll(p, keySeparator, "")
		parts[i] = fold.String(norm.NFC.String(strings.TrimSpace(p)))
	}
	return strings.Join(parts, keySeparator)
}

// Find groups records by Key and returns the groups with more than one
// member, ordered by first appearance.
func Find(records []domain.Beneficiary) Report {
	index := make(map[string]int, len(records))
	var groups []Group
	for _, b := range records {
		k := Key(&b)
		i, ok := index[k]
		if !ok {
			index[k] = len(groups)
			groups = append(groups, Group{Key: k, Name: b.FullName(), Keep: b})
			continue
		}
		groups[i].Remove = append(groups[i].Remove, b)
	}

	report := Report{Groups: []Group{}}
	for _, g := range groups {
		if len(g.Remove) == 0 {
			continue
		}
		report.Groups = append(report.Groups, g)
		report.CandidateCount += len(g.Remove)
	}
	return report
}
