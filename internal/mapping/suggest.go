package mapping

import (
	"strings"

	"beneficiary-data/internal/domain"
)

// Suggestion proposes a target field for one source header. Exact is true
// when the header equals a field key or label ignoring case; otherwise the
// match was by substring containment.
type Suggestion struct {
	Header   string `json:"header"`
	FieldKey string `json:"field_key"`
	Exact    bool   `json:"exact"`
}

// Suggest proposes at most one field per header. The tiers are tried in
// order and the first hit wins:
//  1. header equals a field key
//  2. header equals a field label
//  3. header contains, or is contained in, a field key
//  4. the same containment check against field labels
//
// Headers that match nothing get no suggestion.
func Suggest(headers []string, schema []domain.Field) []Suggestion {
	out := make([]Suggestion, 0, len(headers))
	for _, h := range headers {
		if s, ok := suggestOne(h, schema); ok {
			out = append(out, s)
		}
	}
	return out
}

func suggestOne(header string, schema []domain.Field) (Suggestion, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return Suggestion{}, false
	}
	for _, f := range schema {
		if h == strings.ToLower(f.Key) {
			return Suggestion{Header: header, FieldKey: f.Key, Exact: true}, true
		}
	}
	for _, f := range schema {
		if h == strings.ToLower(f.Label) {
			return Suggestion{Header: header, FieldKey: f.Key, Exact: true}, true
		}
	}
	for _, f := range schema {
		if contains(h, strings.ToLower(f.Key)) {
			return Suggestion{Header: header, FieldKey: f.Key}, true
		}
	}
	for _, f := range schema {
		if contains(h, strings.ToLower(f.Label)) {
			return Suggestion{Header: header, FieldKey: f.Key}, true
		}
	}
	return Suggestion{}, false
}

func contains(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
