package mapping

import (
	"encoding/json"
	"fmt"
	"sort"

	"beneficiary-data/internal/domain"
)

// Mapping is a one-to-one partial function from source header to schema
// field key. At most one source maps to any field.
type Mapping struct {
	bySource map[string]string
	byField  map[string]string
}

// New returns an empty mapping.
func New() *Mapping {
	return &Mapping{bySource: map[string]string{}, byField: map[string]string{}}
}

// FromPairs builds a mapping from source -> field pairs, rejecting unknown
// fields. Pairs are applied in sorted source order so the result is
// deterministic when two sources name the same field.
func FromPairs(pairs map[string]string) (*Mapping, error) {
	m := New()
	sources := make([]string, 0, len(pairs))
	for s := range pairs {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		if pairs[s] == "" {
			continue
		}
		if err := m.Assign(s, pairs[s]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Assign maps source to field. Any other source currently mapped to field is
// un-mapped, as is any previous target of source.
func (m *Mapping) Assign(source, field string) error {
	if _, ok := domain.FieldByKey(field); !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	if prev, ok := m.byField[field]; ok {
		delete(m.bySource, prev)
	}
	if prev, ok := m.bySource[source]; ok {
		delete(m.byField, prev)
	}
	m.bySource[source] = field
	m.byField[field] = source
	return nil
}

// Unassign removes the mapping of source, if any.
func (m *Mapping) Unassign(source string) {
	if field, ok := m.bySource[source]; ok {
		delete(m.byField, field)
		delete(m.bySource, source)
	}
}

// Field returns the field mapped from source.
func (m *Mapping) Field(source string) (string, bool) {
	f, ok := m.bySource[source]
	return f, ok
}

// Source returns the source mapped to field.
func (m *Mapping) Source(field string) (string, bool) {
	s, ok := m.byField[field]
	return s, ok
}

// Len is the number of mapped sources.
func (m *Mapping) Len() int { return len(m.bySource) }

// Pairs returns a copy of the source -> field map.
func (m *Mapping) Pairs() map[string]string {
	out := make(map[string]string, len(m.bySource))
	for k, v := range m.bySource {
		out[k] = v
	}
	return out
}

// Apply adopts suggestions without disturbing what is already mapped: a
// source that is mapped keeps its field, and a field that is already claimed
// is not taken over. Exact suggestions are applied before approximate ones,
// so an approximate header never displaces an exact one. With exactOnly the
// approximate suggestions are ignored. It returns the number applied.
func (m *Mapping) Apply(suggestions []Suggestion, exactOnly bool) int {
	applied := 0
	for _, pass := range []bool{true, false} {
		if !pass && exactOnly {
			break
		}
		for _, s := range suggestions {
			if s.Exact != pass {
				continue
			}
			if _, mapped := m.bySource[s.Header]; mapped {
				continue
			}
			if _, claimed := m.byField[s.FieldKey]; claimed {
				continue
			}
			if err := m.Assign(s.Header, s.FieldKey); err != nil {
				continue
			}
			applied++
		}
	}
	return applied
}

func (m *Mapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.bySource)
}

func (m *Mapping) UnmarshalJSON(data []byte) error {
	var pairs map[string]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	built, err := FromPairs(pairs)
	if err != nil {
		return err
	}
	*m = *built
	return nil
}
