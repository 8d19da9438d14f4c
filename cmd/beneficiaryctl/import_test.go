package main

import (
	"testing"

	"beneficiary-data/internal/mapping"
	"beneficiary-data/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preview() *service.ImportPreview {
	return &service.ImportPreview{
		Sheet:   "Sheet1",
		Headers: []string{"Last Name", "First", "Given name", "Notes"},
		Suggestions: []mapping.Suggestion{
			{Header: "Last Name", FieldKey: "last_name", Exact: true},
			{Header: "Given name", FieldKey: "first_name"},
		},
	}
}

func TestBuildMappingManualWinsOverSuggestions(t *testing.T) {
	m, err := buildMapping(preview(), []string{"First=first_name"}, true, false)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Last Name": "last_name",
		"First":     "first_name",
	}, m.Pairs())
}

func TestBuildMappingExactOnly(t *testing.T) {
	m, err := buildMapping(preview(), nil, true, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Last Name": "last_name"}, m.Pairs())

	m, err = buildMapping(preview(), nil, true, false)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestBuildMappingRejectsBadPairs(t *testing.T) {
	_, err := buildMapping(preview(), []string{"Last Name"}, false, false)
	assert.ErrorContains(t, err, "want Header=field")

	_, err = buildMapping(preview(), []string{"Surname=last_name"}, false, false)
	assert.ErrorContains(t, err, `header "Surname" is not in sheet`)

	_, err = buildMapping(preview(), []string{"Notes=shoe_size"}, false, false)
	assert.ErrorContains(t, err, "unknown field")
}
