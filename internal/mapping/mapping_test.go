package mapping

import (
	"encoding/json"
	"testing"

	"beneficiary-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping_AssignIsOneToOne(t *testing.T) {
	m := New()
	require.NoError(t, m.Assign("Surname", domain.FieldLastName))
	require.NoError(t, m.Assign("Apelyido", domain.FieldLastName))

	_, ok := m.Field("Surname")
	assert.False(t, ok, "previous source for the field is un-mapped")
	src, ok := m.Source(domain.FieldLastName)
	require.True(t, ok)
	assert.Equal(t, "Apelyido", src)

	require.NoError(t, m.Assign("Apelyido", domain.FieldFirstName))
	_, ok = m.Source(domain.FieldLastName)
	assert.False(t, ok, "re-targeting a source frees its old field")
	assert.Equal(t, 1, m.Len())

	assert.Error(t, m.Assign("X", "nickname"))
}

func TestMapping_Unassign(t *testing.T) {
	m := New()
	require.NoError(t, m.Assign("A", domain.FieldSex))
	m.Unassign("A")
	m.Unassign("never-mapped")
	assert.Equal(t, 0, m.Len())
	_, ok := m.Source(domain.FieldSex)
	assert.False(t, ok)
}

func TestMapping_ApplyKeepsManualMappings(t *testing.T) {
	m := New()
	require.NoError(t, m.Assign("Last Name", domain.FieldSubCategory))

	n := m.Apply(Suggest([]string{"Last Name", "First Name"}, domain.Schema), false)
	assert.Equal(t, 1, n)
	f, _ := m.Field("Last Name")
	assert.Equal(t, domain.FieldSubCategory, f, "manual mapping survives")
	f, _ = m.Field("First Name")
	assert.Equal(t, domain.FieldFirstName, f)
}

func TestMapping_ApplyExactWinsOverApproximate(t *testing.T) {
	headers := []string{"Last Name of Applicant", "last_name"}
	m := New()
	n := m.Apply(Suggest(headers, domain.Schema), false)

	assert.Equal(t, 1, n)
	src, ok := m.Source(domain.FieldLastName)
	require.True(t, ok)
	assert.Equal(t, "last_name", src)
	_, ok = m.Field("Last Name of Applicant")
	assert.False(t, ok)
}

func TestMapping_ApplyExactOnly(t *testing.T) {
	m := New()
	n := m.Apply(Suggest([]string{"Barangay Name", "Province"}, domain.Schema), true)
	assert.Equal(t, 1, n)
	_, ok := m.Field("Barangay Name")
	assert.False(t, ok)
	f, _ := m.Field("Province")
	assert.Equal(t, domain.FieldProvince, f)
}

func TestMapping_JSON(t *testing.T) {
	var m Mapping
	require.NoError(t, json.Unmarshal([]byte(`{"Surname":"last_name","Ignored":""}`), &m))
	assert.Equal(t, map[string]string{"Surname": "last_name"}, m.Pairs())

	b, err := json.Marshal(&m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Surname":"last_name"}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"Surname":"nope"}`), &m))
}

func TestFromPairs_Deterministic(t *testing.T) {
	m, err := FromPairs(map[string]string{"B": domain.FieldSex, "A": domain.FieldSex})
	require.NoError(t, err)
	src, _ := m.Source(domain.FieldSex)
	assert.Equal(t, "B", src, "later source in sorted order wins")
}
