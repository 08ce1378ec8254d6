package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, len(DefaultTableOrder)*DefaultMaxMultiplier, c.FactCount())
	assert.Equal(t, 10, c.MaxOperand())

	sets := c.FactSets()
	require.Len(t, sets, len(DefaultTableOrder))
	for i, table := range DefaultTableOrder {
		assert.Equal(t, i, c.SetOrder(sets[i].ID))
		assert.Equal(t, table, sets[i].Facts[0].A)
	}

	f, ok := c.Fact("7x8")
	require.True(t, ok)
	assert.Equal(t, "table-7", f.FactSetID)
	assert.Equal(t, 56, f.Answer())
	assert.Equal(t, "7 × 8", f.Text)
}

func TestSetOrder_UnknownSortsLast(t *testing.T) {
	c := Default()
	assert.Equal(t, len(DefaultTableOrder), c.SetOrder("table-99"))
	assert.False(t, c.HasFact("99x99"))
}

func TestNew_SortsByOrderThenID(t *testing.T) {
	c, err := New([]FactSet{
		{ID: "b", Order: 1, Facts: []Fact{{A: 2, B: 2}}},
		{ID: "z", Order: 0, Facts: []Fact{{A: 3, B: 3}}},
		{ID: "a", Order: 1, Facts: []Fact{{A: 4, B: 4}}},
	})
	require.NoError(t, err)

	var ids []string
	for _, fs := range c.FactSets() {
		ids = append(ids, fs.ID)
	}
	assert.Equal(t, []string{"z", "a", "b"}, ids)
}

func TestNew_ValidationErrors(t *testing.T) {
	_, err := New([]FactSet{
		{ID: "one", Facts: []Fact{{A: 2, B: 3}}},
		{ID: "two", Facts: []Fact{{A: 2, B: 3}}},
		{ID: "one", Facts: []Fact{{A: -1, B: 3}}},
		{ID: "empty"},
	})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `fact "2x3" appears in both "one" and "two"`)
	assert.Contains(t, msg, `duplicate fact set ID: "one"`)
	assert.Contains(t, msg, "negative operand")
	assert.Contains(t, msg, `fact set "empty" has no facts`)
}

func TestNew_NoSets(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog has no fact sets")
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.yaml")
	doc := `
fact_sets:
  - id: doubles
    name: Doubles
    order: 1
    facts:
      - {a: 2, b: 2}
      - {a: 3, b: 3, text: "three squared"}
  - id: ones
    order: 0
    facts:
      - {a: 1, b: 1, id: one-one}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	sets := c.FactSets()
	require.Len(t, sets, 2)
	assert.Equal(t, "ones", sets[0].ID)

	f, ok := c.Fact("3x3")
	require.True(t, ok)
	assert.Equal(t, "three squared", f.Text)
	assert.Equal(t, "doubles", f.FactSetID)
	assert.True(t, c.HasFact("one-one"))
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing fact_sets", "other: 1\n"},
		{"negative operand", "fact_sets:\n  - id: x\n    facts:\n      - {a: -2, b: 3}\n"},
		{"unknown field", "fact_sets:\n  - id: x\n    colour: red\n    facts:\n      - {a: 2, b: 3}\n"},
		{"non-integer operand", "fact_sets:\n  - id: x\n    facts:\n      - {a: two, b: 3}\n"},
		{"empty facts", "fact_sets:\n  - id: x\n    facts: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "catalog does not match schema")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read catalog")
}
