package mapping

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shadow/pkg/core"
)

const sample = `
transform: upper
match:
  - "users/**"
fields:
  name: hiddenName
  items.*.code: items.*.hiddenCode
  a: z
indexes:
  - email
  - addresses.*.city
`

func TestLoad_PreservesOrder(t *testing.T) {
	m, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	var got []string
	for _, e := range m.Entries {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{
		"name -> hiddenName",
		"items.*.code -> items.*.hiddenCode",
		"a -> z",
		"email -> @hidden.email",
		"addresses.*.city -> addresses.*.@hidden.city",
	}, got)
	assert.Equal(t, "upper", m.Transform)
	assert.Equal(t, "@hidden", m.HiddenKey)
	assert.NotNil(t, m.Func())
}

func TestLoad_ListForm(t *testing.T) {
	m, err := Load(strings.NewReader(`
hidden_key: _ci
transform: lower
fields:
  - source: title
    destination: _ci.title
indexes: [author.name]
`))
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, "author._ci.name", m.Entries[1].Destination)
	assert.Equal(t, "lower", m.Transform)
}

func TestLoad_Malformed(t *testing.T) {
	tests := map[string]string{
		"wildcard mismatch":     "fields:\n  items.*.code: hidden\n",
		"duplicate destination": "fields:\n  a: h\n  b: h\n",
		"index duplicates":      "fields:\n  email: \"@hidden.email\"\nindexes: [email]\n",
		"no fields":             "transform: upper\n",
		"empty file":            "",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.ErrorIs(t, err, core.ErrMalformedMapping)
		})
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	_, err := Load(strings.NewReader("transform: rot13\nfields:\n  a: b\n"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader("fields:\n  a: b\nunknown: 1\n"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader("match: [\"[\"]\nfields:\n  a: b\n"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader("fields:\n  a:\n    nested: true\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, m.Entries, 5)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	m, err := New("", Field{Source: "a", Destination: "b"})
	require.NoError(t, err)
	assert.True(t, m.Matches("anything"))

	m.Match = []string{"users/**", "*.json"}
	assert.True(t, m.Matches("users/eu/jane"))
	assert.True(t, m.Matches("config.json"))
	assert.False(t, m.Matches("orders/1"))
}
