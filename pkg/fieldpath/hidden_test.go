package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHiddenFor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"strField", "@hidden.strField"},
		{"objField.strField", "objField.@hidden.strField"},
		{"tags.*", "@hidden.tags.*"},
		{"items.*.code", "items.*.@hidden.code"},
		{"a.b.*", "a.@hidden.b.*"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := HiddenFor(tt.in, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			back, err := FieldFor(got, "")
			require.NoError(t, err)
			assert.Equal(t, tt.in, back)
		})
	}

	_, err := HiddenFor("*", "")
	assert.Error(t, err)

	got, err := HiddenFor("a.b", "_ci")
	require.NoError(t, err)
	assert.Equal(t, "a._ci.b", got)
}

func TestFieldFor_NotHidden(t *testing.T) {
	_, err := FieldFor("a.b", "")
	assert.Error(t, err)
	_, err = FieldFor("@hidden", "")
	assert.Error(t, err)
}
