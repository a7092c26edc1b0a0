package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "radar/pkg/domain-errors"
)

func TestNormalizeCNPJ(t *testing.T) {
	cases := map[string]string{
		"11.222.333/0001-81":   "11222333000181",
		"11222333000181":       "11222333000181",
		" 11 222 333 0001 81 ": "11222333000181",
		"abc":                  "",
		"":                     "",
		"١٢٣":                  "",
	}
	for raw, want := range cases {
		got := NormalizeCNPJ(raw)
		assert.Equal(t, want, got, raw)
		assert.Equal(t, got, NormalizeCNPJ(got), "normalizing twice must equal normalizing once")
	}
}

func TestParseCNPJ(t *testing.T) {
	t.Run("accepts formatted input", func(t *testing.T) {
		cnpj, err := ParseCNPJ("11.222.333/0001-81")
		require.NoError(t, err)
		assert.Equal(t, CNPJ("11222333000181"), cnpj)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParseCNPJ(" ./- ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		for _, raw := range []string{"1122233300018", "112223330001811"} {
			_, err := ParseCNPJ(raw)
			require.Error(t, err, raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})
}

func TestPrincipalIsAdmin(t *testing.T) {
	assert.True(t, Principal{Role: RoleAdmin}.IsAdmin())
	assert.True(t, Principal{Role: RoleUser, Permissions: Permissions{Admin: true}}.IsAdmin())
	assert.False(t, Principal{Role: RoleUser}.IsAdmin())
}
