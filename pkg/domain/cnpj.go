package domain

import (
	"strings"

	dErrors "radar/pkg/domain-errors"
)

// CNPJLength is the number of digits in a Brazilian company registry number.
const CNPJLength = 14

// CNPJ is a canonical company registry number: exactly 14 ASCII digits.
// Values are produced by ParseCNPJ; adapters, stores and services accept only
// this type and never re-normalize.
type CNPJ string

// NormalizeCNPJ strips every non-digit rune. It is idempotent.
func NormalizeCNPJ(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ParseCNPJ normalizes raw and requires the result to have exactly 14 digits.
func ParseCNPJ(raw string) (CNPJ, error) {
	digits := NormalizeCNPJ(raw)
	if digits == "" {
		return "", dErrors.New(dErrors.CodeValidation, "cnpj is required")
	}
	if len(digits) != CNPJLength {
		return "", dErrors.New(dErrors.CodeValidation, "cnpj must have 14 digits")
	}
	return CNPJ(digits), nil
}

func (c CNPJ) String() string {
	return string(c)
}

func (c CNPJ) IsZero() bool {
	return c == ""
}
