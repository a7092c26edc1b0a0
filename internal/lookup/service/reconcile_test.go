package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"radar/internal/lookup/models"
	"radar/internal/lookup/retry"
)

func TestReconcile(t *testing.T) {
	full := &models.PrimaryFields{Contributor: "ACME", Status: "DEFERIDA"}
	reg := &models.SecondaryFields{LegalName: "ACME LTDA"}
	okP := retry.Outcome[*models.PrimaryFields]{OK: true, Value: full}
	emptyP := retry.Outcome[*models.PrimaryFields]{OK: true, Value: &models.PrimaryFields{}}
	failP := retry.Outcome[*models.PrimaryFields]{LastErr: errors.New("x")}
	okS := retry.Outcome[*models.SecondaryFields]{OK: true, Value: reg}
	failS := retry.Outcome[*models.SecondaryFields]{LastErr: errors.New("y")}

	tests := []struct {
		name       string
		primary    retry.Outcome[*models.PrimaryFields]
		secondary  retry.Outcome[*models.SecondaryFields]
		persist    bool
		incomplete bool
		both       bool
		wantStatus string
		wantLegal  string
	}{
		{"both ok", okP, okS, true, false, false, "DEFERIDA", "ACME LTDA"},
		{"empty primary", emptyP, okS, true, true, false, models.DataUnavailable, "ACME LTDA"},
		{"primary failed", failP, okS, false, true, false, models.NoInformation, "ACME LTDA"},
		{"secondary failed", okP, failS, true, true, false, "DEFERIDA", models.NoInformation},
		{"empty primary and secondary failed", emptyP, failS, true, true, false, models.DataUnavailable, models.NoInformation},
		{"both failed", failP, failS, false, true, true, models.NoInformation, models.NoInformation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := reconcile(tt.primary, tt.secondary)
			assert.Equal(t, tt.persist, r.ShouldPersist())
			assert.Equal(t, tt.incomplete, r.Incomplete())
			assert.Equal(t, tt.both, r.BothFailed())
			assert.Equal(t, tt.wantStatus, r.Fields.Primary.Status)
			assert.Equal(t, tt.wantLegal, r.Fields.Secondary.LegalName)
		})
	}
}

func TestReconcile_MarkersAreDistinct(t *testing.T) {
	markers := []string{models.NoInformation, models.DataUnavailable, models.NoTradeName, ""}
	seen := map[string]bool{}
	for _, m := range markers {
		assert.False(t, seen[m], "duplicate marker %q", m)
		seen[m] = true
	}
}
