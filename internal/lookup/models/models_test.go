package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarkersAreDistinct(t *testing.T) {
	markers := []string{"", NoInformation, DataUnavailable, NoTradeName}
	seen := map[string]bool{}
	for _, m := range markers {
		assert.False(t, seen[m], "marker %q repeated", m)
		seen[m] = true
	}
}

func TestPrimaryFieldsIsEmpty(t *testing.T) {
	assert.True(t, PrimaryFields{}.IsEmpty())
	assert.False(t, PrimaryFields{StatusDate: "01/01/2024"}.IsEmpty())
	assert.False(t, UnavailablePrimary().IsEmpty(), "recoded group must be served from cache")
}

func TestDay(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 01:30 UTC on the 2nd is still the 1st in São Paulo.
	at := time.Date(2026, 3, 2, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Day(at, sp))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Day(at, nil))
}

func TestRetentionRuleMatches(t *testing.T) {
	today := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	aged := func(days int, status, sub string) *Record {
		return &Record{
			QueryDate: today.AddDate(0, 0, -days),
			Primary:   PrimaryFields{Status: status, SubModality: sub},
		}
	}
	rules := DefaultRetentionRules()
	matchesAny := func(rec *Record) bool {
		for _, r := range rules {
			if r.Matches(rec, today) {
				return true
			}
		}
		return false
	}

	assert.True(t, matchesAny(aged(91, StatusNotEnabled, "")))
	assert.False(t, matchesAny(aged(89, StatusNotEnabled, "")))
	assert.False(t, matchesAny(aged(90, StatusNotEnabled, "")))
	assert.True(t, matchesAny(aged(121, "HABILITADA", "LIMITADA (ATÉ US$ 50.000)")))
	assert.True(t, matchesAny(aged(121, "HABILITADA", "limitada (até us$ 150.000)")))
	assert.False(t, matchesAny(aged(119, "HABILITADA", "LIMITADA (ATÉ US$ 150.000)")))
	assert.True(t, matchesAny(aged(561, "HABILITADA", "Ilimitada")))
	assert.False(t, matchesAny(aged(500, "HABILITADA", "ILIMITADA")))
	assert.False(t, matchesAny(aged(1000, "HABILITADA", "EXPRESSA")))
}

func TestParseOrigin(t *testing.T) {
	assert.Equal(t, OriginBatch, ParseOrigin("lote"))
	assert.Equal(t, OriginBatch, ParseOrigin("batch"))
	assert.Equal(t, OriginInteractive, ParseOrigin(""))
	assert.Equal(t, OriginInteractive, ParseOrigin("unitaria"))
}
