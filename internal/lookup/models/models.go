// Package models holds the lookup domain types shared by adapters, stores and
// the orchestrator.
package models

import (
	"time"

	id "radar/pkg/domain"
)

// Persisted marker values. They are shown to end users and stored verbatim,
// so they stay in Portuguese and must remain distinct from each other and
// from an empty string.
const (
	// NoInformation fills every field of a group whose source failed outright.
	NoInformation = "Sem informação"
	// DataUnavailable replaces the status when the primary source answered
	// successfully but with nothing in it.
	DataUnavailable = "DADOS INDISPONÍVEIS"
	// NoTradeName replaces a blank trade name next to a present legal name.
	NoTradeName = "Sem nome fantasia"
	// NotApplicable is the option date for companies outside Simples Nacional.
	NotApplicable = "N/A"
)

// Upstream values the retention rules key on.
const (
	StatusNotEnabled     = "NÃO HABILITADA"
	SubModalityUnlimited = "ILIMITADA"
)

// Origin tags a lookup as interactive or batch. The wire values are the ones
// stored in lookup_attempts.origin.
type Origin string

const (
	OriginInteractive Origin = "unitaria"
	OriginBatch       Origin = "lote"
	OriginUnknown     Origin = "desconhecida"
)

// ParseOrigin maps query-string values to an Origin, defaulting to interactive.
func ParseOrigin(raw string) Origin {
	switch raw {
	case string(OriginBatch), "batch":
		return OriginBatch
	default:
		return OriginInteractive
	}
}

// Actor identifies who triggered a lookup.
type Actor struct {
	ID   int64
	Name string
}

// PrimaryFields is the habilitation group supplied by RADAR.
type PrimaryFields struct {
	Contributor string
	Status      string
	StatusDate  string
	SubModality string
}

// IsEmpty reports whether the group carries no habilitation data at all.
// Both the cache-hit check and the empty-response recoding use it.
func (p PrimaryFields) IsEmpty() bool {
	return p.Contributor == "" && p.Status == "" && p.StatusDate == "" && p.SubModality == ""
}

// SecondaryFields is the registry profile group supplied by ReceitaWS.
type SecondaryFields struct {
	LegalName           string
	TradeName           string
	Municipality        string
	State               string
	IncorporationDate   string
	TaxRegime           string
	TaxRegimeOptionDate string
	ShareCapital        string
}

// UnavailablePrimary is the recoded group for an empty-but-successful answer.
func UnavailablePrimary() PrimaryFields {
	return PrimaryFields{Status: DataUnavailable}
}

// NoInformationPrimary marks every primary field after an outright failure.
func NoInformationPrimary() PrimaryFields {
	return PrimaryFields{
		Contributor: NoInformation,
		Status:      NoInformation,
		StatusDate:  NoInformation,
		SubModality: NoInformation,
	}
}

// NoInformationSecondary marks every secondary field after an outright failure.
func NoInformationSecondary() SecondaryFields {
	return SecondaryFields{
		LegalName:           NoInformation,
		TradeName:           NoInformation,
		Municipality:        NoInformation,
		State:               NoInformation,
		IncorporationDate:   NoInformation,
		TaxRegime:           NoInformation,
		TaxRegimeOptionDate: NoInformation,
		ShareCapital:        NoInformation,
	}
}

// Fields is the unified field set written to a record.
type Fields struct {
	Primary   PrimaryFields
	Secondary SecondaryFields
}

// Record is the snapshot stored for one (CNPJ, day).
type Record struct {
	ID            int64
	CNPJ          id.CNPJ
	QueryDate     time.Time
	Primary       PrimaryFields
	Secondary     SecondaryFields
	QueriedByID   int64
	QueriedByName string
	ExportedBy    string
	Incomplete    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Result is what a lookup returns to its caller.
type Result struct {
	CNPJ      id.CNPJ
	QueryDate time.Time
	FromCache bool
	Saved     bool
	// Incomplete mirrors the flag the persisted row carries (or would carry).
	Incomplete bool
	Primary    PrimaryFields
	Secondary  SecondaryFields
}

// ResultFromRecord maps a cached row into a Result.
func ResultFromRecord(rec *Record) *Result {
	return &Result{
		CNPJ:       rec.CNPJ,
		QueryDate:  rec.QueryDate,
		FromCache:  true,
		Saved:      true,
		Incomplete: rec.Incomplete,
		Primary:    rec.Primary,
		Secondary:  rec.Secondary,
	}
}

// AttemptOutcome is one audit entry per orchestration run.
type AttemptOutcome struct {
	UserID    int64
	CNPJ      id.CNPJ
	Origin    Origin
	Success   bool
	Message   string
	RequestID string
	At        time.Time
}

// RepairReport summarises a repair sweep.
type RepairReport struct {
	Scanned  int
	Repaired []*Record
	Failed   []id.CNPJ
}

// Day truncates t to its calendar day in loc and returns midnight UTC of that
// date, which is how DATE columns round-trip.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AgeInDays counts whole calendar days from day to today; both are Day values.
func AgeInDays(day, today time.Time) int {
	return int(today.Sub(day).Hours() / 24)
}
