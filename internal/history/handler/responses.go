package handler

import (
	"time"

	"radar/internal/history/models"
	lookupmodels "radar/internal/lookup/models"
)

type DayCountResponse struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

func FromDayCounts(counts []models.DayCount) []DayCountResponse {
	out := make([]DayCountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, DayCountResponse{Date: c.Day.Format(models.DateLayout), Total: c.Total})
	}
	return out
}

// RecordResponse is one stored lookup row.
type RecordResponse struct {
	ID                  int64  `json:"id"`
	QueryDate           string `json:"query_date"`
	CNPJ                string `json:"cnpj"`
	Contributor         string `json:"contributor"`
	Status              string `json:"status"`
	StatusDate          string `json:"status_date"`
	SubModality         string `json:"sub_modality"`
	LegalName           string `json:"legal_name"`
	TradeName           string `json:"trade_name"`
	Municipality        string `json:"municipality"`
	State               string `json:"state"`
	IncorporationDate   string `json:"incorporation_date"`
	TaxRegime           string `json:"tax_regime"`
	TaxRegimeOptionDate string `json:"tax_regime_option_date"`
	ShareCapital        string `json:"share_capital"`
	QueriedByID         *int64 `json:"queried_by_id"`
	QueriedByName       string `json:"queried_by_name"`
	ExportedBy          string `json:"exported_by"`
	Incomplete          bool   `json:"incomplete"`
}

func FromRecords(recs []*lookupmodels.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(recs))
	for _, rec := range recs {
		var queriedBy *int64
		if rec.QueriedByID > 0 {
			v := rec.QueriedByID
			queriedBy = &v
		}
		out = append(out, RecordResponse{
			ID:                  rec.ID,
			QueryDate:           rec.QueryDate.Format(models.DateLayout),
			CNPJ:                rec.CNPJ.String(),
			Contributor:         rec.Primary.Contributor,
			Status:              rec.Primary.Status,
			StatusDate:          rec.Primary.StatusDate,
			SubModality:         rec.Primary.SubModality,
			LegalName:           rec.Secondary.LegalName,
			TradeName:           rec.Secondary.TradeName,
			Municipality:        rec.Secondary.Municipality,
			State:               rec.Secondary.State,
			IncorporationDate:   rec.Secondary.IncorporationDate,
			TaxRegime:           rec.Secondary.TaxRegime,
			TaxRegimeOptionDate: rec.Secondary.TaxRegimeOptionDate,
			ShareCapital:        rec.Secondary.ShareCapital,
			QueriedByID:         queriedBy,
			QueriedByName:       rec.QueriedByName,
			ExportedBy:          rec.ExportedBy,
			Incomplete:          rec.Incomplete,
		})
	}
	return out
}

type ExportResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Kind      string    `json:"kind"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	FileName  string    `json:"file_name"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

func FromExport(b *models.ExportBatch) ExportResponse {
	return ExportResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		UserName:  b.UserName,
		Kind:      string(b.Kind),
		From:      b.From.Format(models.DateLayout),
		To:        b.To.Format(models.DateLayout),
		FileName:  b.DefaultFileName(),
		Total:     b.Total,
		CreatedAt: b.CreatedAt,
	}
}

type ExportCreatedResponse struct {
	Export  ExportResponse   `json:"export"`
	Records []RecordResponse `json:"records"`
}
