package handler

import (
	"radar/internal/lookup/models"
	"radar/internal/lookup/service"
	dErrors "radar/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// LookupResponse is the flat field bag returned for one key.
type LookupResponse struct {
	CNPJ       string `json:"cnpj"`
	QueryDate  string `json:"query_date"`
	FromCache  bool   `json:"from_cache"`
	Saved      bool   `json:"saved"`
	Incomplete bool   `json:"incomplete"`

	Contributor string `json:"contributor"`
	Status      string `json:"status"`
	StatusDate  string `json:"status_date"`
	SubModality string `json:"sub_modality"`

	LegalName           string `json:"legal_name"`
	TradeName           string `json:"trade_name"`
	Municipality        string `json:"municipality"`
	State               string `json:"state"`
	IncorporationDate   string `json:"incorporation_date"`
	TaxRegime           string `json:"tax_regime"`
	TaxRegimeOptionDate string `json:"tax_regime_option_date"`
	ShareCapital        string `json:"share_capital"`
}

func FromResult(r *models.Result) LookupResponse {
	return LookupResponse{
		CNPJ:                r.CNPJ.String(),
		QueryDate:           r.QueryDate.Format(dateLayout),
		FromCache:           r.FromCache,
		Saved:               r.Saved,
		Incomplete:          r.Incomplete,
		Contributor:         r.Primary.Contributor,
		Status:              r.Primary.Status,
		StatusDate:          r.Primary.StatusDate,
		SubModality:         r.Primary.SubModality,
		LegalName:           r.Secondary.LegalName,
		TradeName:           r.Secondary.TradeName,
		Municipality:        r.Secondary.Municipality,
		State:               r.Secondary.State,
		IncorporationDate:   r.Secondary.IncorporationDate,
		TaxRegime:           r.Secondary.TaxRegime,
		TaxRegimeOptionDate: r.Secondary.TaxRegimeOptionDate,
		ShareCapital:        r.Secondary.ShareCapital,
	}
}

type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BatchItemResponse struct {
	Input  string          `json:"input"`
	CNPJ   string          `json:"cnpj,omitempty"`
	Result *LookupResponse `json:"result,omitempty"`
	Error  *ItemError      `json:"error,omitempty"`
}

type BatchResponse struct {
	Items     []BatchItemResponse `json:"items"`
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

func FromBatch(items []service.BatchItem) BatchResponse {
	resp := BatchResponse{Items: make([]BatchItemResponse, 0, len(items)), Total: len(items)}
	for _, it := range items {
		out := BatchItemResponse{Input: it.Input, CNPJ: it.CNPJ.String()}
		if it.Err != nil {
			resp.Failed++
			out.Error = itemError(it.Err)
		} else if it.Result != nil {
			resp.Succeeded++
			r := FromResult(it.Result)
			out.Result = &r
		}
		resp.Items = append(resp.Items, out)
	}
	return resp
}

func itemError(err error) *ItemError {
	code := dErrors.CodeOf(err)
	msg := "internal error"
	if code != dErrors.CodeInternal {
		msg = err.Error()
	}
	return &ItemError{Code: string(code), Message: msg}
}

type RepairResponse struct {
	Scanned  int      `json:"scanned"`
	Repaired []string `json:"repaired"`
	Failed   []string `json:"failed"`
}

func FromRepair(r *models.RepairReport) RepairResponse {
	resp := RepairResponse{Scanned: r.Scanned, Repaired: []string{}, Failed: []string{}}
	for _, rec := range r.Repaired {
		resp.Repaired = append(resp.Repaired, rec.CNPJ.String())
	}
	for _, c := range r.Failed {
		resp.Failed = append(resp.Failed, c.String())
	}
	return resp
}

type RetentionResponse struct {
	Deleted int64 `json:"deleted"`
}
