package service

import (
	"encoding/csv"
	"io"
	"strconv"

	"radar/internal/history/models"
	lookupmodels "radar/internal/lookup/models"
)

// Spreadsheet tools need the BOM to read the file as UTF-8.
const utf8BOM = "\ufeff"

var csvHeader = []string{
	"Data Consulta", "CNPJ", "Contribuinte", "Situação", "Data Situação", "Submodalidade",
	"Razão Social", "Nome Fantasia", "Município", "UF", "Data Constituição",
	"Regime Tributário", "Data Opção Simples", "Capital Social",
	"Consultado Por ID", "Consultado Por", "Exportado Por",
}

// WriteCSV writes recs with a header row.
func WriteCSV(w io.Writer, recs []*lookupmodels.Record) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range recs {
		queriedBy := ""
		if rec.QueriedByID > 0 {
			queriedBy = strconv.FormatInt(rec.QueriedByID, 10)
		}
		p, sec := rec.Primary, rec.Secondary
		if err := cw.Write([]string{
			rec.QueryDate.Format(models.DateLayout), rec.CNPJ.String(),
			p.Contributor, p.Status, p.StatusDate, p.SubModality,
			sec.LegalName, sec.TradeName, sec.Municipality, sec.State, sec.IncorporationDate,
			sec.TaxRegime, sec.TaxRegimeOptionDate, sec.ShareCapital,
			queriedBy, rec.QueriedByName, rec.ExportedBy,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
