package handler

import (
	"radar/internal/history/models"
)

// ExportRequest is the body of POST /exports: either date, or from and to.
type ExportRequest struct {
	Date     string `json:"date"`
	From     string `json:"from"`
	To       string `json:"to"`
	FileName string `json:"file_name"`

	filter models.Filter
}

func (r *ExportRequest) Validate() error {
	f, err := models.ParseFilter(r.Date, r.From, r.To)
	if err != nil {
		return err
	}
	r.filter = f
	return nil
}
