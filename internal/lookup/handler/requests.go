package handler

import (
	dErrors "radar/pkg/domain-errors"
)

// BatchRequest is the body of POST /lookups/batch.
type BatchRequest struct {
	CNPJs []string `json:"cnpjs"`
	Force bool     `json:"force"`
}

func (r *BatchRequest) Validate() error {
	if r == nil || len(r.CNPJs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "cnpjs must not be empty")
	}
	return nil
}
