package service

import (
	"context"
	"errors"

	"radar/internal/lookup/batch"
	"radar/internal/lookup/models"
	id "radar/pkg/domain"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/strings"
)

// BatchRequest carries raw keys as typed or imported by the user.
type BatchRequest struct {
	CNPJs []string
	Force bool
	Actor models.Actor
}

// BatchItem is the outcome for one distinct key, in input order.
type BatchItem struct {
	Input  string
	CNPJ   id.CNPJ
	Result *models.Result
	Err    error
}

// LookupBatch authorizes the actor once, drops duplicate keys (after
// canonicalization) and runs each key through the orchestrator as a
// batch-origin lookup on the worker pool. Per-key failures are reported in the
// item; only the authorization failure fails the whole call. When ctx ends
// first, keys that never ran are reported with CodeTimeout.
func (s *Service) LookupBatch(ctx context.Context, req BatchRequest) ([]BatchItem, error) {
	if err := s.authorizeBatch(ctx, req.Actor); err != nil {
		return nil, err
	}

	inputs := strings.DedupeBy(req.CNPJs, id.NormalizeCNPJ)
	results := batch.Run(ctx, inputs, func(ctx context.Context, raw string) (BatchItem, error) {
		item := BatchItem{Input: raw}
		cnpj, err := id.ParseCNPJ(raw)
		if err != nil {
			return item, err
		}
		item.CNPJ = cnpj
		item.Result, err = s.lookup(ctx, LookupRequest{
			CNPJ:   cnpj,
			Force:  req.Force,
			Origin: models.OriginBatch,
			Actor:  req.Actor,
		})
		return item, err
	}, s.batchOptions)

	items := make([]BatchItem, len(results))
	for i, r := range results {
		items[i] = r.Output
		items[i].Input = r.Input
		items[i].Err = r.Err
		if notStarted(r.Err) {
			items[i].Err = dErrors.Wrap(r.Err, dErrors.CodeTimeout, "batch time limit reached before this cnpj was looked up")
		}
		if r.Err != nil {
			s.metrics.IncBatchItem("error")
		} else {
			s.metrics.IncBatchItem("ok")
		}
	}
	return items, nil
}

// notStarted reports a key the pool gave up on before running it.
func notStarted(err error) bool {
	if err == nil {
		return false
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
