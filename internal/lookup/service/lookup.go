package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"radar/internal/lookup/metrics"
	"radar/internal/lookup/models"
	"radar/internal/lookup/providers"
	"radar/internal/lookup/retry"
	id "radar/pkg/domain"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/sentinel"
	"radar/pkg/requestcontext"
)

// Audit messages written per outcome.
const (
	msgFromCache       = "served from cache"
	msgSaved           = "saved"
	msgSavedPartial    = "saved with partial upstream failure"
	msgPartialNotSaved = "partial result not saved (primary source unavailable)"
	msgBothFailed      = "both upstream sources failed after retries"
	msgTimedOut        = "upstream sources did not answer within the lookup time limit"
)

// Upstream source labels for logs and metrics.
const (
	sourcePrimary   = "radar"
	sourceSecondary = "receitaws"
)

// LookupRequest is one orchestrator invocation. CNPJ must already be parsed.
type LookupRequest struct {
	CNPJ   id.CNPJ
	Force  bool
	Origin models.Origin
	Actor  models.Actor
}

// Lookup returns the best-known snapshot for req.CNPJ. It fails with
// CodeForbidden when a batch-origin actor may not run batches, CodeBadGateway
// when both upstream sources are exhausted, CodeTimeout when neither answered
// before the lookup time limit and CodeInternal on store errors.
func (s *Service) Lookup(ctx context.Context, req LookupRequest) (*models.Result, error) {
	if req.Origin == "" {
		req.Origin = models.OriginInteractive
	}
	if req.Origin == models.OriginBatch {
		if err := s.authorizeBatch(ctx, req.Actor); err != nil {
			return nil, err
		}
	}
	return s.lookup(ctx, req)
}

// lookup runs the state machine after the batch gate.
func (s *Service) lookup(ctx context.Context, req LookupRequest) (_ *models.Result, err error) {
	ctx, span := tracer.Start(ctx, "lookup.Lookup")
	span.SetAttributes(
		attribute.String("cnpj", req.CNPJ.String()),
		attribute.String("origin", string(req.Origin)),
		attribute.Bool("force", req.Force),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()

	start := time.Now()
	res, outcome, msg, err := s.run(ctx, req)
	s.metrics.ObserveLookup(string(req.Origin), outcome, time.Since(start))

	if err != nil && msg == "" {
		msg = err.Error()
	}
	s.attempts.Record(context.WithoutCancel(ctx), models.AttemptOutcome{
		UserID:  req.Actor.ID,
		CNPJ:    req.CNPJ,
		Origin:  req.Origin,
		Success: err == nil,
		Message: msg,
	})

	if err != nil {
		if outcome == metrics.OutcomeGatewayError {
			s.logger.WarnContext(ctx, "lookup failed", "cnpj", req.CNPJ.String(), "origin", req.Origin, "error", err)
		} else {
			s.logger.ErrorContext(ctx, "lookup failed", "cnpj", req.CNPJ.String(), "origin", req.Origin, "error", err)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "lookup completed",
		"cnpj", req.CNPJ.String(),
		"origin", req.Origin,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, req LookupRequest) (*models.Result, string, string, error) {
	if s.retentionOnLookup {
		if _, err := s.sweepRetention(ctx); err != nil {
			return nil, metrics.OutcomeError, "", err
		}
	}

	if !req.Force {
		cached, err := s.cached(ctx, req.CNPJ)
		if err != nil {
			return nil, metrics.OutcomeError, "", err
		}
		if cached != nil {
			return models.ResultFromRecord(cached), metrics.OutcomeCacheHit, msgFromCache, nil
		}
	} else {
		s.metrics.IncCache("forced")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	r := s.fetch(fetchCtx, req.CNPJ)
	timedOut := errors.Is(fetchCtx.Err(), context.DeadlineExceeded)
	cancel()
	if r.BothFailed() {
		if timedOut {
			return nil, metrics.OutcomeGatewayError, msgTimedOut, dErrors.New(dErrors.CodeTimeout, msgTimedOut)
		}
		return nil, metrics.OutcomeGatewayError, msgBothFailed, dErrors.New(dErrors.CodeBadGateway, msgBothFailed)
	}

	today := models.Day(requestcontext.Now(ctx), s.location)
	result := &models.Result{
		CNPJ:       req.CNPJ,
		QueryDate:  today,
		Incomplete: r.Incomplete(),
		Primary:    r.Fields.Primary,
		Secondary:  r.Fields.Secondary,
	}

	if !r.ShouldPersist() {
		s.logger.InfoContext(ctx, "partial result not persisted", "cnpj", req.CNPJ.String())
		return result, metrics.OutcomePartialNotSaved, msgPartialNotSaved, nil
	}

	rec, err := s.persist(ctx, req, r)
	if err != nil {
		return nil, metrics.OutcomeError, "", err
	}
	result.QueryDate = rec.QueryDate
	result.Saved = true

	if r.PrimaryFailed || r.SecondaryFailed {
		return result, metrics.OutcomeSavedPartial, msgSavedPartial, nil
	}
	return result, metrics.OutcomeSaved, msgSaved, nil
}

// cached returns a servable fresh record, or nil for a miss. A fresh row with
// no habilitation data is treated as a miss.
func (s *Service) cached(ctx context.Context, cnpj id.CNPJ) (*models.Record, error) {
	rec, err := s.store.FindFresh(ctx, cnpj)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.IncCache("miss")
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read cache")
	}
	if rec.Primary.IsEmpty() {
		s.metrics.IncCache("empty")
		s.logger.InfoContext(ctx, "ignoring cached record without habilitation data",
			"cnpj", cnpj.String(),
			"record_id", rec.ID,
		)
		return nil, nil
	}
	s.metrics.IncCache("hit")
	return rec, nil
}

// fetch runs both sources concurrently under the lookup policy. Neither
// source's failure cancels the other.
func (s *Service) fetch(ctx context.Context, cnpj id.CNPJ) reconciliation {
	var (
		g         errgroup.Group
		primary   retry.Outcome[*models.PrimaryFields]
		secondary retry.Outcome[*models.SecondaryFields]
	)
	g.Go(func() error {
		primary = retry.Do(ctx, s.lookupPolicy, func(ctx context.Context) (*models.PrimaryFields, error) {
			v, err := s.primary.FetchPrimary(ctx, cnpj)
			s.metrics.IncUpstreamAttempt(sourcePrimary, err == nil && v != nil)
			return v, err
		}, retry.WithLogger(s.logger, sourcePrimary))
		return nil
	})
	g.Go(func() error {
		secondary = retry.Do(ctx, s.lookupPolicy, func(ctx context.Context) (*models.SecondaryFields, error) {
			v, err := s.secondary.FetchSecondary(ctx, cnpj)
			s.metrics.IncUpstreamAttempt(sourceSecondary, err == nil && v != nil)
			return v, err
		}, retry.WithLogger(s.logger, sourceSecondary))
		return nil
	})
	_ = g.Wait()

	if !primary.OK {
		s.upstreamExhausted(ctx, sourcePrimary, cnpj, primary.Attempts, primary.LastErr)
	}
	if !secondary.OK {
		s.upstreamExhausted(ctx, sourceSecondary, cnpj, secondary.Attempts, secondary.LastErr)
	}
	return reconcile(primary, secondary)
}

func (s *Service) upstreamExhausted(ctx context.Context, source string, cnpj id.CNPJ, attempts int, err error) {
	category := providers.GetCategory(err)
	s.metrics.IncUpstreamFailure(source, string(category))
	s.logger.WarnContext(ctx, "upstream source exhausted retries",
		"source", source,
		"cnpj", cnpj.String(),
		"attempts", attempts,
		"category", category,
		"error", err,
	)
}

// persist upserts today's row and sets its incomplete flag in one unit.
func (s *Service) persist(ctx context.Context, req LookupRequest, r reconciliation) (*models.Record, error) {
	var rec *models.Record
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.store.UpsertToday(ctx, req.CNPJ, r.Fields, req.Actor)
		if err != nil {
			return err
		}
		if err := s.store.MarkIncomplete(ctx, rec.ID, r.Incomplete()); err != nil {
			return err
		}
		rec.Incomplete = r.Incomplete()
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save lookup")
	}
	return rec, nil
}

func (s *Service) authorizeBatch(ctx context.Context, actor models.Actor) error {
	if s.authorizer == nil {
		return dErrors.New(dErrors.CodeForbidden, "batch lookups are not available")
	}
	if err := s.authorizer.AuthorizeBatch(ctx, actor.ID); err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to authorize batch lookup")
		}
		return err
	}
	return nil
}
