package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"radar/internal/lookup/models"
	"radar/internal/lookup/retry"
	dErrors "radar/pkg/domain-errors"
)

// Repair re-fetches the secondary source for every incomplete record. A row
// is rewritten and unflagged only when the fetch succeeds; failures leave it
// untouched and the sweep moves on. The primary group is never refreshed.
func (s *Service) Repair(ctx context.Context) (*models.RepairReport, error) {
	ctx, span := tracer.Start(ctx, "lookup.Repair")
	defer span.End()

	records, err := s.store.ListIncomplete(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list incomplete records")
	}

	report := &models.RepairReport{Scanned: len(records)}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			span.SetAttributes(attribute.Int("repaired", len(report.Repaired)))
			return report, dErrors.Wrap(err, dErrors.CodeTimeout, "repair interrupted")
		}

		out := retry.Do(ctx, s.repairPolicy, func(ctx context.Context) (*models.SecondaryFields, error) {
			return s.secondary.FetchSecondary(ctx, rec.CNPJ)
		}, retry.WithLogger(s.logger, sourceSecondary))
		if !out.OK {
			s.metrics.IncRepair("failed")
			report.Failed = append(report.Failed, rec.CNPJ)
			s.logger.WarnContext(ctx, "repair fetch failed",
				"cnpj", rec.CNPJ.String(),
				"record_id", rec.ID,
				"attempts", out.Attempts,
				"error", out.LastErr,
			)
			continue
		}

		repaired, err := s.store.RepairSecondary(ctx, rec.ID, *out.Value)
		if err != nil {
			s.metrics.IncRepair("failed")
			report.Failed = append(report.Failed, rec.CNPJ)
			s.logger.ErrorContext(ctx, "repair write failed",
				"cnpj", rec.CNPJ.String(),
				"record_id", rec.ID,
				"error", err,
			)
			continue
		}
		s.metrics.IncRepair("repaired")
		report.Repaired = append(report.Repaired, repaired)
	}

	span.SetAttributes(
		attribute.Int("scanned", report.Scanned),
		attribute.Int("repaired", len(report.Repaired)),
	)
	s.logger.InfoContext(ctx, "repair sweep finished",
		"scanned", report.Scanned,
		"repaired", len(report.Repaired),
		"failed", len(report.Failed),
	)
	return report, nil
}
