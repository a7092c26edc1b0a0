package service

import (
	"context"

	dErrors "radar/pkg/domain-errors"
)

// SweepRetention deletes aged records per the store's retention rules and
// returns how many were removed.
func (s *Service) SweepRetention(ctx context.Context) (int64, error) {
	return s.sweepRetention(ctx)
}

func (s *Service) sweepRetention(ctx context.Context) (int64, error) {
	deleted, err := s.store.SweepRetention(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "retention sweep failed")
	}
	s.metrics.AddRetentionDeleted(deleted)
	if deleted > 0 {
		s.logger.InfoContext(ctx, "retention sweep removed records", "deleted", deleted)
	}
	return deleted, nil
}
