// Package store persists lookup records: one row per (CNPJ, calendar day).
package store

import (
	"context"
	"time"

	"radar/internal/lookup/models"
	"radar/pkg/requestcontext"
)

// DefaultFreshnessDays is how long a stored snapshot is served without a live fetch.
const DefaultFreshnessDays = 90

type settings struct {
	freshnessDays int
	location      *time.Location
	rules         []models.RetentionRule
}

func defaultSettings() settings {
	return settings{
		freshnessDays: DefaultFreshnessDays,
		location:      time.UTC,
		rules:         models.DefaultRetentionRules(),
	}
}

// Option configures either store implementation.
type Option func(*settings)

// WithFreshnessDays sets the cache window. A record exactly this many days old
// is still fresh.
func WithFreshnessDays(days int) Option {
	return func(s *settings) {
		if days >= 0 {
			s.freshnessDays = days
		}
	}
}

// WithLocation sets the time zone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithRetentionRules replaces the default retention rules.
func WithRetentionRules(rules []models.RetentionRule) Option {
	return func(s *settings) {
		s.rules = rules
	}
}

func (s settings) today(ctx context.Context) time.Time {
	return models.Day(requestcontext.Now(ctx), s.location)
}

func (s settings) freshCutoff(ctx context.Context) time.Time {
	return s.today(ctx).AddDate(0, 0, -s.freshnessDays)
}
