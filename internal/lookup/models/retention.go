package models

import (
	"strings"
	"time"
)

// RetentionRule deletes rows older than MaxAgeDays that match Status exactly
// or any SubModalityPatterns substring, both case-insensitively.
type RetentionRule struct {
	Name                string
	Status              string
	SubModalityPatterns []string
	MaxAgeDays          int
}

// DefaultRetentionRules are the production age limits per category.
func DefaultRetentionRules() []RetentionRule {
	return []RetentionRule{
		{Name: "not_enabled", Status: StatusNotEnabled, MaxAgeDays: 90},
		{Name: "limited", SubModalityPatterns: []string{"50", "150"}, MaxAgeDays: 120},
		{Name: "unlimited", SubModalityPatterns: []string{SubModalityUnlimited}, MaxAgeDays: 560},
	}
}

// Matches reports whether rec falls under the rule on day today.
func (r RetentionRule) Matches(rec *Record, today time.Time) bool {
	if AgeInDays(rec.QueryDate, today) <= r.MaxAgeDays {
		return false
	}
	if r.Status != "" && strings.EqualFold(rec.Primary.Status, r.Status) {
		return true
	}
	sub := strings.ToLower(rec.Primary.SubModality)
	for _, p := range r.SubModalityPatterns {
		if strings.Contains(sub, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// LikePatterns returns the sub-modality patterns as ILIKE operands.
func (r RetentionRule) LikePatterns() []string {
	out := make([]string, 0, len(r.SubModalityPatterns))
	for _, p := range r.SubModalityPatterns {
		out = append(out, "%"+p+"%")
	}
	return out
}
