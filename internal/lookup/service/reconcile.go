package service

import (
	"radar/internal/lookup/models"
	"radar/internal/lookup/retry"
)

// reconciliation is the unified field set plus the bookkeeping flags that
// decide persistence and the incomplete marker.
type reconciliation struct {
	Fields          models.Fields
	PrimaryFailed   bool
	SecondaryFailed bool
	// PrimaryEmpty is set when the primary answered with nothing in it.
	PrimaryEmpty bool
}

// reconcile merges the two retry outcomes. It does not depend on which fetch
// finished first.
func reconcile(primary retry.Outcome[*models.PrimaryFields], secondary retry.Outcome[*models.SecondaryFields]) reconciliation {
	var r reconciliation

	switch {
	case !primary.OK:
		r.PrimaryFailed = true
		r.Fields.Primary = models.NoInformationPrimary()
	case primary.Value.IsEmpty():
		r.PrimaryEmpty = true
		r.Fields.Primary = models.UnavailablePrimary()
	default:
		r.Fields.Primary = *primary.Value
	}

	if secondary.OK {
		r.Fields.Secondary = *secondary.Value
	} else {
		r.SecondaryFailed = true
		r.Fields.Secondary = models.NoInformationSecondary()
	}
	return r
}

// BothFailed reports total upstream unavailability.
func (r reconciliation) BothFailed() bool {
	return r.PrimaryFailed && r.SecondaryFailed
}

// ShouldPersist is false whenever the primary failed outright: a row without
// habilitation data is not a snapshot worth caching.
func (r reconciliation) ShouldPersist() bool {
	return !r.PrimaryFailed
}

func (r reconciliation) Incomplete() bool {
	return r.PrimaryEmpty || r.PrimaryFailed || r.SecondaryFailed
}
