package attempts

import (
	"context"
	"sync"

	"radar/internal/lookup/models"
)

// InMemorySink keeps outcomes in process memory.
type InMemorySink struct {
	mu      sync.RWMutex
	entries []models.AttemptOutcome
}

func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

func (s *InMemorySink) Name() string { return "memory" }

func (s *InMemorySink) Write(_ context.Context, o models.AttemptOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, o)
	return nil
}

// Recent returns up to limit outcomes, newest first.
func (s *InMemorySink) Recent(_ context.Context, limit int) ([]models.AttemptOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AttemptOutcome, 0, min(limit, len(s.entries)))
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// All returns every outcome in write order.
func (s *InMemorySink) All() []models.AttemptOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AttemptOutcome(nil), s.entries...)
}
