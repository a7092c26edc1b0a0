package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"radar/internal/history/models"
	lookupmodels "radar/internal/lookup/models"
	lookupstore "radar/internal/lookup/store"
	"radar/pkg/platform/sentinel"
)

// InMemoryStore reads records from an in-memory record store and keeps
// export batches in a slice.
type InMemoryStore struct {
	records *lookupstore.InMemoryStore

	mu      sync.Mutex
	exports []*models.ExportBatch
	now     func() time.Time
}

func NewInMemory(records *lookupstore.InMemoryStore) *InMemoryStore {
	return &InMemoryStore{records: records, now: time.Now}
}

// WithClock sets the creation clock of export batches.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func inFilter(rec *lookupmodels.Record, f models.Filter) bool {
	return !rec.QueryDate.Before(f.From) && !rec.QueryDate.After(f.To)
}

func (s *InMemoryStore) CountByDay(_ context.Context) ([]models.DayCount, error) {
	counts := make(map[time.Time]int)
	for _, rec := range s.records.All() {
		counts[rec.QueryDate]++
	}
	out := make([]models.DayCount, 0, len(counts))
	for day, total := range counts {
		out = append(out, models.DayCount{Day: day, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.After(out[j].Day) })
	return out, nil
}

func (s *InMemoryStore) ListRecords(_ context.Context, f models.Filter) ([]*lookupmodels.Record, error) {
	var out []*lookupmodels.Record
	for _, rec := range s.records.All() {
		if inFilter(rec, f) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].QueryDate.Equal(out[j].QueryDate) {
			return out[i].QueryDate.Before(out[j].QueryDate)
		}
		return out[i].CNPJ < out[j].CNPJ
	})
	return out, nil
}

func (s *InMemoryStore) MarkExported(ctx context.Context, f models.Filter, name string) (int64, error) {
	recs, _ := s.ListRecords(ctx, f)
	ids := make([]int64, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	s.records.SetExportedBy(ids, name)
	return int64(len(ids)), nil
}

func (s *InMemoryStore) CreateExport(_ context.Context, b *models.ExportBatch) (*models.ExportBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *b
	stored.ID = int64(len(s.exports) + 1)
	stored.CreatedAt = s.now()
	s.exports = append(s.exports, &stored)
	out := stored
	return &out, nil
}

func (s *InMemoryStore) ListExports(_ context.Context, from, until time.Time) ([]*models.ExportBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ExportBatch
	for i := len(s.exports) - 1; i >= 0; i-- {
		b := s.exports[i]
		if !b.CreatedAt.Before(from) && b.CreatedAt.Before(until) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindExport(_ context.Context, exportID int64) (*models.ExportBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exportID < 1 || exportID > int64(len(s.exports)) {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.exports[exportID-1]
	return &cp, nil
}
