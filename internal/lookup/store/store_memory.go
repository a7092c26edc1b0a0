package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"radar/internal/lookup/models"
	id "radar/pkg/domain"
	"radar/pkg/platform/sentinel"
	"radar/pkg/requestcontext"
)

type dayKey struct {
	cnpj id.CNPJ
	day  time.Time
}

// InMemoryStore keeps records in a map keyed by (CNPJ, day). It backs unit
// tests and local runs without a database.
type InMemoryStore struct {
	mu     sync.RWMutex
	byKey  map[dayKey]*models.Record
	byID   map[int64]*models.Record
	nextID int64
	settings
}

// NewInMemory creates an empty in-memory record store.
func NewInMemory(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		byKey:    make(map[dayKey]*models.Record),
		byID:     make(map[int64]*models.Record),
		settings: defaultSettings(),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s
}

func (s *InMemoryStore) FindFresh(ctx context.Context, cnpj id.CNPJ) (*models.Record, error) {
	cutoff := s.freshCutoff(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *models.Record
	for key, rec := range s.byKey {
		if key.cnpj != cnpj || rec.QueryDate.Before(cutoff) {
			continue
		}
		if newest == nil || rec.QueryDate.After(newest.QueryDate) {
			newest = rec
		}
	}
	if newest == nil {
		return nil, sentinel.ErrNotFound
	}
	return clone(newest), nil
}

func (s *InMemoryStore) UpsertToday(ctx context.Context, cnpj id.CNPJ, fields models.Fields, actor models.Actor) (*models.Record, error) {
	key := dayKey{cnpj: cnpj, day: s.today(ctx)}
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byKey[key]
	if !ok {
		s.nextID++
		rec = &models.Record{ID: s.nextID, CNPJ: cnpj, QueryDate: key.day, CreatedAt: now}
		s.byKey[key] = rec
		s.byID[rec.ID] = rec
	}
	rec.Primary = fields.Primary
	rec.Secondary = fields.Secondary
	rec.QueriedByID = actor.ID
	rec.QueriedByName = actor.Name
	rec.UpdatedAt = now
	return clone(rec), nil
}

func (s *InMemoryStore) MarkIncomplete(ctx context.Context, recordID int64, incomplete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[recordID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Incomplete = incomplete
	rec.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func (s *InMemoryStore) SweepRetention(ctx context.Context) (int64, error) {
	today := s.today(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, rec := range s.byKey {
		for _, rule := range s.rules {
			if rule.Matches(rec, today) {
				delete(s.byKey, key)
				delete(s.byID, rec.ID)
				deleted++
				break
			}
		}
	}
	return deleted, nil
}

func (s *InMemoryStore) ListIncomplete(_ context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, rec := range s.byID {
		if rec.Incomplete {
			out = append(out, clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].QueryDate.Equal(out[j].QueryDate) {
			return out[i].QueryDate.After(out[j].QueryDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) RepairSecondary(ctx context.Context, recordID int64, fields models.SecondaryFields) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec.Secondary = fields
	rec.Incomplete = false
	rec.UpdatedAt = requestcontext.Now(ctx)
	return clone(rec), nil
}

// All returns every stored record ordered by day then id. Tests and the
// in-memory history reader use it.
func (s *InMemoryStore) All() []*models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0, len(s.byID))
	for _, rec := range s.byID {
		out = append(out, clone(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].QueryDate.Equal(out[j].QueryDate) {
			return out[i].QueryDate.Before(out[j].QueryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Put inserts rec as-is, assigning an id when it has none.
func (s *InMemoryStore) Put(rec *models.Record) *models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := clone(rec)
	if stored.ID == 0 {
		s.nextID++
		stored.ID = s.nextID
	} else if stored.ID > s.nextID {
		s.nextID = stored.ID
	}
	s.byKey[dayKey{cnpj: stored.CNPJ, day: stored.QueryDate}] = stored
	s.byID[stored.ID] = stored
	return clone(stored)
}

// SetExportedBy stamps exported_by on the given rows.
func (s *InMemoryStore) SetExportedBy(ids []int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, recID := range ids {
		if rec, ok := s.byID[recID]; ok {
			rec.ExportedBy = name
		}
	}
}

func clone(rec *models.Record) *models.Record {
	cp := *rec
	return &cp
}
