package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"radar/internal/history/models"
	lookupmodels "radar/internal/lookup/models"
	lookupstore "radar/internal/lookup/store"
	"radar/pkg/platform/sentinel"
)

type MemoryHistoryStoreSuite struct {
	suite.Suite
	records *lookupstore.InMemoryStore
	store   *InMemoryStore
	now     time.Time
}

func TestMemoryHistoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryHistoryStoreSuite))
}

func day(s string) time.Time {
	d, _ := time.Parse(models.DateLayout, s)
	return d
}

func (s *MemoryHistoryStoreSuite) SetupTest() {
	s.records = lookupstore.NewInMemory()
	s.now = time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	s.store = NewInMemory(s.records).WithClock(func() time.Time { return s.now })

	s.records.Put(&lookupmodels.Record{CNPJ: "22222222000122", QueryDate: day("2025-06-10")})
	s.records.Put(&lookupmodels.Record{CNPJ: "11111111000111", QueryDate: day("2025-06-10")})
	s.records.Put(&lookupmodels.Record{CNPJ: "33333333000133", QueryDate: day("2025-06-12")})
	s.records.Put(&lookupmodels.Record{CNPJ: "44444444000144", QueryDate: day("2025-06-14")})
}

func (s *MemoryHistoryStoreSuite) TestCountByDayNewestFirst() {
	counts, err := s.store.CountByDay(context.Background())
	s.Require().NoError(err)
	s.Require().Len(counts, 3)
	s.Equal(day("2025-06-14"), counts[0].Day)
	s.Equal(day("2025-06-10"), counts[2].Day)
	s.Equal(2, counts[2].Total)
}

func (s *MemoryHistoryStoreSuite) TestListRecordsInclusiveAndOrdered() {
	recs, err := s.store.ListRecords(context.Background(), models.Filter{From: day("2025-06-10"), To: day("2025-06-12")})
	s.Require().NoError(err)
	s.Require().Len(recs, 3)
	s.Equal("11111111000111", recs[0].CNPJ.String())
	s.Equal("22222222000122", recs[1].CNPJ.String())
	s.Equal("33333333000133", recs[2].CNPJ.String())
}

func (s *MemoryHistoryStoreSuite) TestMarkExported() {
	n, err := s.store.MarkExported(context.Background(), models.Filter{From: day("2025-06-10"), To: day("2025-06-10")}, "Ana")
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	for _, rec := range s.records.All() {
		if rec.QueryDate.Equal(day("2025-06-10")) {
			s.Equal("Ana", rec.ExportedBy)
		} else {
			s.Empty(rec.ExportedBy)
		}
	}
}

func (s *MemoryHistoryStoreSuite) TestExportBookkeeping() {
	ctx := context.Background()
	first, err := s.store.CreateExport(ctx, &models.ExportBatch{UserID: 1, Kind: models.KindDay, From: day("2025-06-10"), To: day("2025-06-10"), Total: 2})
	s.Require().NoError(err)
	s.now = s.now.Add(24 * time.Hour)
	second, err := s.store.CreateExport(ctx, &models.ExportBatch{UserID: 1, Kind: models.KindRange, From: day("2025-06-10"), To: day("2025-06-14"), Total: 4})
	s.Require().NoError(err)

	all, err := s.store.ListExports(ctx, day("2025-06-15"), day("2025-06-17"))
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(second.ID, all[0].ID)

	onlyFirst, err := s.store.ListExports(ctx, day("2025-06-15"), day("2025-06-16"))
	s.Require().NoError(err)
	s.Require().Len(onlyFirst, 1)
	s.Equal(first.ID, onlyFirst[0].ID)

	found, err := s.store.FindExport(ctx, second.ID)
	s.Require().NoError(err)
	s.Equal(4, found.Total)

	_, err = s.store.FindExport(ctx, 99)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
