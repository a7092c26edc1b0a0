package store

import (
	"context"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/suite"

	"radar/internal/lookup/models"
	id "radar/pkg/domain"
	"radar/pkg/platform/sentinel"
	"radar/pkg/requestcontext"
)

const testCNPJ = id.CNPJ("11222333000181")

var today = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = requestcontext.WithTime(context.Background(), today.Add(14*time.Hour))
}

func (s *MemoryStoreSuite) daysAgo(n int) time.Time {
	return today.AddDate(0, 0, -n)
}

func sampleFields() models.Fields {
	return models.Fields{
		Primary: models.PrimaryFields{
			Contributor: "ACME LTDA",
			Status:      "DEFERIDA",
			StatusDate:  "01/02/2024",
			SubModality: "LIMITADA (ATÉ US$ 150.000)",
		},
		Secondary: models.SecondaryFields{
			LegalName: "ACME LTDA",
			TradeName: "ACME",
			State:     "SP",
		},
	}
}

func (s *MemoryStoreSuite) TestFindFresh() {
	s.Run("returns ErrNotFound when nothing is stored", func() {
		_, err := s.store.FindFresh(s.ctx, testCNPJ)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("a record exactly at the window edge is fresh", func() {
		s.store.Put(&models.Record{CNPJ: testCNPJ, QueryDate: s.daysAgo(90), Primary: sampleFields().Primary})
		rec, err := s.store.FindFresh(s.ctx, testCNPJ)
		s.Require().NoError(err)
		s.Equal(s.daysAgo(90), rec.QueryDate)
	})

	s.Run("a record one day past the window is stale", func() {
		st := NewInMemory()
		st.Put(&models.Record{CNPJ: testCNPJ, QueryDate: s.daysAgo(91)})
		_, err := st.FindFresh(s.ctx, testCNPJ)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns the newest fresh record", func() {
		st := NewInMemory()
		st.Put(&models.Record{CNPJ: testCNPJ, QueryDate: s.daysAgo(30)})
		st.Put(&models.Record{CNPJ: testCNPJ, QueryDate: s.daysAgo(2)})
		st.Put(&models.Record{CNPJ: "99888777000166", QueryDate: today})
		rec, err := st.FindFresh(s.ctx, testCNPJ)
		s.Require().NoError(err)
		s.Equal(s.daysAgo(2), rec.QueryDate)
	})

	s.Run("honors a custom window", func() {
		st := NewInMemory(WithFreshnessDays(7))
		st.Put(&models.Record{CNPJ: testCNPJ, QueryDate: s.daysAgo(8)})
		_, err := st.FindFresh(s.ctx, testCNPJ)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestUpsertToday() {
	s.Run("inserts then overwrites the same day row", func() {
		actor := models.Actor{ID: 7, Name: "Ana"}
		first, err := s.store.UpsertToday(s.ctx, testCNPJ, sampleFields(), actor)
		s.Require().NoError(err)
		s.Equal(today, first.QueryDate)

		updated := sampleFields()
		updated.Primary.Status = "SUSPENSA"
		second, err := s.store.UpsertToday(s.ctx, testCNPJ, updated, models.Actor{ID: 8, Name: "Bia"})
		s.Require().NoError(err)

		s.Equal(first.ID, second.ID)
		s.Equal("SUSPENSA", second.Primary.Status)
		s.Equal(int64(8), second.QueriedByID)
		s.Len(s.store.All(), 1)
	})

	s.Run("concurrent writers end with one row per day", func() {
		st := NewInMemory()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := st.UpsertToday(s.ctx, testCNPJ, sampleFields(), models.Actor{ID: 1})
				s.NoError(err)
			}()
		}
		wg.Wait()
		s.Len(st.All(), 1)
	})

	s.Run("keeps the incomplete flag across an overwrite", func() {
		st := NewInMemory()
		rec, err := st.UpsertToday(s.ctx, testCNPJ, sampleFields(), models.Actor{})
		s.Require().NoError(err)
		s.Require().NoError(st.MarkIncomplete(s.ctx, rec.ID, true))

		again, err := st.UpsertToday(s.ctx, testCNPJ, sampleFields(), models.Actor{})
		s.Require().NoError(err)
		s.True(again.Incomplete)
	})
}

func (s *MemoryStoreSuite) TestMarkIncomplete() {
	s.Run("returns ErrNotFound for unknown id", func() {
		err := s.store.MarkIncomplete(s.ctx, 404, true)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestSweepRetention() {
	st := NewInMemory()
	notEnabledOld := st.Put(&models.Record{CNPJ: "00000000000001", QueryDate: s.daysAgo(91),
		Primary: models.PrimaryFields{Status: models.StatusNotEnabled}})
	notEnabledEdge := st.Put(&models.Record{CNPJ: "00000000000002", QueryDate: s.daysAgo(90),
		Primary: models.PrimaryFields{Status: "não habilitada"}})
	limitedOld := st.Put(&models.Record{CNPJ: "00000000000003", QueryDate: s.daysAgo(121),
		Primary: models.PrimaryFields{SubModality: "LIMITADA (ATÉ US$ 50.000)"}})
	limitedYoung := st.Put(&models.Record{CNPJ: "00000000000004", QueryDate: s.daysAgo(120),
		Primary: models.PrimaryFields{SubModality: "LIMITADA (ATÉ US$ 150.000)"}})
	unlimitedOld := st.Put(&models.Record{CNPJ: "00000000000005", QueryDate: s.daysAgo(561),
		Primary: models.PrimaryFields{SubModality: "ilimitada"}})
	unlimitedYoung := st.Put(&models.Record{CNPJ: "00000000000006", QueryDate: s.daysAgo(400),
		Primary: models.PrimaryFields{SubModality: models.SubModalityUnlimited}})
	other := st.Put(&models.Record{CNPJ: "00000000000007", QueryDate: s.daysAgo(1000),
		Primary: models.PrimaryFields{Status: "DEFERIDA", SubModality: "EXPRESSA"}})

	deleted, err := st.SweepRetention(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), deleted)

	remaining := map[int64]bool{}
	for _, rec := range st.All() {
		remaining[rec.ID] = true
	}
	s.False(remaining[notEnabledOld.ID])
	s.False(remaining[limitedOld.ID])
	s.False(remaining[unlimitedOld.ID])
	s.True(remaining[notEnabledEdge.ID])
	s.True(remaining[limitedYoung.ID])
	s.True(remaining[unlimitedYoung.ID])
	s.True(remaining[other.ID])
}

func (s *MemoryStoreSuite) TestRepair() {
	st := NewInMemory()
	older := st.Put(&models.Record{CNPJ: "00000000000001", QueryDate: s.daysAgo(3), Incomplete: true})
	newer := st.Put(&models.Record{CNPJ: "00000000000002", QueryDate: s.daysAgo(1), Incomplete: true})
	st.Put(&models.Record{CNPJ: "00000000000003", QueryDate: s.daysAgo(1)})

	list, err := st.ListIncomplete(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID, list[0].ID)
	s.Equal(older.ID, list[1].ID)

	repaired, err := st.RepairSecondary(s.ctx, older.ID, models.SecondaryFields{LegalName: "FIXED"})
	s.Require().NoError(err)
	s.False(repaired.Incomplete)
	s.Equal("FIXED", repaired.Secondary.LegalName)

	list, err = st.ListIncomplete(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = st.RepairSecondary(s.ctx, 999, models.SecondaryFields{})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestTodayFollowsConfiguredZone() {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	s.Require().NoError(err)
	st := NewInMemory(WithLocation(loc))

	// 01:30 UTC is still the previous evening in São Paulo.
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 6, 15, 1, 30, 0, 0, time.UTC))
	rec, err := st.UpsertToday(ctx, testCNPJ, sampleFields(), models.Actor{})
	s.Require().NoError(err)
	s.Equal(time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), rec.QueryDate)
}
