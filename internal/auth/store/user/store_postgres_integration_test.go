//go:build integration

package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"radar/internal/auth/models"
	"radar/internal/auth/store/user"
	id "radar/pkg/domain"
	"radar/pkg/platform/sentinel"
	"radar/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "lookup_records", "users"))
}

func (s *PostgresUserStoreSuite) TestCreateFindUpdate() {
	ctx := context.Background()
	created, err := s.store.Create(ctx, &models.User{
		Name:         "Ana",
		Email:        "Ana@Example.com",
		PasswordHash: "hash",
		Role:         id.RoleUser,
		Active:       true,
		CanBatch:     true,
		Permissions:  id.Permissions{Radar: true, Chatbot: true},
	})
	s.Require().NoError(err)
	s.Positive(created.ID)
	s.Equal("ana@example.com", created.Email)

	found, err := s.store.FindByEmail(ctx, "ANA@example.com")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.True(found.Permissions.Chatbot)

	found.Active = false
	updated, err := s.store.Update(ctx, found)
	s.Require().NoError(err)
	s.False(updated.Active)

	_, err = s.store.FindByID(ctx, created.ID+1000)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestDuplicateEmailIsConflict() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, &models.User{Name: "A", Email: "same@example.com", PasswordHash: "x", Role: id.RoleUser})
	s.Require().NoError(err)

	_, err = s.store.Create(ctx, &models.User{Name: "B", Email: "same@example.com", PasswordHash: "y", Role: id.RoleUser})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresUserStoreSuite) TestListNewestFirst() {
	ctx := context.Background()
	first, err := s.store.Create(ctx, &models.User{Name: "First", Email: "first@example.com", PasswordHash: "x", Role: id.RoleUser})
	s.Require().NoError(err)
	second, err := s.store.Create(ctx, &models.User{Name: "Second", Email: "second@example.com", PasswordHash: "x", Role: id.RoleUser})
	s.Require().NoError(err)

	users, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal(second.ID, users[0].ID)
	s.Equal(first.ID, users[1].ID)
}
