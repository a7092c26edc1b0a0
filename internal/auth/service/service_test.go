package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,TokenIssuer,RevocationList,LoginGuard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"radar/internal/auth/models"
	"radar/internal/auth/service/mocks"
	"radar/internal/auth/store/revocation"
	"radar/internal/auth/store/user"
	"radar/internal/auth/token"
	id "radar/pkg/domain"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/sentinel"
	"radar/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	mockUserStore  *mocks.MockUserStore
	mockTokens     *mocks.MockTokenIssuer
	mockRevocation *mocks.MockRevocationList
	service        *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockUserStore = mocks.NewMockUserStore(s.ctrl)
	s.mockTokens = mocks.NewMockTokenIssuer(s.ctrl)
	s.mockRevocation = mocks.NewMockRevocationList(s.ctrl)
	s.service = New(s.mockUserStore, s.mockTokens, s.mockRevocation,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBcryptCost(bcrypt.MinCost),
	)
}

func (s *ServiceSuite) hash(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(err)
	return string(h)
}

func (s *ServiceSuite) TestLogin() {
	ctx := context.Background()
	active := &models.User{ID: 7, Email: "ana@example.com", PasswordHash: s.hash("s3cret"), Active: true, Role: id.RoleUser}

	s.Run("issues a token for valid credentials", func() {
		expires := time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)
		s.mockUserStore.EXPECT().FindByEmail(ctx, "ana@example.com").Return(active, nil)
		s.mockTokens.EXPECT().Issue(active).Return("signed", expires, nil)

		res, err := s.service.Login(ctx, "ana@example.com", "s3cret")
		s.Require().NoError(err)
		s.Equal("signed", res.Token)
		s.Equal(expires, res.ExpiresAt)
		s.Equal(int64(7), res.User.ID)
	})

	s.Run("wrong password is unauthorized", func() {
		s.mockUserStore.EXPECT().FindByEmail(ctx, "ana@example.com").Return(active, nil)

		_, err := s.service.Login(ctx, "ana@example.com", "wrong")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid credentials", err.Error())
	})

	s.Run("inactive user is rejected with the same message", func() {
		inactive := *active
		inactive.Active = false
		s.mockUserStore.EXPECT().FindByEmail(ctx, "ana@example.com").Return(&inactive, nil)

		_, err := s.service.Login(ctx, "ana@example.com", "s3cret")
		s.Require().Error(err)
		s.Equal("invalid credentials", err.Error())
	})

	s.Run("unknown email is rejected with the same message", func() {
		s.mockUserStore.EXPECT().FindByEmail(ctx, "nobody@example.com").Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Login(ctx, "nobody@example.com", "s3cret")
		s.Require().Error(err)
		s.Equal("invalid credentials", err.Error())
	})

	s.Run("store failure is internal", func() {
		s.mockUserStore.EXPECT().FindByEmail(ctx, "ana@example.com").Return(nil, errors.New("db down"))

		_, err := s.service.Login(ctx, "ana@example.com", "s3cret")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestLoginGuard() {
	guard := mocks.NewMockLoginGuard(s.ctrl)
	svc := New(s.mockUserStore, s.mockTokens, s.mockRevocation,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithLoginGuard(guard),
	)
	ctx := requestcontext.WithClientIP(context.Background(), "10.0.0.1")
	active := &models.User{ID: 7, Email: "ana@example.com", PasswordHash: s.hash("s3cret"), Active: true, Role: id.RoleUser}

	s.Run("locked pair never reaches the store", func() {
		guard.EXPECT().Check(ctx, "ana@example.com", "10.0.0.1").
			Return(dErrors.New(dErrors.CodeTooManyRequests, "too many failed login attempts, try again in 15 minute(s)"))

		_, err := svc.Login(ctx, "ana@example.com", "s3cret")
		s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))
	})

	s.Run("bad credentials count as a failure", func() {
		guard.EXPECT().Check(ctx, "ana@example.com", "10.0.0.1").Return(nil)
		s.mockUserStore.EXPECT().FindByEmail(ctx, "ana@example.com").Return(active, nil)
		guard.EXPECT().RecordFailure(ctx, "ana@example.com", "10.0.0.1").Return(nil)

		_, err := svc.Login(ctx, "ana@example.com", "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("store outages are not counted", func() {
		guard.EXPECT().Check(ctx, "ana@example.com", "10.0.0.1").Return(nil)
		s.mockUserStore.EXPECT().FindByEmail(ctx, "ana@example.com").Return(nil, errors.New("db down"))

		_, err := svc.Login(ctx, "ana@example.com", "s3cret")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("success clears failures", func() {
		guard.EXPECT().Check(ctx, "ana@example.com", "10.0.0.1").Return(nil)
		s.mockUserStore.EXPECT().FindByEmail(ctx, "ana@example.com").Return(active, nil)
		guard.EXPECT().Clear(ctx, "ana@example.com", "10.0.0.1").Return(nil)
		s.mockTokens.EXPECT().Issue(active).Return("signed", time.Now().Add(time.Hour), nil)

		res, err := svc.Login(ctx, "ana@example.com", "s3cret")
		s.Require().NoError(err)
		s.Equal("signed", res.Token)
	})
}

func (s *ServiceSuite) TestAuthorizeBatch() {
	ctx := context.Background()
	cases := []struct {
		name string
		user *models.User
		err  error
		want dErrors.Code
		msg  string
	}{
		{name: "unknown user", err: sentinel.ErrNotFound, want: dErrors.CodeForbidden, msg: "user inactive or not found"},
		{name: "inactive user", user: &models.User{ID: 1, CanBatch: true}, want: dErrors.CodeForbidden, msg: "user inactive or not found"},
		{name: "active without batch flag", user: &models.User{ID: 1, Active: true, Role: id.RoleUser}, want: dErrors.CodeForbidden, msg: "batch lookups not permitted"},
		{name: "store failure", err: errors.New("db down"), want: dErrors.CodeInternal},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockUserStore.EXPECT().FindByID(ctx, int64(1)).Return(tc.user, tc.err)

			err := s.service.AuthorizeBatch(ctx, 1)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, tc.want))
			if tc.msg != "" {
				s.Equal(tc.msg, err.Error())
			}
		})
	}

	s.Run("batch flag passes", func() {
		s.mockUserStore.EXPECT().FindByID(ctx, int64(2)).Return(&models.User{ID: 2, Active: true, CanBatch: true}, nil)
		s.NoError(s.service.AuthorizeBatch(ctx, 2))
	})

	s.Run("admin without batch flag passes", func() {
		s.mockUserStore.EXPECT().FindByID(ctx, int64(3)).Return(&models.User{ID: 3, Active: true, Role: id.RoleAdmin}, nil)
		s.NoError(s.service.AuthorizeBatch(ctx, 3))
	})
}

func (s *ServiceSuite) TestMe() {
	ctx := context.Background()

	s.Run("inactive user is unauthorized", func() {
		s.mockUserStore.EXPECT().FindByID(ctx, int64(4)).Return(&models.User{ID: 4}, nil)

		_, err := s.service.Me(ctx, 4)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("returns the stored user", func() {
		s.mockUserStore.EXPECT().FindByID(ctx, int64(5)).Return(&models.User{ID: 5, Name: "Bia", Active: true}, nil)

		u, err := s.service.Me(ctx, 5)
		s.Require().NoError(err)
		s.Equal("Bia", u.Name)
	})
}

func (s *ServiceSuite) TestLogout() {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	s.Run("revokes until expiry", func() {
		s.mockRevocation.EXPECT().RevokeToken(ctx, "jti-1", 2*time.Hour).Return(nil)

		err := s.service.Logout(ctx, id.Principal{UserID: 1, TokenID: "jti-1", ExpiresAt: now.Add(2 * time.Hour)})
		s.NoError(err)
	})

	s.Run("expired token needs no entry", func() {
		err := s.service.Logout(ctx, id.Principal{UserID: 1, TokenID: "jti-2", ExpiresAt: now.Add(-time.Minute)})
		s.NoError(err)
	})

	s.Run("revocation failure is internal", func() {
		s.mockRevocation.EXPECT().RevokeToken(ctx, "jti-3", time.Hour).Return(errors.New("redis down"))

		err := s.service.Logout(ctx, id.Principal{UserID: 1, TokenID: "jti-3", ExpiresAt: now.Add(time.Hour)})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestUserAdministration() {
	ctx := context.Background()

	s.Run("create hashes the password and defaults the role", func() {
		s.mockUserStore.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) (*models.User, error) {
			s.Equal(id.RoleUser, u.Role)
			s.True(u.Active)
			s.Equal("new@example.com", u.Email)
			s.NoError(bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw123456")))
			created := *u
			created.ID = 10
			return &created, nil
		})

		u, err := s.service.CreateUser(ctx, models.NewUser{Name: " New ", Email: "New@Example.com", Password: "pw123456"})
		s.Require().NoError(err)
		s.Equal(int64(10), u.ID)
		s.Equal("New", u.Name)
	})

	s.Run("duplicate email is conflict", func() {
		s.mockUserStore.EXPECT().Create(ctx, gomock.Any()).Return(nil, sentinel.ErrConflict)

		_, err := s.service.CreateUser(ctx, models.NewUser{Name: "Dup", Email: "dup@example.com", Password: "pw123456"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown role is a validation error", func() {
		_, err := s.service.CreateUser(ctx, models.NewUser{Name: "X", Email: "x@example.com", Password: "pw", Role: "root"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("deactivate on missing user is not found", func() {
		s.mockUserStore.EXPECT().FindByID(ctx, int64(99)).Return(nil, sentinel.ErrNotFound)

		err := s.service.DeactivateUser(ctx, 99)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("partial update leaves unset fields alone", func() {
		existing := &models.User{ID: 11, Name: "Old", Email: "old@example.com", PasswordHash: "keep", Active: true, CanBatch: true}
		s.mockUserStore.EXPECT().FindByID(ctx, int64(11)).Return(existing, nil)
		s.mockUserStore.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) (*models.User, error) {
			return u, nil
		})

		name := "Renamed"
		u, err := s.service.UpdateUser(ctx, 11, models.UserPatch{Name: &name})
		s.Require().NoError(err)
		s.Equal("Renamed", u.Name)
		s.Equal("keep", u.PasswordHash)
		s.True(u.CanBatch)
	})
}

// TestLoginLogoutRoundTrip runs the real token service and in-memory stores.
func TestLoginLogoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	users := user.New()
	jwtService := token.NewJWTService("round-trip-key", "radar")
	trl := revocation.NewInMemoryTRL()
	svc := New(users, jwtService, trl, WithBcryptCost(bcrypt.MinCost))

	created, err := svc.SeedAdmin(ctx, "", "admin@example.com", "admin-pass")
	if err != nil || !created {
		t.Fatalf("seed admin: created=%v err=%v", created, err)
	}
	again, err := svc.SeedAdmin(ctx, "", "ADMIN@example.com", "other")
	if err != nil || again {
		t.Fatalf("second seed must be a no-op: created=%v err=%v", again, err)
	}

	res, err := svc.Login(ctx, "admin@example.com", "admin-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	principal, err := jwtService.ValidateToken(res.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !principal.IsAdmin() || !principal.CanBatch {
		t.Fatalf("seeded admin lost its flags: %+v", principal)
	}
	if err := svc.AuthorizeBatch(ctx, principal.UserID); err != nil {
		t.Fatalf("admin must pass the batch gate: %v", err)
	}

	if err := svc.Logout(ctx, *principal); err != nil {
		t.Fatalf("logout: %v", err)
	}
	revoked, err := trl.IsRevoked(ctx, principal.TokenID)
	if err != nil || !revoked {
		t.Fatalf("token must be revoked after logout: revoked=%v err=%v", revoked, err)
	}
}
