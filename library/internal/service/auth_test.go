package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookdesk/library-service/library/internal/errs"
	"github.com/bookdesk/library-service/library/internal/model"
	repo_mocks "github.com/bookdesk/library-service/library/internal/repository/mocks"
	"github.com/bookdesk/library-service/library/internal/service"
	"github.com/bookdesk/library-service/pkg/auth"
)

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	const staffID = "5f0b1ad6-6a0c-4a6c-9e5b-9af4c1a1e001"
	jwtCfg := auth.JWT{Secret: "test-secret", TTL: time.Hour}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	staff := model.StaffUser{ID: staffID, Username: "librarian", PasswordHash: string(hash)}

	newAuth := func(t *testing.T) (*service.AuthService, *repo_mocks.MockRepository) {
		t.Helper()
		c := gomock.NewController(t)
		t.Cleanup(c.Finish)
		repo := repo_mocks.NewMockRepository(c)
		return service.NewAuthService(repo, jwtCfg, zap.NewNop()), repo
	}

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		svc, repo := newAuth(t)
		repo.EXPECT().GetStaffByUsername(context.Background(), "librarian").Return(staff, nil)
		repo.EXPECT().TouchStaffLogin(context.Background(), staffID).Return(nil)

		resp, err := svc.Login(context.Background(), model.LoginRequest{Username: "librarian", Password: "s3cret"})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Token)
		require.WithinDuration(t, time.Now().Add(jwtCfg.TTL), resp.ExpiresAt, time.Minute)

		claims, err := auth.ParseToken(resp.Token, []byte(jwtCfg.Secret))
		require.NoError(t, err)
		require.Equal(t, staffID, claims.StaffID)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		svc, repo := newAuth(t)
		repo.EXPECT().GetStaffByUsername(context.Background(), "librarian").Return(staff, nil)

		_, err := svc.Login(context.Background(), model.LoginRequest{Username: "librarian", Password: "wrong"})
		require.ErrorIs(t, err, errs.ErrBadCreds)
	})

	t.Run("unknown username maps to the same error", func(t *testing.T) {
		t.Parallel()
		svc, repo := newAuth(t)
		repo.EXPECT().GetStaffByUsername(context.Background(), "ghost").Return(model.StaffUser{}, errs.ErrNotFound)

		_, err := svc.Login(context.Background(), model.LoginRequest{Username: "ghost", Password: "s3cret"})
		require.ErrorIs(t, err, errs.ErrBadCreds)
	})

	t.Run("touch failure does not break login", func(t *testing.T) {
		t.Parallel()
		svc, repo := newAuth(t)
		repo.EXPECT().GetStaffByUsername(context.Background(), "librarian").Return(staff, nil)
		repo.EXPECT().TouchStaffLogin(context.Background(), staffID).Return(errs.ErrNotFound)

		resp, err := svc.Login(context.Background(), model.LoginRequest{Username: "librarian", Password: "s3cret"})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Token)
	})
}
