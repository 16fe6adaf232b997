package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookdesk/library-service/library/internal/errs"
	"github.com/bookdesk/library-service/library/internal/model"
	libraryRepo "github.com/bookdesk/library-service/library/internal/repository"
	"github.com/bookdesk/library-service/pkg/auth"
)

type AuthService struct {
	log  *zap.Logger
	repo libraryRepo.Repository
	jwt  auth.JWT
}

func NewAuthService(repo libraryRepo.Repository, cfg auth.JWT, log *zap.Logger) *AuthService {
	return &AuthService{
		log:  log.Named("auth"),
		repo: repo,
		jwt:  cfg,
	}
}

// Login authenticates a staff user. An unknown username and a wrong password
// produce the same error, so callers cannot probe for registered usernames.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	user, err := s.repo.GetStaffByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.LoginResponse{}, errs.ErrBadCreds
		}
		return model.LoginResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return model.LoginResponse{}, errs.ErrBadCreds
	}

	token, expiresAt, err := auth.NewToken(user.ID, s.jwt)
	if err != nil {
		return model.LoginResponse{}, err
	}
	if err := s.repo.TouchStaffLogin(ctx, user.ID); err != nil {
		s.log.Warn("touch last login", zap.String("staff_id", user.ID), zap.Error(err))
	}
	return model.LoginResponse{Token: token, ExpiresAt: expiresAt}, nil
}
