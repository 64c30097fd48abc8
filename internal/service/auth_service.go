package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/agrisupport/internal/auth"
	"github.com/spec-kit/agrisupport/internal/config"
	"github.com/spec-kit/agrisupport/internal/domain"
	"github.com/spec-kit/agrisupport/internal/repository"
	apperrors "github.com/spec-kit/agrisupport/pkg/util"
)

// AuthService handles login and credential changes for live identities.
type AuthService struct {
	identities repository.IdentityRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	Identities repository.IdentityRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		identities: deps.Identities,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Login authenticates an identity by email and password. Unknown emails and
// wrong passwords get the same message to avoid account enumeration.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Identity, string, time.Time, error) {
	identity, err := s.identities.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(identity.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid email or password")
	}
	if !identity.EmailVerified {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("email not verified")
	}
	if !identity.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account deactivated")
	}

	token, exp, err := s.tokenMgr.Issue(identity.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return identity, token, exp, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, identityID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return apperrors.NewValidationError("new password is required", nil)
	}

	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("identity", nil)
		}
		return err
	}
	if err := auth.ComparePassword(identity.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	identity.PasswordHash = hash
	return s.identities.Update(ctx, identity)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
