package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/agrisupport/internal/auth"
	"github.com/spec-kit/agrisupport/internal/domain"
	"github.com/spec-kit/agrisupport/internal/service"
)

func seedLoginIdentity(repo *fakeIdentityRepo, email string, verified, active bool) *domain.Identity {
	hash, _ := auth.HashPassword("password123", bcrypt.MinCost)
	return repo.seed(domain.Identity{
		Name:          "Ahmed Hassan",
		Email:         email,
		PasswordHash:  hash,
		Role:          domain.RoleFarmer,
		EmailVerified: verified,
		Active:        active,
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	newSvc := func() (*service.AuthService, *fakeIdentityRepo) {
		repo := newFakeIdentityRepo()
		return service.NewAuthService(testConfig(), service.AuthDependencies{Identities: repo}), repo
	}

	t.Run("successful login issues a validating token", func(t *testing.T) {
		svc, repo := newSvc()
		seeded := seedLoginIdentity(repo, "a@x.com", true, true)

		identity, token, exp, err := svc.Login(ctx, "a@x.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, identity.ID)
		assert.False(t, exp.IsZero())

		id, err := svc.TokenManager().Validate(token)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, id)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		svc, repo := newSvc()
		seedLoginIdentity(repo, "a@x.com", true, true)

		_, _, _, errUnknown := svc.Login(ctx, "nobody@x.com", "password123")
		_, _, _, errWrong := svc.Login(ctx, "a@x.com", "bad-password")

		requireDomainCode(t, errUnknown, "UNAUTHORIZED")
		requireDomainCode(t, errWrong, "UNAUTHORIZED")
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
	})

	t.Run("unverified email rejected", func(t *testing.T) {
		svc, repo := newSvc()
		seedLoginIdentity(repo, "a@x.com", false, true)

		_, _, _, err := svc.Login(ctx, "a@x.com", "password123")
		requireDomainCode(t, err, "UNAUTHORIZED")
	})

	t.Run("deactivated account rejected", func(t *testing.T) {
		svc, repo := newSvc()
		seedLoginIdentity(repo, "a@x.com", true, false)

		_, _, _, err := svc.Login(ctx, "a@x.com", "password123")
		requireDomainCode(t, err, "UNAUTHORIZED")
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := newFakeIdentityRepo()
	svc := service.NewAuthService(testConfig(), service.AuthDependencies{Identities: repo})
	seeded := seedLoginIdentity(repo, "a@x.com", true, true)

	t.Run("wrong current password rejected", func(t *testing.T) {
		err := svc.ChangePassword(ctx, seeded.ID, "bad-password", "new-password")
		requireDomainCode(t, err, "UNAUTHORIZED")
	})

	t.Run("current password verified before replacement", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, seeded.ID, "password123", "new-password"))

		updated, err := repo.GetByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.NoError(t, auth.ComparePassword(updated.PasswordHash, "new-password"))
	})

	t.Run("unknown identity", func(t *testing.T) {
		err := svc.ChangePassword(ctx, "no-such-id", "password123", "new-password")
		requireDomainCode(t, err, "NOT_FOUND")
	})
}
