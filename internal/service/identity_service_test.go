package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agrisupport/internal/domain"
	"github.com/spec-kit/agrisupport/internal/events"
	"github.com/spec-kit/agrisupport/internal/service"
)

func newIdentityFixture() (*service.IdentityService, *fakeIdentityRepo) {
	repo := newFakeIdentityRepo()
	svc := service.NewIdentityService(testConfig(), repo, events.NewInMemoryDispatcher(), zap.NewNop())
	return svc, repo
}

func TestIdentityManagement(t *testing.T) {
	ctx := context.Background()

	t.Run("administrator accounts can never be edited", func(t *testing.T) {
		svc, repo := newIdentityFixture()
		admin := repo.seed(domain.Identity{Email: "admin@x.com", Role: domain.RoleAdmin, EmailVerified: true, Active: true})

		_, err := svc.Update(ctx, admin.ID, service.UpdateIdentityRequest{Name: "New Name"})
		requireDomainCode(t, err, "FORBIDDEN")
	})

	t.Run("administrator accounts can never be deleted", func(t *testing.T) {
		svc, repo := newIdentityFixture()
		admin := repo.seed(domain.Identity{Email: "admin@x.com", Role: domain.RoleAdmin, EmailVerified: true, Active: true})

		err := svc.Delete(ctx, admin.ID, "other-admin")
		requireDomainCode(t, err, "FORBIDDEN")

		_, err = repo.GetByID(ctx, admin.ID)
		assert.NoError(t, err)
	})

	t.Run("email already taken by another identity", func(t *testing.T) {
		svc, repo := newIdentityFixture()
		repo.seed(domain.Identity{Email: "taken@x.com", Role: domain.RoleNGO, Active: true})
		farmer := repo.seed(domain.Identity{Email: "farmer@x.com", Role: domain.RoleFarmer, Active: true})

		_, err := svc.Update(ctx, farmer.ID, service.UpdateIdentityRequest{Email: "taken@x.com"})
		requireDomainCode(t, err, "CONFLICT")
	})

	t.Run("keeping your own email is not a conflict", func(t *testing.T) {
		svc, repo := newIdentityFixture()
		farmer := repo.seed(domain.Identity{Email: "farmer@x.com", Role: domain.RoleFarmer, Active: true})

		updated, err := svc.Update(ctx, farmer.ID, service.UpdateIdentityRequest{Email: "farmer@x.com", Name: "Renamed"})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
	})

	t.Run("role can only change between farmer and ngo", func(t *testing.T) {
		svc, repo := newIdentityFixture()
		farmer := repo.seed(domain.Identity{Email: "farmer@x.com", Role: domain.RoleFarmer, Active: true})

		_, err := svc.Update(ctx, farmer.ID, service.UpdateIdentityRequest{Role: domain.RoleAdmin})
		requireDomainCode(t, err, "VALIDATION_FAILED")

		updated, err := svc.Update(ctx, farmer.ID, service.UpdateIdentityRequest{Role: domain.RoleNGO})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleNGO, updated.Role)
	})

	t.Run("delete removes a non-administrator identity", func(t *testing.T) {
		svc, repo := newIdentityFixture()
		farmer := repo.seed(domain.Identity{Email: "farmer@x.com", Role: domain.RoleFarmer, Active: true})

		require.NoError(t, svc.Delete(ctx, farmer.ID, "admin-1"))
		_, err := repo.GetByID(ctx, farmer.ID)
		assert.Error(t, err)
	})

	t.Run("unknown identity", func(t *testing.T) {
		svc, _ := newIdentityFixture()
		_, err := svc.Update(ctx, "no-such-id", service.UpdateIdentityRequest{Name: "x"})
		requireDomainCode(t, err, "NOT_FOUND")

		err = svc.Delete(ctx, "no-such-id", "admin-1")
		requireDomainCode(t, err, "NOT_FOUND")
	})
}
