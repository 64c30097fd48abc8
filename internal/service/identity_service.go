package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/agrisupport/internal/auth"
	"github.com/spec-kit/agrisupport/internal/config"
	"github.com/spec-kit/agrisupport/internal/domain"
	"github.com/spec-kit/agrisupport/internal/events"
	"github.com/spec-kit/agrisupport/internal/repository"
	apperrors "github.com/spec-kit/agrisupport/pkg/util"
)

// UpdateIdentityRequest carries optional admin edits; empty fields are kept.
type UpdateIdentityRequest struct {
	Name     string
	Email    string
	Role     domain.Role
	Password string
	Phone    string
	Location string
}

// IdentityService exposes the administrator identity-management surface.
// Administrator accounts can never be edited or deleted through it.
type IdentityService struct {
	identities repository.IdentityRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// NewIdentityService builds the service.
func NewIdentityService(cfg config.Config, identities repository.IdentityRepository, dispatcher events.Dispatcher, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		identities: identities,
		dispatcher: dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// List returns all identities, newest first.
func (s *IdentityService) List(ctx context.Context) ([]domain.Identity, error) {
	return s.identities.List(ctx)
}

// Update applies admin edits to a non-administrator identity.
func (s *IdentityService) Update(ctx context.Context, id string, req UpdateIdentityRequest) (*domain.Identity, error) {
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("identity", nil)
		}
		return nil, err
	}
	if identity.Role == domain.RoleAdmin {
		return nil, apperrors.NewForbidden("administrator accounts cannot be edited")
	}

	if req.Name != "" {
		identity.Name = req.Name
	}
	if req.Email != "" {
		email := normalizeEmail(req.Email)
		existing, err := s.identities.GetByEmail(ctx, email)
		if err != nil && err != pgx.ErrNoRows {
			return nil, err
		}
		if err == nil && existing.ID != id {
			return nil, apperrors.NewConflict("email already taken", nil)
		}
		identity.Email = email
	}
	if req.Role != "" {
		if !domain.ValidRegistrationRole(req.Role) {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": req.Role})
		}
		identity.Role = req.Role
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		identity.PasswordHash = hash
	}
	if req.Phone != "" {
		identity.Phone = req.Phone
	}
	if req.Location != "" {
		identity.Location = req.Location
	}

	if err := s.identities.Update(ctx, identity); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.EventIdentityUpdated,
		Email:      identity.Email,
		IdentityID: identity.ID,
	})
	return identity, nil
}

// Delete removes a non-administrator identity. Session tokens are not
// revoked; the auth middleware's live-identity check invalidates them.
func (s *IdentityService) Delete(ctx context.Context, id, deletedBy string) error {
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("identity", nil)
		}
		return err
	}
	if identity.Role == domain.RoleAdmin {
		return apperrors.NewForbidden("administrator accounts cannot be deleted")
	}

	if err := s.identities.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:       events.EventIdentityDeleted,
		Email:      identity.Email,
		IdentityID: identity.ID,
		Payload:    events.IdentityDeletedPayload{Role: identity.Role, DeletedBy: deletedBy},
	})
	return nil
}

func (s *IdentityService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
