package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/agrisupport/internal/auth"
	"github.com/spec-kit/agrisupport/internal/config"
	"github.com/spec-kit/agrisupport/internal/domain"
	"github.com/spec-kit/agrisupport/internal/events"
	"github.com/spec-kit/agrisupport/internal/notify"
	"github.com/spec-kit/agrisupport/internal/repository"
	apperrors "github.com/spec-kit/agrisupport/pkg/util"
)

// AttemptLimiter guards code validation against brute force.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// RegisterRequest carries the data staged until email confirmation. No
// Identity row exists until the confirmation code is consumed.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	Phone    string
	Location string
}

// VerificationService orchestrates the registration confirmation and
// password reset flows around the pending code store and the notifier.
type VerificationService struct {
	identities    repository.IdentityRepository
	verifications repository.VerificationRepository
	notifier      notify.Notifier
	limiter       AttemptLimiter
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	bcryptCost    int
	resetTTL      time.Duration
	confirmTTL    time.Duration
}

// VerificationDependencies encapsulates collaborator requirements.
type VerificationDependencies struct {
	Identities    repository.IdentityRepository
	Verifications repository.VerificationRepository
	Notifier      notify.Notifier
	Limiter       AttemptLimiter
	Dispatcher    events.Dispatcher
}

// NewVerificationService builds the service.
func NewVerificationService(cfg config.Config, deps VerificationDependencies, logger *zap.Logger) *VerificationService {
	return &VerificationService{
		identities:    deps.Identities,
		verifications: deps.Verifications,
		notifier:      deps.Notifier,
		limiter:       deps.Limiter,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		bcryptCost:    cfg.Auth.BcryptCost,
		resetTTL:      cfg.Auth.ResetCodeTTL(),
		confirmTTL:    cfg.Auth.ConfirmCodeTTL(),
	}
}

// Register stages a new registration behind an email confirmation code.
func (s *VerificationService) Register(ctx context.Context, req RegisterRequest) error {
	email := normalizeEmail(req.Email)
	if req.Name == "" || email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email and password are required", nil)
	}
	if req.Role == "" {
		req.Role = domain.RoleFarmer
	}
	if !domain.ValidRegistrationRole(req.Role) {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": req.Role})
	}

	if _, err := s.identities.GetByEmail(ctx, email); err == nil {
		return apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return err
	}

	pending, err := s.verifications.HasPending(ctx, domain.KindEmailConfirm, email)
	if err != nil {
		return err
	}
	if pending {
		return apperrors.NewConflict("a confirmation code was already sent to this email", nil)
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(domain.StagedRegistration{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
		Location:     req.Location,
	})
	if err != nil {
		return err
	}

	if err := s.issueAndDeliver(ctx, domain.KindEmailConfirm, email, payload, notify.CodeContext{
		Kind:        domain.KindEmailConfirm,
		DisplayName: req.Name,
		Role:        req.Role,
	}); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventRegistrationStarted,
		Email:   email,
		Payload: events.RegistrationStartedPayload{Role: req.Role},
	})
	return nil
}

// ConfirmEmail consumes a confirmation code and materializes the staged
// registration into a verified, active Identity.
func (s *VerificationService) ConfirmEmail(ctx context.Context, email, code string) (*domain.Identity, error) {
	email = normalizeEmail(email)

	rec, err := s.lookupCode(ctx, domain.KindEmailConfirm, email, code)
	if err != nil {
		return nil, err
	}

	if err := s.consume(ctx, rec); err != nil {
		return nil, err
	}

	var staged domain.StagedRegistration
	if err := json.Unmarshal(rec.Payload, &staged); err != nil {
		// Keep the code usable; a corrupt payload is a server-side fault.
		s.rollbackConsume(ctx, rec.ID)
		return nil, apperrors.NewInternalError(err)
	}

	identity := &domain.Identity{
		Name:          staged.Name,
		Email:         staged.Email,
		PasswordHash:  staged.PasswordHash,
		Role:          staged.Role,
		Phone:         staged.Phone,
		Location:      staged.Location,
		EmailVerified: true,
		Active:        true,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		// Creation failed after the consume won the race: un-consume so the
		// code is retryable instead of burned on a failed attempt.
		s.rollbackConsume(ctx, rec.ID)
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.EventIdentityActivated,
		Email:      identity.Email,
		IdentityID: identity.ID,
		Payload:    events.IdentityActivatedPayload{Role: identity.Role},
	})
	return identity, nil
}

// ResendConfirmation re-issues a confirmation code once the prior one has
// expired. A still-live pending code is refused to rate-limit issuance.
func (s *VerificationService) ResendConfirmation(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.identities.GetByEmail(ctx, email); err == nil {
		return apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return err
	}

	rec, err := s.verifications.GetLatest(ctx, domain.KindEmailConfirm, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("pending registration", nil)
		}
		return err
	}
	if !rec.Used && !rec.Expired(time.Now()) {
		return apperrors.NewConflict("a confirmation code was already sent to this email", nil)
	}

	var staged domain.StagedRegistration
	if err := json.Unmarshal(rec.Payload, &staged); err != nil {
		return apperrors.NewInternalError(err)
	}

	return s.issueAndDeliver(ctx, domain.KindEmailConfirm, email, rec.Payload, notify.CodeContext{
		Kind:        domain.KindEmailConfirm,
		DisplayName: staged.Name,
		Role:        staged.Role,
	})
}

// ForgotPassword issues a reset code for an existing identity.
func (s *VerificationService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("identity", nil)
		}
		return err
	}

	pending, err := s.verifications.HasPending(ctx, domain.KindPasswordReset, email)
	if err != nil {
		return err
	}
	if pending {
		return apperrors.NewConflict("a reset code was already sent to this email", nil)
	}

	return s.issueAndDeliver(ctx, domain.KindPasswordReset, email, nil, notify.CodeContext{
		Kind:        domain.KindPasswordReset,
		DisplayName: identity.Name,
		Role:        identity.Role,
	})
}

// ResetPassword consumes a reset code and replaces the identity's credential.
func (s *VerificationService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return apperrors.NewValidationError("email, code and new password are required", nil)
	}

	rec, err := s.lookupCode(ctx, domain.KindPasswordReset, email, code)
	if err != nil {
		return err
	}

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("identity", nil)
		}
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	if err := s.consume(ctx, rec); err != nil {
		return err
	}

	identity.PasswordHash = hash
	if err := s.identities.Update(ctx, identity); err != nil {
		s.rollbackConsume(ctx, rec.ID)
		return err
	}

	s.publish(ctx, events.Event{
		Type:       events.EventPasswordReset,
		Email:      identity.Email,
		IdentityID: identity.ID,
	})
	return nil
}

// SweepExpired purges used and expired code rows. Hygiene only; expiry is
// enforced at validation time regardless.
func (s *VerificationService) SweepExpired(ctx context.Context) {
	purged, err := s.verifications.DeleteExpired(ctx)
	if err != nil {
		s.logger.Warn("verification sweep failed", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Info("verification sweep", zap.Int64("purged", purged))
	}
}

func (s *VerificationService) issueAndDeliver(ctx context.Context, kind domain.VerificationKind, email string, payload []byte, info notify.CodeContext) error {
	now := time.Now()
	ttl := s.confirmTTL
	if kind == domain.KindPasswordReset {
		ttl = s.resetTTL
	}

	rec := &domain.PendingVerification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Email:     email,
		Code:      auth.GenerateCode(),
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.verifications.Replace(ctx, rec); err != nil {
		return err
	}

	if !s.notifier.SendCode(ctx, email, rec.Code, info) {
		// Never leave an issued-but-undeliverable record behind; deleting it
		// lets the caller retry cleanly.
		if err := s.verifications.DeleteByKindEmail(ctx, kind, email); err != nil {
			s.logger.Warn("failed to roll back undelivered code",
				zap.String("kind", string(kind)), zap.Error(err))
		}
		return apperrors.NewDeliveryFailed("could not deliver the verification code, please try again")
	}
	return nil
}

// lookupCode resolves (kind, email, code) and applies the attempt limit,
// replay and expiry checks. Expired records stay unconsumed.
func (s *VerificationService) lookupCode(ctx context.Context, kind domain.VerificationKind, email, code string) (*domain.PendingVerification, error) {
	if s.limiter != nil && !s.limiter.Allow(ctx, "verify:"+string(kind)+":"+email) {
		return nil, apperrors.NewRateLimited("too many attempts, please try again later")
	}

	rec, err := s.verifications.GetByCode(ctx, kind, email, code)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("verification code", nil)
		}
		return nil, err
	}
	if rec.Used {
		return nil, apperrors.NewCodeUsed("this code has already been used")
	}
	if rec.Expired(time.Now()) {
		return nil, apperrors.NewExpiredCode("this code has expired, request a new one")
	}
	return rec, nil
}

// consume flips the used flag with used=false as precondition. Under
// concurrent calls on the same code exactly one caller succeeds.
func (s *VerificationService) consume(ctx context.Context, rec *domain.PendingVerification) error {
	if err := s.verifications.Consume(ctx, rec.ID); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewCodeUsed("this code has already been used")
		}
		return err
	}
	return nil
}

func (s *VerificationService) rollbackConsume(ctx context.Context, id string) {
	if err := s.verifications.Unconsume(ctx, id); err != nil {
		s.logger.Error("failed to un-consume verification code",
			zap.String("id", id), zap.Error(err))
	}
}

func (s *VerificationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
