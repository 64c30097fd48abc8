package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/agrisupport/internal/domain"
	"github.com/spec-kit/agrisupport/internal/repository"
	apperrors "github.com/spec-kit/agrisupport/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens and loads the calling identity.
type AuthMiddleware struct {
	tokens     *TokenManager
	identities repository.IdentityRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, identities repository.IdentityRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, identities: identities}
}

// Handle enforces authentication for protected routes. Token failures are
// reported with one uniform message regardless of cause.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewMissingToken("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return apperrors.NewMissingToken("authorization header must use the Bearer scheme")
	}

	identityID, err := m.tokens.Validate(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	// Tokens are not revoked on deletion; this lookup is the only safeguard
	// against tokens outliving their identity.
	identity, err := m.identities.GetByID(c.Context(), identityID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("invalid token")
		}
		return apperrors.MapError(err)
	}
	if !identity.Active {
		return apperrors.NewUnauthorized("account deactivated")
	}

	c.Locals(principalKey, identity)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated identity.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
