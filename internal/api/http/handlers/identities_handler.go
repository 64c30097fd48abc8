package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agrisupport/internal/api/dto"
	"github.com/spec-kit/agrisupport/internal/auth"
	"github.com/spec-kit/agrisupport/internal/domain"
	"github.com/spec-kit/agrisupport/internal/service"
	apperrors "github.com/spec-kit/agrisupport/pkg/util"
)

// IdentitiesHandler exposes the administrator identity-management surface.
type IdentitiesHandler struct {
	identities *service.IdentityService
}

// NewIdentitiesHandler constructs handler.
func NewIdentitiesHandler(identityService *service.IdentityService) *IdentitiesHandler {
	return &IdentitiesHandler{identities: identityService}
}

// List handles GET /api/users.
func (h *IdentitiesHandler) List(c *fiber.Ctx) error {
	identities, err := h.identities.List(c.Context())
	if err != nil {
		return err
	}

	out := make([]dto.IdentityResponse, 0, len(identities))
	for i := range identities {
		out = append(out, dto.NewIdentityResponse(&identities[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"users": out}})
}

// Update handles PUT /api/users/:id.
func (h *IdentitiesHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return apperrors.NewValidationError("id required", nil)
	}

	var req dto.UpdateIdentityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	identity, err := h.identities.Update(c.Context(), id, service.UpdateIdentityRequest{
		Name:     req.Name,
		Email:    req.Email,
		Role:     domain.Role(req.Role),
		Password: req.Password,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"user": dto.NewIdentityResponse(identity)}})
}

// Delete handles DELETE /api/users/:id.
func (h *IdentitiesHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return apperrors.NewValidationError("id required", nil)
	}

	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.identities.Delete(c.Context(), id, principal.ID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"message": "user deleted"}})
}
