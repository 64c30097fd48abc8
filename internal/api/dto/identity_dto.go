package dto

import (
	"time"

	"github.com/spec-kit/agrisupport/internal/domain"
)

// UpdateIdentityRequest payload for admin edits. Empty fields are unchanged.
type UpdateIdentityRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// IdentityResponse is the outward representation of an identity. The
// password hash never leaves the service.
type IdentityResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Phone         string    `json:"phone,omitempty"`
	Location      string    `json:"location,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewIdentityResponse maps a domain identity to its response shape.
func NewIdentityResponse(identity *domain.Identity) IdentityResponse {
	return IdentityResponse{
		ID:            identity.ID,
		Name:          identity.Name,
		Email:         identity.Email,
		Role:          string(identity.Role),
		Phone:         identity.Phone,
		Location:      identity.Location,
		EmailVerified: identity.EmailVerified,
		Active:        identity.Active,
		CreatedAt:     identity.CreatedAt,
	}
}
