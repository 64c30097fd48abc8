package events

import (
	"time"

	"github.com/spec-kit/agrisupport/internal/domain"
)

// EventType enumerates identity lifecycle event identifiers.
type EventType string

const (
	EventRegistrationStarted EventType = "registration_started"
	EventIdentityActivated   EventType = "identity_activated"
	EventPasswordReset       EventType = "password_reset"
	EventIdentityUpdated     EventType = "identity_updated"
	EventIdentityDeleted     EventType = "identity_deleted"
)

// Event represents a domain event emitted by services. Codes and credentials
// never ride on events; only lifecycle facts do.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	Email      string      `json:"email"`
	IdentityID string      `json:"identity_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// RegistrationStartedPayload payload.
type RegistrationStartedPayload struct {
	Role domain.Role `json:"role"`
}

// IdentityActivatedPayload payload.
type IdentityActivatedPayload struct {
	Role domain.Role `json:"role"`
}

// IdentityDeletedPayload payload.
type IdentityDeletedPayload struct {
	Role      domain.Role `json:"role"`
	DeletedBy string      `json:"deleted_by"`
}
