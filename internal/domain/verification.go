package domain

import "time"

// VerificationKind discriminates the two one-time code flows.
type VerificationKind string

const (
	KindPasswordReset VerificationKind = "reset"
	KindEmailConfirm  VerificationKind = "confirm"
)

// PendingVerification is a staged, time-boxed, single-use code record.
// At most one unused, unexpired record exists per (kind, email); issuing a
// new one replaces prior records of the same kind.
type PendingVerification struct {
	ID        string
	Kind      VerificationKind
	Email     string
	Code      string
	Payload   []byte
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Expired reports whether the record's TTL has elapsed at the given instant.
func (v *PendingVerification) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// StagedRegistration is the serialized payload held by a pending email
// confirmation until the code is consumed and the Identity materialized.
type StagedRegistration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         Role   `json:"role"`
	Phone        string `json:"phone,omitempty"`
	Location     string `json:"location,omitempty"`
}
