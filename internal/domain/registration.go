package domain

import (
	"context"
	"time"
)

// Registration is one name on an event's roster. Whether it is confirmed or
// waitlisted is never stored: it is derived from the registration's position
// in the ledger versus the event capacity.
// swagger:model Registration
type Registration struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	PINHash   string    `json:"-"`
	OwnerUID  string    `json:"-"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"created_at"`
	// Seq freezes insertion order so equal timestamps keep
	// first-written-wins ranking.
	Seq int64 `json:"-"`
}

// RegistrationStatus is the derived position of a registration.
type RegistrationStatus string

const (
	StatusConfirmed  RegistrationStatus = "confirmed"
	StatusWaitlisted RegistrationStatus = "waitlisted"
)

// RankedRegistration is a registration with its derived status and 1-based
// rank within its group (confirmed or waitlisted).
type RankedRegistration struct {
	*Registration
	Status RegistrationStatus `json:"status"`
	Rank   int                `json:"rank"`
}

// LedgerView is the derived partition of one event's ledger.
// swagger:model LedgerView
type LedgerView struct {
	Confirmed  []RankedRegistration `json:"confirmed"`
	Waitlisted []RankedRegistration `json:"waitlisted"`
}

// RegisterInput is the caller-supplied part of a new registration. PIN is the
// plaintext shared secret; it is hashed before storage and discarded.
type RegisterInput struct {
	Name  string
	Email string
	PIN   string
}

// Credential is what a caller presents to act on an existing registration:
// an authenticated identity, a PIN, or both.
type Credential struct {
	Identity *Identity
	PIN      string
}

// AuthzDecision is the outcome of resolving a credential against a
// registration, in priority order.
type AuthzDecision int

const (
	AuthzDenied AuthzDecision = iota
	AuthzPinMatch
	AuthzOwner
	AuthzAdmin
)

// RegistrationRepository defines storage operations for the ledger. List
// returns the full ledger ordered ascending by (created_at, seq).
type RegistrationRepository interface {
	Create(ctx context.Context, reg *Registration) error
	GetByID(ctx context.Context, eventID, id string) (*Registration, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Registration, error)
	Delete(ctx context.Context, eventID, id string) error
	SetPaid(ctx context.Context, eventID, id string, paid bool) error
}

// RegistrationService is the registration engine: it owns the ledger
// invariants, the waitlist promotion decision and the notification side
// effects.
type RegistrationService interface {
	Register(ctx context.Context, eventID string, in RegisterInput, identity *Identity) (*RankedRegistration, error)
	Cancel(ctx context.Context, eventID, registrationID string, cred Credential) (*LedgerView, error)
	SetPaid(ctx context.Context, eventID, registrationID string, paid bool, cred Credential) error
	Ledger(ctx context.Context, eventID string) (*LedgerView, error)
}
