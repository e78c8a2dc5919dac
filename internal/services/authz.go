package services

import (
	"strings"

	"basketbolista/internal/domain"
)

// resolveCredential decides what a caller may do with a registration, in
// priority order: group admins bypass everything, the owning identity
// bypasses the PIN, otherwise the PIN is compared against the stored hash.
// A registration with no PIN and no identity match is admin-only; there is
// no anonymous path.
func resolveCredential(group *domain.Group, reg *domain.Registration, cred domain.Credential, pins domain.PinHasher) domain.AuthzDecision {
	if cred.Identity != nil {
		if group != nil && group.IsAdmin(cred.Identity.Email) {
			return domain.AuthzAdmin
		}
		if isOwner(reg, cred.Identity) {
			return domain.AuthzOwner
		}
	}
	if pins.Compare(reg.PINHash, cred.PIN) {
		return domain.AuthzPinMatch
	}
	return domain.AuthzDenied
}

// isOwner matches the identity against the registration by opaque uid first,
// then by contact email, mirroring how the reference app linked sign-ins to
// older email-only registrations.
func isOwner(reg *domain.Registration, id *domain.Identity) bool {
	if reg.OwnerUID != "" && reg.OwnerUID == id.ID {
		return true
	}
	return reg.Email != "" && id.Email != "" && strings.EqualFold(reg.Email, id.Email)
}
