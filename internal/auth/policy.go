package auth

import "github.com/keychainmdip/dex-market/internal/domain"

// Policy evaluates role capabilities. The configured owner DID always has
// full admin capability regardless of the stored role.
type Policy struct {
	OwnerDID domain.DID
}

// IsOwner reports whether the DID is the configured marketplace owner
func (p Policy) IsOwner(did domain.DID) bool {
	return !did.Empty() && did == p.OwnerDID
}

// IsAdmin reports admin capability: the owner DID or role Admin
func (p Policy) IsAdmin(user *domain.User) bool {
	if user == nil {
		return false
	}
	return p.IsOwner(user.DID) || user.Role == domain.RoleAdmin || user.Role == domain.RoleOwner
}

// IsModerator reports moderator capability (admins included)
func (p Policy) IsModerator(user *domain.User) bool {
	if user == nil {
		return false
	}
	return p.IsAdmin(user) || user.Role == domain.RoleModerator
}

// RoleFor returns the role a DID receives on first login
func (p Policy) RoleFor(did domain.DID) domain.Role {
	if p.IsOwner(did) {
		return domain.RoleOwner
	}
	return domain.RoleMember
}
