// File: internal/domain/types.go
package domain

import (
	"strings"
	"time"
)

// Role is the coarse-grained authorization category of a signed-in user.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleManager
	RoleBuyer
)

// ParseRole maps a backend role string onto the Role enum.
// Unrecognised values map to RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "manager":
		return RoleManager
	case "buyer":
		return RoleBuyer
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	case RoleBuyer:
		return "buyer"
	default:
		return "unknown"
	}
}

// Known reports whether r is one of the concrete roles.
func (r Role) Known() bool {
	return r != RoleUnknown
}

// MarshalText lets roles appear as plain strings in JSON payloads.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText is lenient: anything unrecognised becomes RoleUnknown.
func (r *Role) UnmarshalText(b []byte) error {
	*r = ParseRole(string(b))
	return nil
}

// AllRoles returns the concrete roles in display order.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleBuyer}
}

// IdentityMetadata carries provider bookkeeping about the identity.
type IdentityMetadata struct {
	LastSignInTime *time.Time `json:"lastSignInTime,omitempty"`
}

// Identity is the authenticated user record issued by the identity provider.
type Identity struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	DisplayName string           `json:"displayName,omitempty"`
	PhotoURL    string           `json:"photoURL,omitempty"`
	Metadata    IdentityMetadata `json:"metadata"`
}

// Key identifies the identity for change detection. Provider-pushed updates
// (display name, photo) keep the same key.
func (i *Identity) Key() string {
	if i == nil {
		return ""
	}
	return i.ID + "|" + strings.ToLower(i.Email)
}

// Clone returns a deep copy so callers cannot mutate store state.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.Metadata.LastSignInTime != nil {
		t := *i.Metadata.LastSignInTime
		c.Metadata.LastSignInTime = &t
	}
	return &c
}

// ProfileStatus is the account status reported by the profile service.
type ProfileStatus string

const (
	ProfileStatusActive   ProfileStatus = "active"
	ProfileStatusInactive ProfileStatus = "inactive"
)

// ProfileMetadata mirrors the identity metadata as reported by the backend.
type ProfileMetadata struct {
	LastSignInTime *time.Time `json:"lastSignInTime,omitempty"`
}

// Profile is the extended profile data for the signed-in identity.
type Profile struct {
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      Role            `json:"role"`
	PhotoURL  string          `json:"photoURL,omitempty"`
	Status    ProfileStatus   `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Metadata  ProfileMetadata `json:"metadata"`
}

// Principal is what downstream lookups act on behalf of: the identity plus
// the opaque bearer token the identity provider issued for it, if any.
type Principal struct {
	Identity    *Identity
	AccessToken string
}

// Key is the identity key of the principal.
func (p *Principal) Key() string {
	if p == nil {
		return ""
	}
	return p.Identity.Key()
}
