package user

import (
	"garment_portal_gateway/internal/domain"
)

// Account statuses.
const (
	StatusActive   = domain.ProfileStatusActive
	StatusInactive = domain.ProfileStatusInactive
)

// ToIdentity maps a directory row onto the session identity.
func ToIdentity(u *User) *domain.Identity {
	if u == nil {
		return nil
	}
	id := &domain.Identity{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Metadata:    domain.IdentityMetadata{LastSignInTime: u.LastSignInAt},
	}
	if u.PhotoURL != nil {
		id.PhotoURL = *u.PhotoURL
	}
	return id
}

// ToProfile maps a directory row onto the extended profile.
func ToProfile(u *User) *domain.Profile {
	if u == nil {
		return nil
	}
	p := &domain.Profile{
		Name:      u.DisplayName,
		Email:     u.Email,
		Role:      domain.ParseRole(u.Role),
		Status:    domain.ProfileStatus(u.Status),
		CreatedAt: u.CreatedAt,
		Metadata:  domain.ProfileMetadata{LastSignInTime: u.LastSignInAt},
	}
	if u.PhotoURL != nil {
		p.PhotoURL = *u.PhotoURL
	}
	return p
}
