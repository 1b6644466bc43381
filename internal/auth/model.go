// File: internal/auth/model.go
package auth

import (
	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/navigation"
)

// LoginRequest defines the structure for login requests.
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
	From     string `json:"from" form:"from"`
}

// FirebaseLoginRequest carries an ID token minted by the Firebase client SDK.
type FirebaseLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
	From    string `json:"from"`
}

// LoginResponse is returned after a successful sign-in.
type LoginResponse struct {
	Identity *domain.Identity `json:"identity"`
	Redirect string           `json:"redirect"`
}

// SessionResponse describes the caller's session state.
type SessionResponse struct {
	Authenticated  bool             `json:"authenticated"`
	SessionLoading bool             `json:"sessionLoading"`
	Identity       *domain.Identity `json:"identity,omitempty"`
	Role           *domain.Role     `json:"role"`
	RoleLoading    bool             `json:"roleLoading"`
}

// ProfileResponse is the profile state of the session.
type ProfileResponse struct {
	Profile *domain.Profile `json:"profile"`
	Loading bool            `json:"loading"`
}

// NavigationResponse is the sidebar for the caller's role.
type NavigationResponse struct {
	Role        *domain.Role      `json:"role"`
	Links       []navigation.Link `json:"links"`
	Placeholder string            `json:"placeholder,omitempty"`
}
