package backend

import (
	"context"
	"net/http"
	"net/url"

	"garment_portal_gateway/internal/domain"
)

// LoginResponse is the backend's answer to POST /auth/login. The token,
// when present, authenticates later per-user calls.
type LoginResponse struct {
	domain.Identity
	Token string `json:"token,omitempty"`
}

// RoleResponse is the body of the role lookup endpoint.
type RoleResponse struct {
	Role string `json:"role"`
}

// ProfileEnvelope is the body of GET /profile.
type ProfileEnvelope struct {
	Success bool            `json:"success"`
	Data    *domain.Profile `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login calls POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.Do(ctx, "", http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookupRole calls GET /users/role?email=<email>.
func (c *Client) LookupRole(ctx context.Context, token, email string) (*RoleResponse, error) {
	var out RoleResponse
	if err := c.Do(ctx, token, http.MethodGet, "/users/role", url.Values{"email": {email}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchProfile calls GET /profile. Without a user token the gateway asks
// on behalf of the user by email.
func (c *Client) FetchProfile(ctx context.Context, token, email string) (*ProfileEnvelope, error) {
	var q url.Values
	if token == "" {
		q = url.Values{"email": {email}}
	}
	var out ProfileEnvelope
	if err := c.Do(ctx, token, http.MethodGet, "/profile", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
