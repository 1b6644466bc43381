package session

import (
	"context"
	"errors"
	"net/http"

	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/platform/backend"
	"garment_portal_gateway/internal/user"
)

// IdentityProvider authenticates users for the Session Store.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*domain.Principal, error)
	SignOut(ctx context.Context, p domain.Principal) error
}

// TokenProvider is implemented by providers that accept a token minted by
// a client SDK instead of a password.
type TokenProvider interface {
	SignInWithToken(ctx context.Context, token string) (*domain.Principal, error)
}

// Refresher is implemented by providers that can reload an identity. It is
// used while restoring a session.
type Refresher interface {
	Refresh(ctx context.Context, p domain.Principal) (*domain.Principal, error)
}

// BackendProvider signs in against the storefront backend.
type BackendProvider struct {
	client *backend.Client
}

func NewBackendProvider(client *backend.Client) *BackendProvider {
	return &BackendProvider{client: client}
}

func (b *BackendProvider) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	res, err := b.client.Login(ctx, email, password)
	if err != nil {
		if backend.IsStatus(err, http.StatusUnauthorized) || backend.IsStatus(err, http.StatusForbidden) {
			return nil, domain.NewAuthError(domain.AuthInvalidCredentials, "invalid email or password", err)
		}
		return nil, domain.NewAuthError(domain.AuthProviderFailure, "sign-in service unavailable", err)
	}
	if res.ID == "" {
		return nil, domain.NewAuthError(domain.AuthProviderFailure, "sign-in service returned no identity", nil)
	}
	identity := res.Identity
	return &domain.Principal{Identity: &identity, AccessToken: res.Token}, nil
}

// SignOut is local only: backend tokens are not revocable.
func (b *BackendProvider) SignOut(context.Context, domain.Principal) error {
	return nil
}

// DirectoryProvider signs in against the local user directory.
type DirectoryProvider struct {
	users *user.Service
}

func NewDirectoryProvider(users *user.Service) *DirectoryProvider {
	return &DirectoryProvider{users: users}
}

func (d *DirectoryProvider) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	u, err := d.users.Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, "invalid email or password", err)
	case errors.Is(err, user.ErrAccountInactive):
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, "account is inactive", err)
	case err != nil:
		return nil, domain.NewAuthError(domain.AuthProviderFailure, "user directory unavailable", err)
	}
	return &domain.Principal{Identity: user.ToIdentity(u)}, nil
}

func (d *DirectoryProvider) SignOut(context.Context, domain.Principal) error {
	return nil
}
