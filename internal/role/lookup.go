package role

import (
	"context"
	"fmt"

	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/platform/backend"
	"garment_portal_gateway/internal/user"
)

// Lookup fetches the role of a principal from some authority.
type Lookup interface {
	LookupRole(ctx context.Context, p domain.Principal) (domain.Role, error)
}

// BackendLookup asks the storefront backend's role endpoint.
type BackendLookup struct {
	client *backend.Client
}

func NewBackendLookup(client *backend.Client) *BackendLookup {
	return &BackendLookup{client: client}
}

func (l *BackendLookup) LookupRole(ctx context.Context, p domain.Principal) (domain.Role, error) {
	res, err := l.client.LookupRole(ctx, p.AccessToken, p.Identity.Email)
	if err != nil {
		return domain.RoleUnknown, err
	}
	r := domain.ParseRole(res.Role)
	if !r.Known() {
		return domain.RoleUnknown, fmt.Errorf("backend returned unrecognised role %q", res.Role)
	}
	return r, nil
}

// DirectoryLookup reads the role column of the local user directory.
type DirectoryLookup struct {
	users *user.Service
}

func NewDirectoryLookup(users *user.Service) *DirectoryLookup {
	return &DirectoryLookup{users: users}
}

func (l *DirectoryLookup) LookupRole(ctx context.Context, p domain.Principal) (domain.Role, error) {
	return l.users.RoleOf(ctx, p.Identity.Email)
}
