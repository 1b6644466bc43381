package profile

import (
	"context"
	"encoding/json"
	"errors"

	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/platform/backend"
	"garment_portal_gateway/internal/user"
)

// Fetcher loads the extended profile of a principal.
type Fetcher interface {
	FetchProfile(ctx context.Context, p domain.Principal) (*domain.Profile, error)
}

// BackendFetcher reads GET /profile from the storefront backend.
type BackendFetcher struct {
	client *backend.Client
}

func NewBackendFetcher(client *backend.Client) *BackendFetcher {
	return &BackendFetcher{client: client}
}

func (f *BackendFetcher) FetchProfile(ctx context.Context, p domain.Principal) (*domain.Profile, error) {
	env, err := f.client.FetchProfile(ctx, p.AccessToken, p.Identity.Email)
	if err != nil {
		return nil, &domain.ProfileFetchError{Message: envelopeMessage(err), Err: err}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "profile service reported failure"
		}
		return nil, &domain.ProfileFetchError{Message: msg}
	}
	if env.Data == nil {
		return nil, &domain.ProfileFetchError{Message: "profile service returned no data"}
	}
	return env.Data, nil
}

// envelopeMessage prefers the message of an error envelope the backend sent
// along with a non-2xx status.
func envelopeMessage(err error) string {
	var se *backend.StatusError
	if errors.As(err, &se) {
		var env backend.ProfileEnvelope
		if json.Unmarshal([]byte(se.Body), &env) == nil && env.Message != "" {
			return env.Message
		}
	}
	return "profile service unavailable"
}

// DirectoryFetcher maps the local directory row into a profile.
type DirectoryFetcher struct {
	users *user.Service
}

func NewDirectoryFetcher(users *user.Service) *DirectoryFetcher {
	return &DirectoryFetcher{users: users}
}

func (f *DirectoryFetcher) FetchProfile(ctx context.Context, p domain.Principal) (*domain.Profile, error) {
	prof, err := f.users.ProfileOf(ctx, p.Identity.Email)
	if err != nil {
		return nil, &domain.ProfileFetchError{Message: "profile not available", Err: err}
	}
	return prof, nil
}
