package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"garment_portal_gateway/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails interface{}
	}{
		{
			name:        "invalid credentials",
			err:         domain.NewAuthError(domain.AuthInvalidCredentials, "invalid email or password", nil),
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "UNAUTHORIZED",
			wantDetails: "invalid email or password",
		},
		{
			name:        "sign-in pending",
			err:         domain.NewAuthError(domain.AuthSignInPending, "busy", nil),
			wantStatus:  http.StatusConflict,
			wantCode:    "CONFLICT",
			wantDetails: "busy",
		},
		{
			name:        "profile fetch",
			err:         fmt.Errorf("wrapped: %w", &domain.ProfileFetchError{Message: "x"}),
			wantStatus:  http.StatusBadGateway,
			wantCode:    "BAD_GATEWAY",
			wantDetails: "x",
		},
		{
			name:        "no identity",
			err:         domain.ErrNoIdentity,
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "UNAUTHORIZED",
			wantDetails: "Sign in to continue.",
		},
		{
			name:       "unknown error keeps its text server-side",
			err:        errors.New(`backend responded 500: {"dsn":"postgres://secret"}`),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromDomainError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantDetails, apiErr.Details)
		})
	}
}
