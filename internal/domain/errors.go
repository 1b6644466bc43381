package domain

import (
	"errors"
	"fmt"
)

// AuthErrorKind classifies sign-in failures.
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthProviderFailure    AuthErrorKind = "provider_failure"
	AuthSignInPending      AuthErrorKind = "sign_in_pending"
	AuthUnsupported        AuthErrorKind = "unsupported"
)

// AuthError is raised by the session store when sign-in fails.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("auth error (%s): %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError builds an AuthError.
func NewAuthError(kind AuthErrorKind, message string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: err}
}

// IsAuthKind reports whether err is an AuthError of the given kind.
func IsAuthKind(err error, kind AuthErrorKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}

// ProfileFetchError is raised when the profile service fails or reports
// success=false.
type ProfileFetchError struct {
	Message string
	Err     error
}

func (e *ProfileFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("profile fetch failed: %s: %v", e.Message, e.Err)
	}
	return "profile fetch failed: " + e.Message
}

func (e *ProfileFetchError) Unwrap() error { return e.Err }

// RoleResolutionError is raised when the role lookup fails.
type RoleResolutionError struct {
	IdentityID string
	Err        error
}

func (e *RoleResolutionError) Error() string {
	return fmt.Sprintf("role resolution failed for %q: %v", e.IdentityID, e.Err)
}

func (e *RoleResolutionError) Unwrap() error { return e.Err }

// ErrNoIdentity is returned by operations that need a signed-in identity.
var ErrNoIdentity = errors.New("no signed-in identity")
