// Package guard decides whether a request may reach a protected route.
package guard

import (
	"net/url"

	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/domain"
)

// State is the outcome of a guard evaluation.
type State int

const (
	Pending State = iota
	Unauthenticated
	Unauthorized
	Authorized
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Unauthenticated:
		return "UNAUTHENTICATED"
	case Unauthorized:
		return "UNAUTHORIZED"
	case Authorized:
		return "AUTHORIZED"
	}
	return "UNKNOWN"
}

// Input is everything a decision depends on.
type Input struct {
	SessionLoading bool
	Identity       *domain.Identity
	RoleLoading    bool
	Role           domain.Role
	Allowed        []domain.Role
	RequestedPath  string
}

// Decision is the guard outcome. RedirectTo and From are set only for
// Unauthenticated.
type Decision struct {
	State      State
	RedirectTo string
	From       string
}

// Decide evaluates the guard. While anything is loading the answer is
// Pending, so a role is never trusted before it has resolved. Membership
// in Allowed is exact; RoleUnknown is never allowed.
func Decide(in Input) Decision {
	if in.SessionLoading || in.RoleLoading {
		return Decision{State: Pending}
	}
	if in.Identity == nil {
		return Decision{
			State:      Unauthenticated,
			RedirectTo: LoginURL(in.RequestedPath),
			From:       in.RequestedPath,
		}
	}
	if in.Role.Known() && contains(in.Allowed, in.Role) {
		return Decision{State: Authorized}
	}
	return Decision{State: Unauthorized}
}

// LoginURL is the login route carrying from as the return path.
func LoginURL(from string) string {
	if from == "" {
		return common.LoginPath
	}
	return common.LoginPath + "?" + url.Values{common.FromQueryParam: {from}}.Encode()
}

func contains(allowed []domain.Role, r domain.Role) bool {
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}
