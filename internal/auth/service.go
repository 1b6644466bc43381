// File: internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"garment_portal_gateway/internal/audit"
	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/middleware"
	"garment_portal_gateway/internal/notify"
	"garment_portal_gateway/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultRedirect is where a sign-in lands when no return path was given.
const DefaultRedirect = "/dashboard"

// Service runs sign-in and sign-out for a request's client session and
// keeps the cookie and audit trail in step.
type Service struct {
	sessions *middleware.Sessions
	audit    audit.Recorder
	logger   *zap.Logger
}

// NewService creates the auth service.
func NewService(sessions *middleware.Sessions, recorder audit.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &Service{sessions: sessions, audit: recorder, logger: logger.Named("AuthService")}
}

// SignIn signs the request's session in with email and password.
func (s *Service) SignIn(c *gin.Context, email, password string) (*domain.Identity, error) {
	sc := s.sessions.Ensure(c)
	return s.complete(c, sc, email, func(ctx context.Context) (*domain.Identity, error) {
		return sc.Store.SignIn(ctx, email, password)
	})
}

// SignInWithToken signs the request's session in with a provider token.
func (s *Service) SignInWithToken(c *gin.Context, token string) (*domain.Identity, error) {
	sc := s.sessions.Ensure(c)
	return s.complete(c, sc, "", func(ctx context.Context) (*domain.Identity, error) {
		return sc.Store.SignInWithToken(ctx, token)
	})
}

func (s *Service) complete(c *gin.Context, sc *session.Context, email string, signIn func(context.Context) (*domain.Identity, error)) (*domain.Identity, error) {
	ctx := c.Request.Context()
	identity, err := signIn(ctx)
	if err != nil {
		sc.Inbox.Notify(ctx, notify.Error("auth", UserMessage(err)))
		s.record(c, sc, audit.Event{Kind: audit.KindSignInFailed, Email: email, Reason: err.Error()})
		return nil, err
	}
	s.sessions.Persist(c, sc)
	sc.Inbox.Notify(ctx, notify.Notice{Level: notify.LevelSuccess, Kind: "auth", Message: "Signed in successfully."})
	s.record(c, sc, audit.Event{Kind: audit.KindSignIn, IdentityID: identity.ID, Email: identity.Email, Outcome: "ok"})
	return identity, nil
}

// SignOut signs the request's session out. It is safe without a session
// and when already signed out.
func (s *Service) SignOut(c *gin.Context) error {
	sc, ok := middleware.ClientSession(c)
	if !ok {
		return nil
	}
	identity := sc.Store.Identity()
	if err := sc.Store.SignOut(c.Request.Context()); err != nil {
		return err
	}
	if identity != nil {
		s.record(c, sc, audit.Event{Kind: audit.KindSignOut, IdentityID: identity.ID, Email: identity.Email, Outcome: "ok"})
	}
	s.sessions.End(c, sc)
	return nil
}

func (s *Service) record(c *gin.Context, sc *session.Context, e audit.Event) {
	e.SessionID = sc.ID
	e.RequestID = c.GetString(common.RequestIDKey)
	s.audit.Record(c.Request.Context(), e)
}

// SafeRedirect returns from when it is a local path, else DefaultRedirect.
// Browsers strip tabs and newlines and read backslashes as slashes, so any
// of those makes the path unsafe.
func SafeRedirect(from string) string {
	if !strings.HasPrefix(from, "/") || strings.IndexFunc(from, unsafeRedirectRune) >= 0 {
		return DefaultRedirect
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil || u.Opaque != "" {
		return DefaultRedirect
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return DefaultRedirect
	}
	return from
}

func unsafeRedirectRune(r rune) bool {
	return r < 0x20 || r == 0x7f || r == '\\'
}

// UserMessage is the notice text shown for a failed sign-in.
func UserMessage(err error) string {
	var ae *domain.AuthError
	if !errors.As(err, &ae) {
		return "Sign-in failed. Please try again."
	}
	switch ae.Kind {
	case domain.AuthInvalidCredentials:
		return "Invalid email or password."
	case domain.AuthSignInPending:
		return "A sign-in is already in progress."
	case domain.AuthUnsupported:
		return "This sign-in method is not available."
	default:
		return "Sign-in is temporarily unavailable. Please try again later."
	}
}
