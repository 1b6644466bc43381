// File: internal/middleware/session.go
package middleware

import (
	"net/http"
	"time"

	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Sessions binds requests to client session contexts through the signed
// session cookie.
type Sessions struct {
	registry *session.Registry
	tokens   *session.TokenService
	secure   bool
	logger   *zap.Logger
}

// NewSessions creates the session binding.
func NewSessions(registry *session.Registry, tokens *session.TokenService, cfg *config.Config, logger *zap.Logger) *Sessions {
	return &Sessions{
		registry: registry,
		tokens:   tokens,
		secure:   cfg.SessionCookieSecure,
		logger:   logger.Named("Sessions"),
	}
}

// Middleware resolves the session cookie. A session the registry no
// longer holds is restored from the cookie claims. Requests without a
// valid cookie proceed without a session.
func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(common.SessionCookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		claims, err := s.tokens.Validate(raw)
		if err != nil || s.registry.Revoked(claims.SessionID()) {
			s.clearCookie(c)
			c.Next()
			return
		}

		sc, ok := s.registry.Get(claims.SessionID())
		if !ok {
			principal := claims.Principal()
			if principal == nil {
				// A signed-out session has nothing worth restoring.
				c.Next()
				return
			}
			sc = s.registry.Adopt(claims.SessionID(), principal)
		}

		bind(c, sc)
		if claims.IssuedAt != nil && time.Since(claims.IssuedAt.Time) > s.tokens.TTL()/2 {
			s.Persist(c, sc)
		}
		c.Next()
	}
}

// Ensure returns the request's session context, creating one when the
// request has none.
func (s *Sessions) Ensure(c *gin.Context) *session.Context {
	if sc, ok := ClientSession(c); ok {
		return sc
	}
	sc := s.registry.Create()
	bind(c, sc)
	s.Persist(c, sc)
	return sc
}

// Persist writes the cookie for the current state of sc.
func (s *Sessions) Persist(c *gin.Context, sc *session.Context) {
	st := sc.Store.Snapshot()
	if st.Loading {
		return
	}
	token, expiresAt, err := s.tokens.Issue(sc.ID, st.Principal)
	if err != nil {
		s.logger.Error("Failed to issue session cookie", zap.Error(err), zap.String("sessionID", sc.ID))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, token, int(time.Until(expiresAt).Seconds()), "/", "", s.secure, true)
}

// End revokes the session and clears the cookie.
func (s *Sessions) End(c *gin.Context, sc *session.Context) {
	s.registry.Revoke(sc.ID)
	s.clearCookie(c)
}

func (s *Sessions) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", s.secure, true)
}

func bind(c *gin.Context, sc *session.Context) {
	c.Set(common.ClientSessionKey, sc)
	c.Set(common.SessionIDKey, sc.ID)
	if l, ok := c.Get(common.LoggerKey); ok {
		if logger, ok := l.(*zap.Logger); ok {
			c.Set(common.LoggerKey, logger.With(zap.String("session_id", sc.ID)))
		}
	}
}

// ClientSession retrieves the session context bound to the request.
func ClientSession(c *gin.Context) (*session.Context, bool) {
	val, exists := c.Get(common.ClientSessionKey)
	if !exists {
		return nil, false
	}
	sc, ok := val.(*session.Context)
	return sc, ok
}

// RequestLogger returns the request-scoped logger, or fallback.
func RequestLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := c.Get(common.LoggerKey); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return fallback
}
