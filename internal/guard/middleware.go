package guard

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"garment_portal_gateway/internal/audit"
	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/middleware"
	"garment_portal_gateway/internal/session"
	"garment_portal_gateway/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessKey is the gin context key holding the session.Access a guarded
// handler was admitted with.
const AccessKey = "guardAccess"

// Guard turns decisions into HTTP responses.
type Guard struct {
	wait   time.Duration
	audit  audit.Recorder
	logger *zap.Logger
}

// New creates a guard that waits up to GUARD_PENDING_WAIT for pending
// state to settle before answering.
func New(cfg *config.Config, recorder audit.Recorder, logger *zap.Logger) *Guard {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &Guard{wait: cfg.GuardPendingWait, audit: recorder, logger: logger.Named("RouteGuard")}
}

// Page guards HTML routes: redirect to login, Forbidden view, or the
// loading view while pending.
func (g *Guard) Page(allowed ...domain.Role) gin.HandlerFunc {
	return g.handler(allowed, false)
}

// API guards JSON routes with 401, 403 and 503 responses.
func (g *Guard) API(allowed ...domain.Role) gin.HandlerFunc {
	return g.handler(allowed, true)
}

// SignedIn guards JSON routes that need an identity but no particular role.
func (g *Guard) SignedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := middleware.ClientSession(c)
		if !ok {
			g.respondAPI(c, Decide(Input{RequestedPath: c.Request.URL.RequestURI()}))
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), g.wait)
		st := sc.Store.Wait(ctx)
		cancel()

		if st.Loading {
			g.respondAPI(c, Decision{State: Pending})
			return
		}
		if st.Principal == nil {
			g.respondAPI(c, Decide(Input{RequestedPath: c.Request.URL.RequestURI()}))
			return
		}
		c.Next()
	}
}

func (g *Guard) handler(allowed []domain.Role, api bool) gin.HandlerFunc {
	allowed = append([]domain.Role(nil), allowed...)
	return func(c *gin.Context) {
		in := Input{Allowed: allowed, RequestedPath: c.Request.URL.RequestURI()}

		sc, ok := middleware.ClientSession(c)
		if ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), g.wait)
			a := sc.Settle(ctx)
			cancel()
			in.SessionLoading = a.SessionLoading
			in.Identity = a.Identity
			in.RoleLoading = a.RoleLoading
			in.Role = a.Role
			c.Set(AccessKey, a)
		}

		d := Decide(in)
		if d.State == Authorized {
			c.Next()
			return
		}

		if d.State == Unauthorized {
			g.recordDenial(c, in, d)
		}
		if api {
			g.respondAPI(c, d)
		} else {
			g.respondPage(c, d)
		}
	}
}

func (g *Guard) respondPage(c *gin.Context, d Decision) {
	switch d.State {
	case Pending:
		c.Header("Retry-After", g.retryAfter())
		c.HTML(http.StatusServiceUnavailable, views.Loading, gin.H{"Title": "Loading", "RetryMillis": g.wait.Milliseconds()})
	case Unauthenticated:
		c.Redirect(http.StatusFound, d.RedirectTo)
	case Unauthorized:
		c.HTML(http.StatusForbidden, views.Forbidden, gin.H{"Title": "Access denied", "SignedIn": true})
	}
	c.Abort()
}

func (g *Guard) respondAPI(c *gin.Context, d Decision) {
	switch d.State {
	case Pending:
		c.Header("Retry-After", g.retryAfter())
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("Session is still loading."))
	case Unauthenticated:
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails(gin.H{
			"redirect": d.RedirectTo,
			"from":     d.From,
		}))
	case Unauthorized:
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}

func (g *Guard) retryAfter() string {
	return fmt.Sprintf("%d", int(math.Max(1, math.Ceil(g.wait.Seconds()))))
}

func (g *Guard) recordDenial(c *gin.Context, in Input, d Decision) {
	e := audit.Event{
		Kind:      audit.KindAccessDenied,
		SessionID: c.GetString(common.SessionIDKey),
		Role:      in.Role.String(),
		Path:      in.RequestedPath,
		Outcome:   d.State.String(),
		RequestID: c.GetString(common.RequestIDKey),
	}
	if in.Identity != nil {
		e.IdentityID = in.Identity.ID
		e.Email = in.Identity.Email
	}
	g.audit.Record(c.Request.Context(), e)
	middleware.RequestLogger(c, g.logger).Info("Access denied",
		zap.String("path", in.RequestedPath),
		zap.Stringer("role", in.Role),
	)
}

// AccessFrom returns the access view a guarded handler was admitted with.
func AccessFrom(c *gin.Context) (session.Access, bool) {
	v, ok := c.Get(AccessKey)
	if !ok {
		return session.Access{}, false
	}
	a, ok := v.(session.Access)
	return a, ok
}
