// File: internal/auth/handler.go
package auth

import (
	"context"
	"errors"
	"time"

	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/guard"
	"garment_portal_gateway/internal/middleware"
	"garment_portal_gateway/internal/navigation"
	"garment_portal_gateway/internal/notify"
	"garment_portal_gateway/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for the session API.
type Handler struct {
	service *Service
	guard   *guard.Guard
	wait    time.Duration
	logger  *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, g *guard.Guard, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		guard:   g,
		wait:    cfg.GuardPendingWait,
		logger:  logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the session API routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", h.login)
		authGroup.POST("/firebase", h.firebaseLogin)
		authGroup.POST("/logout", h.logout)
		authGroup.GET("/session", h.currentSession)
	}

	signedIn := router.Group("", h.guard.SignedIn())
	{
		signedIn.GET("/profile", h.profile)
		signedIn.POST("/profile/refresh", h.refreshProfile)
		signedIn.GET("/navigation", h.navigation)
	}

	router.GET("/notifications", h.notifications)
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}

	identity, err := h.service.SignIn(c, req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Login successful.", LoginResponse{Identity: identity, Redirect: SafeRedirect(req.From)})
}

func (h *Handler) firebaseLogin(c *gin.Context) {
	var req FirebaseLoginRequest
	if !h.bind(c, &req) {
		return
	}

	identity, err := h.service.SignInWithToken(c, req.IDToken)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Login successful.", LoginResponse{Identity: identity, Redirect: SafeRedirect(req.From)})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.service.SignOut(c); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Logged out.", nil)
}

func (h *Handler) currentSession(c *gin.Context) {
	sc, ok := middleware.ClientSession(c)
	if !ok {
		common.RespondOK(c, "", SessionResponse{})
		return
	}
	a := sc.Access()
	res := SessionResponse{
		Authenticated:  a.Identity != nil,
		SessionLoading: a.SessionLoading,
		Identity:       a.Identity,
		RoleLoading:    a.RoleLoading,
	}
	if a.Identity != nil && !a.RoleLoading && a.Role.Known() {
		role := a.Role
		res.Role = &role
	}
	common.RespondOK(c, "", res)
}

func (h *Handler) profile(c *gin.Context) {
	sc, _ := middleware.ClientSession(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.wait)
	defer cancel()

	st := sc.Profile.Wait(ctx)
	switch {
	case st.Loading:
		c.Header("Retry-After", "1")
		common.RespondAccepted(c, "Profile is loading.", ProfileResponse{Loading: true})
	case st.Err != nil:
		common.RespondWithError(c, st.Err)
	default:
		common.RespondOK(c, "", ProfileResponse{Profile: st.Profile})
	}
}

func (h *Handler) refreshProfile(c *gin.Context) {
	sc, _ := middleware.ClientSession(c)
	prof, err := sc.Profile.Fetch(c.Request.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			common.RespondWithError(c, common.ErrConflict.WithDetails("Session changed while refreshing."))
			return
		}
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile refreshed.", ProfileResponse{Profile: prof})
}

func (h *Handler) navigation(c *gin.Context) {
	sc, _ := middleware.ClientSession(c)
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.wait)
	defer cancel()

	a := sc.Settle(ctx)
	if a.SessionLoading || a.RoleLoading {
		c.Header("Retry-After", "1")
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("Role is still loading."))
		return
	}
	common.RespondOK(c, "", navigationFor(a))
}

func navigationFor(a session.Access) NavigationResponse {
	res := NavigationResponse{Links: navigation.Links(a.Role)}
	if a.Role.Known() {
		role := a.Role
		res.Role = &role
	}
	if len(res.Links) == 0 {
		res.Placeholder = navigation.Placeholder
	}
	return res
}

func (h *Handler) notifications(c *gin.Context) {
	sc, ok := middleware.ClientSession(c)
	if !ok {
		common.RespondOK(c, "", []notify.Notice{})
		return
	}
	common.RespondOK(c, "", sc.Inbox.Drain())
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err), zap.String("path", c.Request.URL.Path))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return false
	}
	return true
}
