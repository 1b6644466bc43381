// Package web serves the gateway's HTML pages: the public site, the
// sign-in screens and the role dashboards.
package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"garment_portal_gateway/internal/auth"
	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/guard"
	"garment_portal_gateway/internal/middleware"
	"garment_portal_gateway/internal/navigation"
	"garment_portal_gateway/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler renders the page routes.
type Handler struct {
	auth   *auth.Service
	guard  *guard.Guard
	wait   time.Duration
	logger *zap.Logger
}

// NewHandler creates the page handler.
func NewHandler(service *auth.Service, g *guard.Guard, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		auth:   service,
		guard:  g,
		wait:   cfg.GuardPendingWait,
		logger: logger.Named("WebHandler"),
	}
}

// dashboard describes one role dashboard mounted under /dashboard.
type dashboard struct {
	role    domain.Role
	heading string
	allowed []domain.Role
}

var dashboards = []dashboard{
	{role: domain.RoleAdmin, heading: "Admin dashboard", allowed: []domain.Role{domain.RoleAdmin}},
	{role: domain.RoleManager, heading: "Production dashboard", allowed: []domain.Role{domain.RoleAdmin, domain.RoleManager}},
	{role: domain.RoleBuyer, heading: "Buyer dashboard", allowed: []domain.Role{domain.RoleBuyer}},
}

// RegisterRoutes mounts the pages on router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/", h.static(views.Home, "Home"))
	router.GET("/about", h.static(views.About, "About"))
	router.GET("/contact", h.static(views.Contact, "Contact"))
	router.GET("/register", h.static(views.Register, "Register"))
	router.GET("/forbidden", h.forbidden)

	router.GET("/login", h.loginPage)
	router.POST("/login", h.login)
	router.POST("/logout", h.logout)

	router.GET("/dashboard", h.guard.Page(domain.AllRoles()...), h.landing)
	for _, d := range dashboards {
		group := router.Group(navigation.DashboardPath(d.role), h.guard.Page(d.allowed...))
		group.GET("", h.dashboard(d))
		group.GET("/:section", h.dashboard(d))
	}
}

func (h *Handler) static(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, gin.H{"Title": title, "SignedIn": signedIn(c)})
	}
}

func (h *Handler) forbidden(c *gin.Context) {
	c.HTML(http.StatusForbidden, views.Forbidden, gin.H{"Title": "Access denied", "SignedIn": signedIn(c)})
}

func (h *Handler) loginPage(c *gin.Context) {
	from := c.Query(common.FromQueryParam)
	if signedIn(c) {
		c.Redirect(http.StatusFound, auth.SafeRedirect(from))
		return
	}
	c.HTML(http.StatusOK, views.Login, gin.H{"Title": "Sign in", "From": from})
}

func (h *Handler) login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		msg := "Enter your email and password."
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msg = joinMessages(common.FormatValidationErrors(ve))
		}
		h.renderLogin(c, http.StatusUnprocessableEntity, req, msg)
		return
	}

	if _, err := h.auth.SignIn(c, req.Email, req.Password); err != nil {
		h.renderLogin(c, common.FromDomainError(err).StatusCode, req, auth.UserMessage(err))
		return
	}
	c.Redirect(http.StatusSeeOther, auth.SafeRedirect(req.From))
}

func (h *Handler) renderLogin(c *gin.Context, status int, req auth.LoginRequest, msg string) {
	c.HTML(status, views.Login, gin.H{
		"Title": "Sign in",
		"From":  req.From,
		"Email": req.Email,
		"Error": msg,
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.auth.SignOut(c); err != nil {
		middleware.RequestLogger(c, h.logger).Warn("Sign-out failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, common.HomePath)
}

// landing sends a signed-in user to the dashboard of their role.
func (h *Handler) landing(c *gin.Context) {
	a, _ := guard.AccessFrom(c)
	path := navigation.DashboardPath(a.Role)
	if path == "" {
		h.forbidden(c)
		return
	}
	c.Redirect(http.StatusFound, path)
}

func (h *Handler) dashboard(d dashboard) gin.HandlerFunc {
	sections := map[string]bool{}
	for _, l := range navigation.Links(d.role) {
		sections[l.Slug] = true
	}

	return func(c *gin.Context) {
		section := c.Param("section")
		if section == "" {
			section = "overview"
		}
		if !sections[section] {
			c.HTML(http.StatusNotFound, views.NotFound, gin.H{"Title": "Not found", "SignedIn": true})
			return
		}

		a, _ := guard.AccessFrom(c)
		sc, _ := middleware.ClientSession(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.wait)
		prof := sc.Profile.Wait(ctx)
		cancel()

		c.HTML(http.StatusOK, views.Dashboard, gin.H{
			"Title":          d.heading,
			"SignedIn":       true,
			"Heading":        d.heading,
			"Links":          navigation.Links(a.Role),
			"Placeholder":    navigation.Placeholder,
			"Profile":        prof.Profile,
			"ProfileLoading": prof.Loading,
			"Section":        section,
		})
	}
}

func signedIn(c *gin.Context) bool {
	sc, ok := middleware.ClientSession(c)
	return ok && sc.Store.Identity() != nil
}

func joinMessages(m map[string]string) string {
	msgs := make([]string, 0, len(m))
	for _, k := range []string{"Email", "Password"} {
		if v, ok := m[k]; ok {
			msgs = append(msgs, v)
		}
	}
	return strings.Join(msgs, " ")
}
