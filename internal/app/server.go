// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"garment_portal_gateway/internal/audit"
	"garment_portal_gateway/internal/auth"
	"garment_portal_gateway/internal/boundary"
	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/guard"
	"garment_portal_gateway/internal/jobs"
	"garment_portal_gateway/internal/middleware"
	"garment_portal_gateway/internal/session"
	"garment_portal_gateway/internal/user"
	"garment_portal_gateway/internal/views"
	"garment_portal_gateway/internal/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	registry *session.Registry
	trail    *audit.Trail
	sweepJob *jobs.SessionSweepJob
}

// NewServer creates a new instance of our application server.
// userHandler is nil when the user directory is not configured.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	webHandler *web.Handler,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	sessions *middleware.Sessions,
	routeGuard *guard.Guard,
	registry *session.Registry,
	trail *audit.Trail,
	sweepJob *jobs.SessionSweepJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	templates, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	router.SetHTMLTemplate(templates)

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(boundary.Recovery(logger))
	router.Use(middleware.ErrorHandler(logger))

	// CORS Middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		// Credentialed requests cannot use a literal "*", so echo the origin.
		corsConfig.AllowOrigins = nil
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", "Retry-After", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.Use(sessions.Middleware())

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "sessions": registry.Count()})
	})

	webHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Garment portal gateway is healthy!"})
	})
	authHandler.RegisterRoutes(v1)

	if userHandler != nil {
		userHandler.RegisterRoutes(v1, routeGuard.API(domain.RoleAdmin))
	} else {
		logger.Info("User directory not configured, admin user routes are not registered.")
	}

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		trail:      trail,
		sweepJob:   sweepJob,
	}, nil
}

// Router exposes the engine for in-process tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if s.trail != nil {
		setupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.trail.Setup(setupCtx); err != nil {
			s.logger.Error("Failed to prepare audit index, events will only be logged", zap.Error(err))
		}
		cancel()
	}

	if s.sweepJob != nil {
		if err := s.sweepJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start session sweep job", zap.Error(err))
		}
	} else {
		s.logger.Info("Session sweep job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown stops accepting requests, then releases the client sessions
// and flushes pending audit events.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.sweepJob != nil {
		s.sweepJob.Stop()
	}
	err := s.httpServer.Shutdown(ctx)
	s.registry.Close()
	if s.trail != nil {
		s.trail.Flush()
	}
	return err
}
