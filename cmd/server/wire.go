// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"garment_portal_gateway/internal/app"
	"garment_portal_gateway/internal/audit"
	"garment_portal_gateway/internal/auth"
	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/guard"
	"garment_portal_gateway/internal/jobs"
	"garment_portal_gateway/internal/middleware"
	"garment_portal_gateway/internal/platform/backend"
	"garment_portal_gateway/internal/platform/database"
	"garment_portal_gateway/internal/platform/elasticsearch"
	"garment_portal_gateway/internal/platform/logger"
	"garment_portal_gateway/internal/session"
	"garment_portal_gateway/internal/user"
	"garment_portal_gateway/internal/web"

	"github.com/google/wire"
)

var platformSet = wire.NewSet(
	logger.New,
	database.NewGORM,
	backend.NewClient,
	elasticsearch.NewClient,
)

var sessionSet = wire.NewSet(
	provideUserService,
	provideIdentityProvider,
	provideRoleLookup,
	provideProfileFetcher,
	provideSessionDependencies,
	provideRegistry,
	session.NewTokenService,
	middleware.NewSessions,
	wire.Bind(new(jobs.Sweeper), new(*session.Registry)),
	jobs.NewSessionSweepJob,
)

var httpSet = wire.NewSet(
	audit.NewTrail,
	wire.Bind(new(audit.Recorder), new(*audit.Trail)),
	guard.New,
	auth.NewService,
	auth.NewHandler,
	web.NewHandler,
	user.NewHandler,
	app.NewServer,
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(platformSet, sessionSet, httpSet)
	return nil, nil, nil
}
