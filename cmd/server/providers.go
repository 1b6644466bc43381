package main

import (
	"fmt"

	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/firebase"
	"garment_portal_gateway/internal/platform/backend"
	"garment_portal_gateway/internal/profile"
	"garment_portal_gateway/internal/role"
	"garment_portal_gateway/internal/session"
	"garment_portal_gateway/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provideUserService opens the user directory, or returns nil when no
// source reads it.
func provideUserService(db *gorm.DB, logger *zap.Logger) (*user.Service, error) {
	if db == nil {
		return nil, nil
	}
	if err := user.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate user directory: %w", err)
	}
	return user.NewService(user.NewGORMRepository(db), logger), nil
}

func provideIdentityProvider(cfg *config.Config, client *backend.Client, users *user.Service, logger *zap.Logger) (session.IdentityProvider, error) {
	switch cfg.IdentitySource {
	case config.SourceDirectory:
		return session.NewDirectoryProvider(users), nil
	case config.SourceFirebase:
		authClient, err := firebase.NewAuthClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return firebase.NewProvider(authClient, users, logger), nil
	default:
		return session.NewBackendProvider(client), nil
	}
}

func provideRoleLookup(cfg *config.Config, client *backend.Client, users *user.Service) role.Lookup {
	if cfg.RoleSource == config.SourceDirectory {
		return role.NewDirectoryLookup(users)
	}
	return role.NewBackendLookup(client)
}

func provideProfileFetcher(cfg *config.Config, client *backend.Client, users *user.Service) profile.Fetcher {
	if cfg.ProfileSource == config.SourceDirectory {
		return profile.NewDirectoryFetcher(users)
	}
	return profile.NewBackendFetcher(client)
}

func provideSessionDependencies(
	cfg *config.Config,
	logger *zap.Logger,
	provider session.IdentityProvider,
	roles role.Lookup,
	profiles profile.Fetcher,
) session.Dependencies {
	return session.Dependencies{
		Provider:             provider,
		Roles:                roles,
		Profiles:             profiles,
		NotificationCapacity: cfg.NotificationCapacity,
		Logger:               logger,
	}
}

func provideRegistry(cfg *config.Config, deps session.Dependencies) *session.Registry {
	return session.NewRegistry(cfg.SessionTTL, deps)
}
