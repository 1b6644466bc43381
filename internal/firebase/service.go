package firebase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/user"
)

// AuthClient is the subset of the Firebase Auth client the provider uses.
type AuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Provider signs users in with Firebase ID tokens issued to the browser by
// the Firebase client SDK.
type Provider struct {
	authClient AuthClient
	users      *user.Service
	logger     *zap.Logger
}

// NewAuthClient initializes the Firebase Admin SDK and returns its Auth client.
func NewAuthClient(cfg *config.Config, logger *zap.Logger) (*auth.Client, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return authClient, nil
}

// NewProvider creates the Firebase identity provider. When users is set,
// every Firebase user is linked to a directory account so roles and
// profiles can be served from the directory.
func NewProvider(authClient AuthClient, users *user.Service, logger *zap.Logger) *Provider {
	return &Provider{authClient: authClient, users: users, logger: logger.Named("FirebaseProvider")}
}

// SignIn rejects password sign-in: Firebase credentials never reach the gateway.
func (p *Provider) SignIn(_ context.Context, _, _ string) (*domain.Principal, error) {
	return nil, domain.NewAuthError(domain.AuthUnsupported, "password sign-in is handled by Firebase; send an ID token", nil)
}

// SignInWithToken verifies a Firebase ID token and loads the user record.
func (p *Provider) SignInWithToken(ctx context.Context, idToken string) (*domain.Principal, error) {
	if idToken == "" {
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, "ID token must not be empty", nil)
	}

	token, err := p.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		p.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, "invalid or expired ID token", err)
	}
	p.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))

	identity, err := p.identity(ctx, token.UID)
	if err != nil {
		return nil, err
	}

	if p.users != nil {
		verified, _ := token.Claims["email_verified"].(bool)
		if _, created, err := p.users.LinkFirebase(ctx, identity, verified); err != nil {
			if errors.Is(err, user.ErrEmailNotVerified) || errors.Is(err, user.ErrAccountLinked) {
				return nil, domain.NewAuthError(domain.AuthInvalidCredentials, "verify your email address before signing in", err)
			}
			p.logger.Error("Failed to link Firebase user to directory", zap.Error(err), zap.String("uid", token.UID))
			return nil, domain.NewAuthError(domain.AuthProviderFailure, "could not link account", err)
		} else if created {
			p.logger.Info("Linked new Firebase user", zap.String("uid", token.UID))
		}
	}

	return &domain.Principal{Identity: identity, AccessToken: idToken}, nil
}

// Refresh reloads the Firebase user record for an existing identity.
func (p *Provider) Refresh(ctx context.Context, current domain.Principal) (*domain.Principal, error) {
	identity, err := p.identity(ctx, current.Identity.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Principal{Identity: identity, AccessToken: current.AccessToken}, nil
}

// SignOut revokes all refresh tokens for the user.
func (p *Provider) SignOut(ctx context.Context, current domain.Principal) error {
	uid := current.Identity.ID
	if err := p.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		p.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	p.logger.Info("Successfully revoked refresh tokens for user", zap.String("uid", uid))
	return nil
}

func (p *Provider) identity(ctx context.Context, uid string) (*domain.Identity, error) {
	rec, err := p.authClient.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, domain.NewAuthError(domain.AuthInvalidCredentials, "user no longer exists", err)
		}
		p.logger.Error("Failed to load Firebase user", zap.Error(err), zap.String("uid", uid))
		return nil, domain.NewAuthError(domain.AuthProviderFailure, "identity provider unavailable", err)
	}
	if rec.Disabled {
		return nil, domain.NewAuthError(domain.AuthInvalidCredentials, "account is disabled", nil)
	}
	return ToIdentity(rec)
}

// ToIdentity maps a Firebase user record onto the session identity.
func ToIdentity(rec *auth.UserRecord) (*domain.Identity, error) {
	if rec == nil || rec.UserInfo == nil {
		return nil, domain.NewAuthError(domain.AuthProviderFailure, "empty user record", errors.New("nil user info"))
	}
	identity := &domain.Identity{
		ID:          rec.UID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		PhotoURL:    rec.PhotoURL,
	}
	if rec.UserMetadata != nil && rec.UserMetadata.LastLogInTimestamp > 0 {
		t := time.UnixMilli(rec.UserMetadata.LastLogInTimestamp).UTC()
		identity.Metadata.LastSignInTime = &t
	}
	return identity, nil
}
