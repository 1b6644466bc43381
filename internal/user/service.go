// File: internal/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/platform/crypto"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive is returned when an inactive account tries to sign in.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrEmailNotVerified is returned when an external identity claims the
	// email of an existing account without having verified it.
	ErrEmailNotVerified = errors.New("email address is not verified")
	// ErrAccountLinked is returned when the account for an email is already
	// linked to another external identity.
	ErrAccountLinked = errors.New("account is linked to another identity")
)

// Service is the user directory: credentials, roles and profiles kept in
// the gateway's own database.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new user directory service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("UserDirectory"), now: time.Now}
}

// Authenticate checks credentials and records the sign-in time.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			s.logger.Info("Sign-in for unknown email", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if u.PasswordHash == nil || *u.PasswordHash == "" {
		s.logger.Warn("Password sign-in attempted on account without password", zap.String("userID", u.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if !crypto.CheckPasswordHash(password, *u.PasswordHash) {
		s.logger.Warn("Invalid password attempt", zap.String("userID", u.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if !u.Active() {
		return nil, ErrAccountInactive
	}

	now := s.now()
	if err := s.repo.TouchLastSignIn(ctx, u.ID, now); err != nil {
		// Not critical for the sign-in itself.
		s.logger.Error("Failed to update last sign-in time", zap.Error(err), zap.String("userID", u.ID.String()))
	} else {
		u.LastSignInAt = &now
	}
	return u, nil
}

// Create adds a directory account with a hashed password.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	role := domain.ParseRole(req.Role)
	if !role.Known() {
		return nil, common.ErrBadRequest.WithDetails("Role must be admin, manager or buyer.")
	}
	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Email:        req.Email,
		PasswordHash: &hash,
		DisplayName:  req.DisplayName,
		Role:         role.String(),
		Status:       string(StatusActive),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("Directory user created", zap.String("userID", u.ID.String()), zap.String("role", u.Role))
	return u, nil
}

// LinkFirebase finds the account for a Firebase user, linking by email or
// creating a buyer account on first sight. An existing account is linked by
// email only when the provider has verified that email. Profile fields
// pushed by the provider overwrite the stored ones.
func (s *Service) LinkFirebase(ctx context.Context, identity *domain.Identity, emailVerified bool) (*User, bool, error) {
	u, err := s.repo.FindByFirebaseUID(ctx, identity.ID)
	if err != nil && !isNotFound(err) {
		return nil, false, err
	}
	if u == nil {
		u, err = s.repo.FindByEmail(ctx, identity.Email)
		if err != nil && !isNotFound(err) {
			return nil, false, err
		}
		if u != nil {
			if !emailVerified {
				s.logger.Warn("Refusing to link unverified email", zap.String("userID", u.ID.String()))
				return nil, false, ErrEmailNotVerified
			}
			if u.FirebaseUID != nil && *u.FirebaseUID != identity.ID {
				s.logger.Warn("Account already linked to another Firebase user", zap.String("userID", u.ID.String()))
				return nil, false, ErrAccountLinked
			}
		}
	}

	uid := identity.ID
	if u == nil {
		u = &User{
			Email:        identity.Email,
			DisplayName:  identity.DisplayName,
			FirebaseUID:  &uid,
			Role:         domain.RoleBuyer.String(),
			Status:       string(StatusActive),
			LastSignInAt: identity.Metadata.LastSignInTime,
		}
		if identity.PhotoURL != "" {
			photo := identity.PhotoURL
			u.PhotoURL = &photo
		}
		if err := s.repo.Create(ctx, u); err != nil {
			return nil, false, err
		}
		s.logger.Info("Directory user created from Firebase", zap.String("userID", u.ID.String()))
		return u, true, nil
	}

	u.FirebaseUID = &uid
	if identity.DisplayName != "" {
		u.DisplayName = identity.DisplayName
	}
	if identity.PhotoURL != "" {
		photo := identity.PhotoURL
		u.PhotoURL = &photo
	}
	if identity.Metadata.LastSignInTime != nil {
		u.LastSignInAt = identity.Metadata.LastSignInTime
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, false, err
	}
	return u, false, nil
}

// RoleOf returns the stored role for an email.
func (s *Service) RoleOf(ctx context.Context, email string) (domain.Role, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return domain.RoleUnknown, err
	}
	if !u.Active() {
		return domain.RoleUnknown, ErrAccountInactive
	}
	return domain.ParseRole(u.Role), nil
}

// ProfileOf returns the extended profile for an email.
func (s *Service) ProfileOf(ctx context.Context, email string) (*domain.Profile, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return ToProfile(u), nil
}

// List returns all directory accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// SetRole changes the role of an account.
func (s *Service) SetRole(ctx context.Context, id uuid.UUID, role domain.Role) (*User, error) {
	if !role.Known() {
		return nil, common.ErrBadRequest.WithDetails("Role must be admin, manager or buyer.")
	}
	return s.mutate(ctx, id, func(u *User) { u.Role = role.String() })
}

// SetStatus activates or deactivates an account.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status domain.ProfileStatus) (*User, error) {
	if status != StatusActive && status != StatusInactive {
		return nil, common.ErrBadRequest.WithDetails("Status must be active or inactive.")
	}
	return s.mutate(ctx, id, func(u *User) { u.Status = string(status) })
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(u *User)) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(u)
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("Directory user updated", zap.String("userID", u.ID.String()), zap.String("role", u.Role), zap.String("status", u.Status))
	return u, nil
}

func isNotFound(err error) bool {
	apiErr, ok := common.IsAPIError(err)
	return ok && apiErr.Code == common.ErrNotFound.Code
}
