package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"garment_portal_gateway/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func newTestService(t *testing.T) *Service {
	return NewService(NewGORMRepository(newTestDB(t)), zap.NewNop())
}

func TestService_CreateAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserRequest{Email: "Ada@Example.com ", Password: "correct-horse", DisplayName: "Ada", Role: "manager"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.NotEqual(t, uuid.Nil, created.ID)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "ada@example.com", password: "correct-horse"},
		{name: "email is case-insensitive", email: "ADA@example.com", password: "correct-horse"},
		{name: "wrong password", email: "ada@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "bob@example.com", password: "correct-horse", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, u.LastSignInAt)
		})
	}
}

func TestService_CreateDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateUserRequest{Email: "a@example.com", Password: "password1", Role: "buyer"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateUserRequest{Email: "a@example.com", Password: "password2", Role: "buyer"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFLICT")
}

func TestService_InactiveAccountCannotSignIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u, err := svc.Create(ctx, CreateUserRequest{Email: "c@example.com", Password: "password1", Role: "buyer"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, u.ID, domain.ProfileStatusInactive)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "c@example.com", "password1")
	assert.ErrorIs(t, err, ErrAccountInactive)

	_, err = svc.RoleOf(ctx, "c@example.com")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestService_RoleAndProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	u, err := svc.Create(ctx, CreateUserRequest{Email: "m@example.com", Password: "password1", DisplayName: "Mia", Role: "buyer"})
	require.NoError(t, err)

	role, err := svc.RoleOf(ctx, "m@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBuyer, role)

	_, err = svc.SetRole(ctx, u.ID, domain.RoleManager)
	require.NoError(t, err)
	role, err = svc.RoleOf(ctx, "m@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, role)

	_, err = svc.SetRole(ctx, u.ID, domain.RoleUnknown)
	assert.Error(t, err)

	p, err := svc.ProfileOf(ctx, "m@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Mia", p.Name)
	assert.Equal(t, domain.RoleManager, p.Role)
	assert.Equal(t, domain.ProfileStatusActive, p.Status)
}

func TestService_LinkFirebase(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	signedIn := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	identity := &domain.Identity{
		ID: "fb-uid-1", Email: "f@example.com", DisplayName: "Fay", PhotoURL: "https://img/1.png",
		Metadata: domain.IdentityMetadata{LastSignInTime: &signedIn},
	}
	u, created, err := svc.LinkFirebase(ctx, identity, true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "buyer", u.Role)

	identity.PhotoURL = "https://img/2.png"
	u2, created, err := svc.LinkFirebase(ctx, identity, true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, u2.ID)
	require.NotNil(t, u2.PhotoURL)
	assert.Equal(t, "https://img/2.png", *u2.PhotoURL)
}

func TestService_LinkFirebaseByEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	existing, err := svc.Create(ctx, CreateUserRequest{Email: "m@example.com", Password: "secret123", DisplayName: "Mia", Role: "manager"})
	require.NoError(t, err)

	intruder := &domain.Identity{ID: "fb-intruder", Email: "m@example.com"}
	_, _, err = svc.LinkFirebase(ctx, intruder, false)
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	owner := &domain.Identity{ID: "fb-owner", Email: "m@example.com"}
	u, created, err := svc.LinkFirebase(ctx, owner, true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, u.ID)
	assert.Equal(t, "manager", u.Role)

	other := &domain.Identity{ID: "fb-other", Email: "m@example.com"}
	_, _, err = svc.LinkFirebase(ctx, other, true)
	assert.ErrorIs(t, err, ErrAccountLinked)

	// The linked user keeps signing in even without a verified claim.
	u, _, err = svc.LinkFirebase(ctx, owner, false)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, u.ID)
}

func TestService_LinkFirebaseUnverifiedNewUser(t *testing.T) {
	svc := newTestService(t)

	u, created, err := svc.LinkFirebase(context.Background(), &domain.Identity{ID: "fb-new", Email: "new@example.com"}, false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "buyer", u.Role)
}
