package session

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"garment_portal_gateway/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTokenService(t *testing.T, secret string) *TokenService {
	t.Helper()
	s, err := NewTokenService(&config.Config{SessionSecret: secret, SessionTTL: time.Hour}, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestTokenService_RoundTrip(t *testing.T) {
	s := newTokenService(t, "test-secret")

	token, expiresAt, err := s.Issue("sess-1", adaPrincipal())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID())
	p := claims.Principal()
	require.NotNil(t, p)
	assert.Equal(t, "u1", p.Identity.ID)
	assert.Equal(t, "tok", p.AccessToken)
}

func TestTokenService_SignedOutSession(t *testing.T) {
	s := newTokenService(t, "test-secret")
	token, _, err := s.Issue("sess-2", nil)
	require.NoError(t, err)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Nil(t, claims.Principal())
}

func TestTokenService_Rejects(t *testing.T) {
	s := newTokenService(t, "test-secret")
	other := newTokenService(t, "other-secret")

	token, _, err := other.Issue("sess-1", adaPrincipal())
	require.NoError(t, err)
	_, err = s.Validate(token)
	assert.Error(t, err, "foreign signature")

	_, err = s.Validate("not-a-jwt")
	assert.Error(t, err)

	expired := newTokenService(t, "test-secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.Issue("sess-1", nil)
	require.NoError(t, err)
	_, err = s.Validate(token)
	assert.Error(t, err, "expired")
}

func TestTokenService_SealsAccessToken(t *testing.T) {
	s := newTokenService(t, "test-secret")
	p := adaPrincipal()
	p.AccessToken = "backend-access-token-123"

	token, _, err := s.Issue("sess-1", p)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "backend-access-token-123")

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "backend-access-token-123", claims.Principal().AccessToken)

	_, err = s.open("sess-2", claims.SealedToken)
	assert.Error(t, err, "sealed for another session")

	_, err = newTokenService(t, "other-secret").open("sess-1", claims.SealedToken)
	assert.Error(t, err, "sealed under another secret")
}
