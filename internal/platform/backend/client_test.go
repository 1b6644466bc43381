package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(&config.Config{
		BackendBaseURL:  srv.URL,
		BackendAPIToken: "service-token",
		BackendTimeout:  2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestClient_LoginSendsCredentials(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "pw", body["password"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "u1", "email": "ada@example.com", "displayName": "Ada", "token": "user-token",
		})
	}))

	res, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.ID)
	assert.Equal(t, "Ada", res.DisplayName)
	assert.Equal(t, "user-token", res.Token)
}

func TestClient_Unauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))

	_, err := c.Login(context.Background(), "ada@example.com", "nope")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestClient_BearerTokenSelection(t *testing.T) {
	var seen []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(RoleResponse{Role: "manager"})
	}))

	_, err := c.LookupRole(context.Background(), "user-token", "ada@example.com")
	require.NoError(t, err)
	_, err = c.LookupRole(context.Background(), "", "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer user-token", "Bearer service-token"}, seen)
}

func TestClient_FetchProfileEnvelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile", r.URL.Path)
		assert.Equal(t, "ada@example.com", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"name":"Ada","email":"ada@example.com","role":"buyer","status":"active","createdAt":"2024-01-02T03:04:05Z"}}`))
	}))

	env, err := c.FetchProfile(context.Background(), "", "ada@example.com")
	require.NoError(t, err)
	require.True(t, env.Success)
	require.NotNil(t, env.Data)
	assert.Equal(t, domain.RoleBuyer, env.Data.Role)
	assert.Equal(t, domain.ProfileStatusActive, env.Data.Status)
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(&config.Config{BackendBaseURL: "not a url"}, zap.NewNop())
	assert.Error(t, err)
}
