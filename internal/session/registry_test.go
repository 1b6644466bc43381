package session

import (
	"context"
	"testing"
	"time"

	"garment_portal_gateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry(time.Minute, newTestDeps(new(MockProvider), &countingLookup{}, &staticFetcher{}))
	defer r.Close()

	sc := r.Create()
	require.NotEmpty(t, sc.ID)

	got, ok := r.Get(sc.ID)
	require.True(t, ok)
	assert.Same(t, sc, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_AdoptRestores(t *testing.T) {
	r := NewRegistry(time.Minute, newTestDeps(new(MockProvider), &countingLookup{role: domain.RoleAdmin}, &staticFetcher{}))
	defer r.Close()

	sc := r.Adopt("restored-id", adaPrincipal())
	a := sc.Settle(settleCtx(t))
	assert.False(t, a.SessionLoading)
	require.NotNil(t, a.Identity)
	assert.Equal(t, "u1", a.Identity.ID)
	assert.Equal(t, domain.RoleAdmin, a.Role)

	again := r.Adopt("restored-id", adaPrincipal())
	assert.Same(t, sc, again)
}

func TestRegistry_SweepTearsDownExpired(t *testing.T) {
	provider := new(MockProvider)
	provider.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(adaPrincipal(), nil)
	signedOut := make(chan struct{})
	provider.On("SignOut", mock.Anything, mock.Anything).Run(func(mock.Arguments) { close(signedOut) }).Return(nil).Once()

	r := NewRegistry(20*time.Millisecond, newTestDeps(provider, &countingLookup{role: domain.RoleBuyer}, &staticFetcher{}))
	defer r.Close()

	sc := r.Create()
	_, err := sc.Store.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, r.Sweep())

	select {
	case <-signedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("expired session was not torn down")
	}
	_, ok := r.Get(sc.ID)
	assert.False(t, ok)
}

func TestRegistry_RevokeBlocksAdoption(t *testing.T) {
	r := NewRegistry(time.Minute, newTestDeps(new(MockProvider), &countingLookup{}, &staticFetcher{}))
	defer r.Close()

	sc := r.Create()
	assert.False(t, r.Revoked(sc.ID))

	r.Revoke(sc.ID)
	assert.True(t, r.Revoked(sc.ID))
	_, ok := r.Get(sc.ID)
	assert.False(t, ok)

	other := r.Create()
	assert.False(t, r.Revoked(other.ID))
}

func TestRevocations_ExpireAfterDeadline(t *testing.T) {
	rv := NewRevocations()

	rv.Revoke("gone", time.Now().Add(-time.Second))
	assert.False(t, rv.Revoked("gone"))

	rv.Revoke("short", time.Now().Add(20*time.Millisecond))
	assert.True(t, rv.Revoked("short"))

	time.Sleep(40 * time.Millisecond)
	assert.False(t, rv.Revoked("short"))
	rv.Prune()
	assert.Equal(t, 0, rv.Len())
}
