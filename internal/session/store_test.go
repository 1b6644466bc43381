package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"garment_portal_gateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	args := m.Called(ctx, email, password)
	p, _ := args.Get(0).(*domain.Principal)
	return p, args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context, p domain.Principal) error {
	return m.Called(ctx, p).Error(0)
}

type refreshingProvider struct {
	MockProvider
}

func (r *refreshingProvider) Refresh(ctx context.Context, p domain.Principal) (*domain.Principal, error) {
	args := r.Called(ctx, p)
	out, _ := args.Get(0).(*domain.Principal)
	return out, args.Error(1)
}

func adaPrincipal() *domain.Principal {
	return &domain.Principal{
		Identity:    &domain.Identity{ID: "u1", Email: "ada@example.com", DisplayName: "Ada"},
		AccessToken: "tok",
	}
}

func TestStore_SignInAndOut(t *testing.T) {
	provider := new(MockProvider)
	provider.On("SignIn", mock.Anything, "ada@example.com", "pw").Return(adaPrincipal(), nil)
	provider.On("SignOut", mock.Anything, mock.Anything).Return(nil).Once()

	s := NewStore(provider, zap.NewNop())
	var seen []*domain.Principal
	unsubscribe := s.Subscribe(func(p *domain.Principal) { seen = append(seen, p) })
	defer unsubscribe()

	identity, err := s.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, "u1", s.Identity().ID)
	assert.False(t, s.Loading())

	require.NoError(t, s.SignOut(context.Background()))
	assert.Nil(t, s.Identity())

	require.Len(t, seen, 2)
	assert.Equal(t, "u1", seen[0].Identity.ID)
	assert.Nil(t, seen[1])
	provider.AssertExpectations(t)
}

func TestStore_SignOutIsIdempotent(t *testing.T) {
	provider := new(MockProvider)
	provider.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(adaPrincipal(), nil)
	provider.On("SignOut", mock.Anything, mock.Anything).Return(nil).Once()

	s := NewStore(provider, zap.NewNop())
	_, err := s.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	assert.NoError(t, s.SignOut(context.Background()))
	assert.Nil(t, s.Identity())
	assert.NoError(t, s.SignOut(context.Background()))
	assert.Nil(t, s.Identity())
	provider.AssertNumberOfCalls(t, "SignOut", 1)
}

func TestStore_SignOutClearsEvenIfProviderFails(t *testing.T) {
	provider := new(MockProvider)
	provider.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(adaPrincipal(), nil)
	provider.On("SignOut", mock.Anything, mock.Anything).Return(errors.New("revoke failed"))

	s := NewStore(provider, zap.NewNop())
	_, err := s.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	assert.NoError(t, s.SignOut(context.Background()))
	assert.Nil(t, s.Identity())
}

func TestStore_SignInFailureKeepsIdentity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind domain.AuthErrorKind
	}{
		{name: "invalid credentials", err: domain.NewAuthError(domain.AuthInvalidCredentials, "bad", nil), wantKind: domain.AuthInvalidCredentials},
		{name: "untyped provider error", err: errors.New("boom"), wantKind: domain.AuthProviderFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(MockProvider)
			provider.On("SignIn", mock.Anything, "ada@example.com", "good").Return(adaPrincipal(), nil)
			provider.On("SignIn", mock.Anything, "ada@example.com", "bad").Return(nil, tt.err)

			s := NewStore(provider, zap.NewNop())
			_, err := s.SignIn(context.Background(), "ada@example.com", "good")
			require.NoError(t, err)

			_, err = s.SignIn(context.Background(), "ada@example.com", "bad")
			require.Error(t, err)
			assert.True(t, domain.IsAuthKind(err, tt.wantKind))
			assert.Equal(t, "u1", s.Identity().ID)
		})
	}
}

func TestStore_ConcurrentSignInIsRejected(t *testing.T) {
	release := make(chan struct{})
	provider := new(MockProvider)
	provider.On("SignIn", mock.Anything, "ada@example.com", "pw").
		Run(func(mock.Arguments) { <-release }).
		Return(adaPrincipal(), nil).Once()

	s := NewStore(provider, zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = s.SignIn(context.Background(), "ada@example.com", "pw")
	}()

	require.Eventually(t, func() bool { return s.pending.Load() }, time.Second, time.Millisecond)

	_, err := s.SignIn(context.Background(), "ada@example.com", "pw")
	assert.True(t, domain.IsAuthKind(err, domain.AuthSignInPending))

	close(release)
	wg.Wait()
	assert.NoError(t, firstErr)
	assert.Equal(t, "u1", s.Identity().ID)
	provider.AssertNumberOfCalls(t, "SignIn", 1)
}

func TestStore_TokenSignInUnsupported(t *testing.T) {
	s := NewStore(new(MockProvider), zap.NewNop())
	_, err := s.SignInWithToken(context.Background(), "id-token")
	assert.True(t, domain.IsAuthKind(err, domain.AuthUnsupported))
}

func TestStore_Restore(t *testing.T) {
	t.Run("without refresher", func(t *testing.T) {
		s := NewStore(new(MockProvider), zap.NewNop())
		s.Restore(context.Background(), adaPrincipal())
		st := s.Snapshot()
		assert.False(t, st.Loading)
		assert.Equal(t, "u1", st.Identity().ID)
		assert.Equal(t, "tok", st.Principal.AccessToken)
	})

	t.Run("refresher rejects", func(t *testing.T) {
		provider := new(refreshingProvider)
		provider.On("Refresh", mock.Anything, mock.Anything).Return(nil, errors.New("user deleted"))

		s := NewStore(provider, zap.NewNop())
		s.Restore(context.Background(), adaPrincipal())
		assert.Nil(t, s.Identity())
		assert.False(t, s.Loading())
	})

	t.Run("loading while refreshing", func(t *testing.T) {
		release := make(chan struct{})
		provider := new(refreshingProvider)
		fresh := adaPrincipal()
		fresh.Identity.PhotoURL = "https://img/new.png"
		provider.On("Refresh", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { <-release }).
			Return(fresh, nil)

		s := NewStore(provider, zap.NewNop())
		done := make(chan struct{})
		go func() {
			s.Restore(context.Background(), adaPrincipal())
			close(done)
		}()

		require.Eventually(t, s.Loading, time.Second, time.Millisecond)
		close(release)
		<-done

		assert.False(t, s.Loading())
		assert.Equal(t, "https://img/new.png", s.Identity().PhotoURL)
	})
}

func TestStore_ApplyProviderUpdate(t *testing.T) {
	provider := new(MockProvider)
	provider.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(adaPrincipal(), nil)
	s := NewStore(provider, zap.NewNop())
	_, err := s.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	var calls int32
	defer s.Subscribe(func(*domain.Principal) { atomic.AddInt32(&calls, 1) })()

	updated := &domain.Identity{ID: "u1", Email: "ada@example.com", DisplayName: "Ada", PhotoURL: "https://img/new.png"}
	assert.True(t, s.ApplyProviderUpdate(updated))
	assert.Equal(t, "https://img/new.png", s.Identity().PhotoURL)

	other := &domain.Identity{ID: "u2", Email: "bob@example.com"}
	assert.False(t, s.ApplyProviderUpdate(other))
	assert.Equal(t, "u1", s.Identity().ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
