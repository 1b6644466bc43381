// Package session holds the per-client session context: the Session Store
// plus the role and profile state derived from its identity.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/platform/observe"

	"go.uber.org/zap"
)

// StoreState is what subscribers and the guard see of the store.
type StoreState struct {
	Principal *domain.Principal
	// Loading is true only while an existing session is being restored.
	Loading bool
}

// Identity returns the signed-in identity or nil.
func (s StoreState) Identity() *domain.Identity {
	if s.Principal == nil {
		return nil
	}
	return s.Principal.Identity
}

// Listener is called after every identity change with the new principal
// (nil after sign-out).
type Listener func(p *domain.Principal)

// Store is the single source of truth for the identity of one client.
// Sign-in, sign-out and restoration are serialized.
type Store struct {
	provider IdentityProvider
	logger   *zap.Logger
	state    *observe.Value[StoreState]

	op      sync.Mutex
	pending atomic.Bool

	subsMu sync.Mutex
	subs   map[int]Listener
	nextID int
}

func NewStore(provider IdentityProvider, logger *zap.Logger) *Store {
	return &Store{
		provider: provider,
		logger:   logger.Named("SessionStore"),
		state:    observe.NewValue(StoreState{}),
		subs:     make(map[int]Listener),
	}
}

// SignIn authenticates with email and password. The identity is only
// replaced once the provider has answered.
func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	return s.signIn(ctx, func(ctx context.Context) (*domain.Principal, error) {
		return s.provider.SignIn(ctx, email, password)
	})
}

// SignInWithToken authenticates with a client-SDK token when the provider
// supports it.
func (s *Store) SignInWithToken(ctx context.Context, token string) (*domain.Identity, error) {
	tp, ok := s.provider.(TokenProvider)
	if !ok {
		return nil, domain.NewAuthError(domain.AuthUnsupported, "token sign-in is not enabled", nil)
	}
	return s.signIn(ctx, func(ctx context.Context) (*domain.Principal, error) {
		return tp.SignInWithToken(ctx, token)
	})
}

func (s *Store) signIn(ctx context.Context, call func(context.Context) (*domain.Principal, error)) (*domain.Identity, error) {
	if !s.pending.CompareAndSwap(false, true) {
		return nil, domain.NewAuthError(domain.AuthSignInPending, "a sign-in is already in progress", nil)
	}
	defer s.pending.Store(false)

	s.op.Lock()
	defer s.op.Unlock()

	p, err := call(ctx)
	if err != nil {
		var ae *domain.AuthError
		if !errors.As(err, &ae) {
			err = domain.NewAuthError(domain.AuthProviderFailure, "sign-in failed", err)
		}
		s.logger.Info("Sign-in failed", zap.Error(err))
		return nil, err
	}
	if p == nil || p.Identity == nil {
		return nil, domain.NewAuthError(domain.AuthProviderFailure, "identity provider returned no identity", nil)
	}

	s.set(StoreState{Principal: clonePrincipal(p)})
	s.logger.Info("Signed in", zap.String("identityID", p.Identity.ID))
	return p.Identity.Clone(), nil
}

// SignOut clears the identity. Calling it while signed out is a no-op.
// A provider failure is logged; the local session is cleared regardless.
func (s *Store) SignOut(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	cur := s.state.Get().Principal
	if cur == nil {
		return nil
	}
	if err := s.provider.SignOut(ctx, *cur); err != nil {
		s.logger.Warn("Identity provider sign-out failed", zap.Error(err), zap.String("identityID", cur.Identity.ID))
	}
	s.set(StoreState{})
	s.logger.Info("Signed out", zap.String("identityID", cur.Identity.ID))
	return nil
}

// Restore re-establishes a session from a principal recovered out of band
// (the session cookie). Loading is true while it runs. Providers that can
// refresh the identity are asked to, and a rejection leaves the store
// signed out.
func (s *Store) Restore(ctx context.Context, p *domain.Principal) {
	s.op.Lock()
	defer s.op.Unlock()

	if p == nil || p.Identity == nil {
		s.set(StoreState{})
		return
	}
	s.state.Update(func(cur StoreState) (StoreState, bool) {
		cur.Loading = true
		return cur, true
	})

	restored := clonePrincipal(p)
	if r, ok := s.provider.(Refresher); ok {
		fresh, err := r.Refresh(ctx, *restored)
		if err != nil {
			s.logger.Warn("Session restoration rejected", zap.Error(err), zap.String("identityID", p.Identity.ID))
			s.set(StoreState{})
			return
		}
		restored = clonePrincipal(fresh)
	}
	s.set(StoreState{Principal: restored})
	s.logger.Debug("Session restored", zap.String("identityID", restored.Identity.ID))
}

// ApplyProviderUpdate applies provider-pushed changes (display name, photo)
// to the current identity. Updates for a different identity are ignored.
func (s *Store) ApplyProviderUpdate(identity *domain.Identity) bool {
	s.op.Lock()
	defer s.op.Unlock()

	cur := s.state.Get()
	if cur.Principal == nil || identity == nil || cur.Principal.Key() != identity.Key() {
		return false
	}
	next := &domain.Principal{Identity: identity.Clone(), AccessToken: cur.Principal.AccessToken}
	s.set(StoreState{Principal: next, Loading: cur.Loading})
	return true
}

// set must be called with s.op held.
func (s *Store) set(next StoreState) {
	s.state.Set(next)

	s.subsMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.subsMu.Unlock()

	if next.Loading {
		return
	}
	for _, l := range listeners {
		l(clonePrincipal(next.Principal))
	}
}

// Subscribe registers l for identity changes and returns its unsubscribe func.
func (s *Store) Subscribe(l Listener) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = l
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

// Snapshot returns the current store state.
func (s *Store) Snapshot() StoreState {
	st := s.state.Get()
	st.Principal = clonePrincipal(st.Principal)
	return st
}

// Identity returns the signed-in identity or nil.
func (s *Store) Identity() *domain.Identity {
	return s.Snapshot().Identity()
}

// Loading reports whether restoration is in progress.
func (s *Store) Loading() bool {
	return s.state.Get().Loading
}

// Wait blocks until restoration is done or ctx ends.
func (s *Store) Wait(ctx context.Context) StoreState {
	st := s.state.WaitUntil(ctx, func(st StoreState) bool { return !st.Loading })
	st.Principal = clonePrincipal(st.Principal)
	return st
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	if p == nil {
		return nil
	}
	return &domain.Principal{Identity: p.Identity.Clone(), AccessToken: p.AccessToken}
}
