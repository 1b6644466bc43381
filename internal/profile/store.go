// Package profile keeps the extended profile of the signed-in identity.
package profile

import (
	"context"
	"errors"
	"sync"

	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/notify"
	"garment_portal_gateway/internal/platform/observe"

	"go.uber.org/zap"
)

// State is the reactive profile state.
type State struct {
	Key     string
	Profile *domain.Profile
	Loading bool
	Err     error
}

// Store fetches the profile on identity change and on explicit refresh.
// Failures leave Profile nil and are not retried.
type Store struct {
	fetcher  Fetcher
	notifier notify.Notifier
	logger   *zap.Logger
	state    *observe.Value[State]

	mu     sync.Mutex
	gen    uint64
	cur    *domain.Principal
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStore(fetcher Fetcher, notifier notify.Notifier, logger *zap.Logger) *Store {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Store{
		fetcher:  fetcher,
		notifier: notifier,
		logger:   logger.Named("ProfileStore"),
		state:    observe.NewValue(State{}),
	}
}

// OnIdentity starts a background fetch when the identity key changes and
// clears the profile when the identity goes away.
func (s *Store) OnIdentity(p *domain.Principal) {
	s.mu.Lock()
	if p == nil || p.Identity == nil {
		s.supersede()
		s.cur = nil
		s.state.Set(State{})
		s.mu.Unlock()
		return
	}
	if s.cur != nil && s.cur.Key() == p.Key() {
		s.cur = &domain.Principal{Identity: p.Identity.Clone(), AccessToken: p.AccessToken}
		s.mu.Unlock()
		return
	}
	ctx, gen, cur := s.begin(context.Background(), p)
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		_, _ = s.run(ctx, gen, cur)
	}()
}

// Fetch refetches the profile for the current identity and waits for it.
func (s *Store) Fetch(ctx context.Context) (*domain.Profile, error) {
	s.mu.Lock()
	if s.cur == nil {
		s.mu.Unlock()
		return nil, domain.ErrNoIdentity
	}
	runCtx, gen, cur := s.begin(ctx, s.cur)
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	return s.run(runCtx, gen, cur)
}

// begin must be called with s.mu held.
func (s *Store) begin(parent context.Context, p *domain.Principal) (context.Context, uint64, *domain.Principal) {
	s.supersede()
	cur := &domain.Principal{Identity: p.Identity.Clone(), AccessToken: p.AccessToken}
	s.cur = cur
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.state.Set(State{Key: cur.Key(), Loading: true})
	return ctx, s.gen, cur
}

// supersede must be called with s.mu held.
func (s *Store) supersede() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Store) run(ctx context.Context, gen uint64, p *domain.Principal) (*domain.Profile, error) {
	prof, err := s.fetcher.FetchProfile(ctx, *p)
	if err != nil {
		var pfe *domain.ProfileFetchError
		if !errors.As(err, &pfe) {
			err = &domain.ProfileFetchError{Message: "profile not available", Err: err}
		}
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("Dropping stale profile result", zap.String("identityID", p.Identity.ID))
		if err == nil {
			err = context.Canceled
		}
		return nil, err
	}
	s.cancel = nil
	if err != nil {
		s.state.Set(State{Key: p.Key(), Err: err})
		s.mu.Unlock()
		s.logger.Error("Profile fetch failed", zap.String("identityID", p.Identity.ID), zap.Error(err))
		s.notifier.Notify(ctx, notify.Error("profile_fetch", failureMessage(err)))
		return nil, err
	}
	s.state.Set(State{Key: p.Key(), Profile: prof})
	s.mu.Unlock()
	return prof, nil
}

func failureMessage(err error) string {
	var pfe *domain.ProfileFetchError
	if errors.As(err, &pfe) && pfe.Err == nil && pfe.Message != "" {
		return pfe.Message
	}
	return "Failed to load your profile."
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	return s.state.Get()
}

// Wait blocks until no fetch is loading or ctx ends.
func (s *Store) Wait(ctx context.Context) State {
	return s.state.WaitUntil(ctx, func(st State) bool { return !st.Loading })
}

// Close cancels any in-flight fetch and waits for it.
func (s *Store) Close() {
	s.mu.Lock()
	s.supersede()
	s.cur = nil
	s.state.Set(State{})
	s.mu.Unlock()
	s.wg.Wait()
}
