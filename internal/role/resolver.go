// Package role resolves the authorization role of the signed-in identity.
package role

import (
	"context"
	"sync"

	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/notify"
	"garment_portal_gateway/internal/platform/observe"

	"go.uber.org/zap"
)

// State is the reactive role state. Role is only authoritative when
// Loading is false and Key matches the current identity.
type State struct {
	Key     string
	Role    domain.Role
	Loading bool
	Err     error
}

// Resolver keeps the role of one client session current. Each identity
// change starts a new generation; results from older generations are
// dropped and their requests cancelled.
type Resolver struct {
	lookup   Lookup
	notifier notify.Notifier
	logger   *zap.Logger
	state    *observe.Value[State]

	mu     sync.Mutex
	gen    uint64
	cur    *domain.Principal
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewResolver creates a resolver with no identity.
func NewResolver(lookup Lookup, notifier notify.Notifier, logger *zap.Logger) *Resolver {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Resolver{
		lookup:   lookup,
		notifier: notifier,
		logger:   logger.Named("RoleResolver"),
		state:    observe.NewValue(State{}),
	}
}

// Resolve performs one lookup. Failures come back as RoleResolutionError.
func (r *Resolver) Resolve(ctx context.Context, p domain.Principal) (domain.Role, error) {
	if p.Identity == nil {
		return domain.RoleUnknown, domain.ErrNoIdentity
	}
	role, err := r.lookup.LookupRole(ctx, p)
	if err != nil {
		return domain.RoleUnknown, &domain.RoleResolutionError{IdentityID: p.Identity.ID, Err: err}
	}
	return role, nil
}

// OnIdentity reacts to an identity change. A nil principal clears the
// role. The same identity key as the current one is a no-op, so provider
// updates and repeated notifications never refetch.
func (r *Resolver) OnIdentity(p *domain.Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p == nil || p.Identity == nil {
		r.supersede()
		r.cur = nil
		r.state.Set(State{})
		return
	}
	if r.cur != nil && r.cur.Key() == p.Key() {
		r.cur = clonePrincipal(p)
		return
	}
	r.start(clonePrincipal(p))
}

// Refresh refetches the role for the current identity.
func (r *Resolver) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur == nil {
		return
	}
	r.start(r.cur)
}

// start must be called with r.mu held.
func (r *Resolver) start(p *domain.Principal) {
	r.supersede()
	r.cur = p
	gen := r.gen
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.state.Set(State{Key: p.Key(), Loading: true})

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		role, err := r.Resolve(ctx, *p)
		r.apply(ctx, gen, p, role, err)
	}()
}

// supersede must be called with r.mu held.
func (r *Resolver) supersede() {
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Resolver) apply(ctx context.Context, gen uint64, p *domain.Principal, role domain.Role, err error) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		r.logger.Debug("Dropping stale role result", zap.String("identityID", p.Identity.ID))
		return
	}
	r.cancel = nil
	if err != nil {
		r.state.Set(State{Key: p.Key(), Role: domain.RoleUnknown, Err: err})
		r.mu.Unlock()
		r.logger.Error("Role resolution failed", zap.String("identityID", p.Identity.ID), zap.Error(err))
		r.notifier.Notify(ctx, notify.Error("role_resolution", "We could not determine your access level. Please try again later."))
		return
	}
	r.state.Set(State{Key: p.Key(), Role: role})
	r.mu.Unlock()
	r.logger.Debug("Role resolved", zap.String("identityID", p.Identity.ID), zap.Stringer("role", role))
}

// Snapshot returns the current state.
func (r *Resolver) Snapshot() State {
	return r.state.Get()
}

// Wait blocks until the role is no longer loading or ctx ends.
func (r *Resolver) Wait(ctx context.Context) State {
	return r.state.WaitUntil(ctx, func(s State) bool { return !s.Loading })
}

// WaitFor blocks until the role for identity key has settled or ctx ends.
func (r *Resolver) WaitFor(ctx context.Context, key string) State {
	return r.state.WaitUntil(ctx, func(s State) bool { return s.Key == key && !s.Loading })
}

// Close cancels any in-flight lookup and waits for it to return.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.supersede()
	r.cur = nil
	r.state.Set(State{})
	r.mu.Unlock()
	r.wg.Wait()
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	return &domain.Principal{Identity: p.Identity.Clone(), AccessToken: p.AccessToken}
}
