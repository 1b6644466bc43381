package session

import (
	"context"
	"time"

	"garment_portal_gateway/internal/domain"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Registry maps session IDs to client session contexts. Entries expire
// after ttl without access; expired entries are torn down when the cache
// is swept.
type Registry struct {
	cache   *gocache.Cache
	revoked *Revocations
	deps    Dependencies
	ttl    time.Duration
	logger *zap.Logger
}

// NewRegistry creates an empty registry. Expired entries are removed by
// Sweep, which the session sweep job calls on its schedule.
func NewRegistry(ttl time.Duration, deps Dependencies) *Registry {
	r := &Registry{
		cache:   gocache.New(ttl, 0),
		revoked: NewRevocations(),
		deps:    deps,
		ttl:     ttl,
		logger:  deps.Logger.Named("SessionRegistry"),
	}
	r.cache.OnEvicted(func(id string, v interface{}) {
		sc, ok := v.(*Context)
		if !ok {
			return
		}
		r.logger.Debug("Session context evicted", zap.String("sessionID", id))
		go sc.Teardown(context.Background())
	})
	return r
}

// TTL is the idle lifetime of a session.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Create starts a new, signed-out session context.
func (r *Registry) Create() *Context {
	sc := NewContext(uuid.NewString(), r.deps)
	sc.Init()
	r.cache.SetDefault(sc.ID, sc)
	return sc
}

// Get returns the live context for id and extends its lifetime.
func (r *Registry) Get(id string) (*Context, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	sc := v.(*Context)
	r.cache.SetDefault(id, sc)
	return sc, true
}

// Adopt recreates the context for a session the registry no longer holds,
// restoring principal in the background. If another request adopted the
// same id first, that context is returned.
func (r *Registry) Adopt(id string, principal *domain.Principal) *Context {
	sc := NewContext(id, r.deps)
	sc.Init()
	if err := r.cache.Add(id, sc, gocache.DefaultExpiration); err != nil {
		sc.Release()
		if existing, ok := r.Get(id); ok {
			return existing
		}
		return r.Adopt(id, principal)
	}

	// Flag loading before returning so callers never see a signed-out
	// context for a session that is about to be restored.
	sc.Store.state.Update(func(cur StoreState) (StoreState, bool) {
		cur.Loading = true
		return cur, true
	})
	go sc.Store.Restore(context.Background(), principal)
	r.logger.Info("Restoring session", zap.String("sessionID", id))
	return sc
}

// Remove tears down and forgets the context for id.
func (r *Registry) Remove(id string) {
	r.cache.Delete(id)
}

// Revoke removes the context for id and refuses to adopt id again for one
// TTL, which outlives every cookie already issued for it.
func (r *Registry) Revoke(id string) {
	r.revoked.Revoke(id, time.Now().Add(r.ttl))
	r.cache.Delete(id)
	r.logger.Info("Session revoked", zap.String("sessionID", id))
}

// Revoked reports whether id was signed out.
func (r *Registry) Revoked(id string) bool {
	return r.revoked.Revoked(id)
}

// Sweep evicts expired sessions and returns how many remain.
func (r *Registry) Sweep() int {
	r.cache.DeleteExpired()
	r.revoked.Prune()
	return r.cache.ItemCount()
}

// Count returns the number of held sessions, expired ones included.
func (r *Registry) Count() int {
	return r.cache.ItemCount()
}

// Close releases every context without signing out at the provider, so
// the sessions can be restored after a restart.
func (r *Registry) Close() {
	items := r.cache.Items()
	r.cache.Flush()
	for _, it := range items {
		if sc, ok := it.Object.(*Context); ok {
			sc.Release()
		}
	}
}
