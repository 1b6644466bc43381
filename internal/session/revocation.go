package session

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Revocations remembers signed-out session IDs so their cookies cannot
// restore the session after the registry has forgotten it.
type Revocations struct {
	cache *gocache.Cache
}

// NewRevocations creates an empty revocation list.
func NewRevocations() *Revocations {
	return &Revocations{cache: gocache.New(gocache.NoExpiration, 0)}
}

// Revoke blocks id until the given time. Every cookie for id issued
// before now expires no later than that.
func (r *Revocations) Revoke(id string, until time.Time) {
	d := time.Until(until)
	if d <= 0 {
		return
	}
	r.cache.Set(id, true, d)
}

// Revoked reports whether id has been signed out.
func (r *Revocations) Revoked(id string) bool {
	_, found := r.cache.Get(id)
	return found
}

// Prune drops entries whose cookies have all expired.
func (r *Revocations) Prune() {
	r.cache.DeleteExpired()
}

// Len returns the number of revoked IDs, expired ones included.
func (r *Revocations) Len() int {
	return r.cache.ItemCount()
}
