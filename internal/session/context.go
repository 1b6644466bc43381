package session

import (
	"context"
	"sync"

	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/notify"
	"garment_portal_gateway/internal/profile"
	"garment_portal_gateway/internal/role"

	"go.uber.org/zap"
)

// Dependencies are the collaborators every client session context shares.
type Dependencies struct {
	Provider             IdentityProvider
	Roles                role.Lookup
	Profiles             profile.Fetcher
	NotificationCapacity int
	Logger               *zap.Logger
}

// Access is the combined view the route guard decides on.
type Access struct {
	SessionLoading bool
	Identity       *domain.Identity
	RoleLoading    bool
	Role           domain.Role
}

// Context is one client's session: the Session Store and everything
// derived from its identity. Init wires the derived stores to identity
// changes; Teardown signs out and releases them.
type Context struct {
	ID      string
	Store   *Store
	Roles   *role.Resolver
	Profile *profile.Store
	Inbox   *notify.Inbox

	logger      *zap.Logger
	unsubscribe func()
	closeOnce   sync.Once
}

// NewContext builds an uninitialised context for session id.
func NewContext(id string, deps Dependencies) *Context {
	logger := deps.Logger.With(zap.String("sessionID", id))
	inbox := notify.NewInbox(deps.NotificationCapacity, logger.Named("Notices"))
	return &Context{
		ID:      id,
		Store:   NewStore(deps.Provider, logger),
		Roles:   role.NewResolver(deps.Roles, inbox, logger),
		Profile: profile.NewStore(deps.Profiles, inbox, logger),
		Inbox:   inbox,
		logger:  logger,
	}
}

// Init subscribes the role resolver and profile store to identity changes.
func (c *Context) Init() {
	c.unsubscribe = c.Store.Subscribe(func(p *domain.Principal) {
		c.Roles.OnIdentity(p)
		c.Profile.OnIdentity(p)
	})
}

// Access returns the current guard inputs. A role that still belongs to a
// previous identity counts as loading.
func (c *Context) Access() Access {
	st := c.Store.Snapshot()
	a := Access{SessionLoading: st.Loading, Identity: st.Identity()}
	if a.Identity == nil {
		return a
	}
	rs := c.Roles.Snapshot()
	if rs.Key != a.Identity.Key() {
		a.RoleLoading = true
		return a
	}
	a.RoleLoading = rs.Loading
	a.Role = rs.Role
	return a
}

// Settle waits until restoration and role resolution are done, or ctx
// ends, and returns the access view at that point.
func (c *Context) Settle(ctx context.Context) Access {
	for {
		st := c.Store.Wait(ctx)
		identity := st.Identity()
		if identity == nil {
			return c.Access()
		}
		c.Roles.WaitFor(ctx, identity.Key())
		a := c.Access()
		if ctx.Err() != nil || (!a.SessionLoading && !a.RoleLoading) {
			return a
		}
	}
}

// Teardown signs the client out and releases the context.
func (c *Context) Teardown(ctx context.Context) {
	if err := c.Store.SignOut(ctx); err != nil {
		c.logger.Warn("Sign-out during teardown failed", zap.Error(err))
	}
	c.Release()
}

// Release stops the derived stores without signing out at the provider.
func (c *Context) Release() {
	c.closeOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.Roles.Close()
		c.Profile.Close()
		c.logger.Debug("Session context released")
	})
}
