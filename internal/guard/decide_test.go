package guard

import (
	"net/url"
	"testing"

	"garment_portal_gateway/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ada = &domain.Identity{ID: "u1", Email: "ada@example.com"}

func allowedSets() [][]domain.Role {
	return [][]domain.Role{
		nil,
		{domain.RoleAdmin},
		{domain.RoleAdmin, domain.RoleManager},
		{domain.RoleBuyer},
		{domain.RoleAdmin, domain.RoleManager, domain.RoleBuyer},
	}
}

func allRoles() []domain.Role {
	return append([]domain.Role{domain.RoleUnknown}, domain.AllRoles()...)
}

func TestDecide_Properties(t *testing.T) {
	for _, identity := range []*domain.Identity{nil, ada} {
		for _, sessionLoading := range []bool{false, true} {
			for _, roleLoading := range []bool{false, true} {
				for _, role := range allRoles() {
					for _, allowed := range allowedSets() {
						in := Input{
							SessionLoading: sessionLoading,
							Identity:       identity,
							RoleLoading:    roleLoading,
							Role:           role,
							Allowed:        allowed,
							RequestedPath:  "/dashboard/admin/users",
						}
						d := Decide(in)

						if sessionLoading || roleLoading {
							assert.Equal(t, Pending, d.State, "%+v", in)
							continue
						}
						if identity == nil {
							assert.Equal(t, Unauthenticated, d.State, "%+v", in)
							continue
						}
						member := false
						for _, a := range allowed {
							member = member || a == role
						}
						if member && role != domain.RoleUnknown {
							assert.Equal(t, Authorized, d.State, "%+v", in)
						} else {
							assert.Equal(t, Unauthorized, d.State, "%+v", in)
						}
					}
				}
			}
		}
	}
}

func TestDecide_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want State
	}{
		{
			name: "admin allowed into admin or manager route",
			in:   Input{Identity: ada, Role: domain.RoleAdmin, Allowed: []domain.Role{domain.RoleAdmin, domain.RoleManager}},
			want: Authorized,
		},
		{
			name: "buyer denied admin route",
			in:   Input{Identity: ada, Role: domain.RoleBuyer, Allowed: []domain.Role{domain.RoleAdmin}},
			want: Unauthorized,
		},
		{
			name: "no hierarchy: admin denied buyer route",
			in:   Input{Identity: ada, Role: domain.RoleAdmin, Allowed: []domain.Role{domain.RoleBuyer}},
			want: Unauthorized,
		},
		{
			name: "failed role resolution fails closed",
			in:   Input{Identity: ada, Role: domain.RoleUnknown, Allowed: []domain.Role{domain.RoleAdmin, domain.RoleUnknown}},
			want: Unauthorized,
		},
		{
			name: "role still loading",
			in:   Input{Identity: ada, RoleLoading: true, Role: domain.RoleAdmin, Allowed: []domain.Role{domain.RoleAdmin}},
			want: Pending,
		},
		{
			name: "session restoring without identity yet",
			in:   Input{SessionLoading: true, Allowed: []domain.Role{domain.RoleAdmin}},
			want: Pending,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.in).State)
		})
	}
}

func TestDecide_UnauthenticatedRedirectKeepsPath(t *testing.T) {
	d := Decide(Input{RequestedPath: "/dashboard/buyer/orders?page=2", Allowed: []domain.Role{domain.RoleBuyer}})
	require.Equal(t, Unauthenticated, d.State)
	assert.Equal(t, "/dashboard/buyer/orders?page=2", d.From)

	u, err := url.Parse(d.RedirectTo)
	require.NoError(t, err)
	assert.Equal(t, "/login", u.Path)
	assert.Equal(t, "/dashboard/buyer/orders?page=2", u.Query().Get("from"))
}

func TestLoginURL_Empty(t *testing.T) {
	assert.Equal(t, "/login", LoginURL(""))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "PENDING", Pending.String())
	assert.Equal(t, "UNAUTHENTICATED", Unauthenticated.String())
	assert.Equal(t, "UNAUTHORIZED", Unauthorized.String())
	assert.Equal(t, "AUTHORIZED", Authorized.String())
}
