package navigation

import (
	"strings"
	"testing"

	"garment_portal_gateway/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestLinks(t *testing.T) {
	tests := []struct {
		name      string
		role      domain.Role
		wantFirst string
		wantPaths []string
	}{
		{
			name:      "admin",
			role:      domain.RoleAdmin,
			wantFirst: "/dashboard/admin",
			wantPaths: []string{"/dashboard/admin", "/dashboard/admin/users", "/dashboard/admin/orders", "/dashboard/admin/products", "/dashboard/admin/reports", "/dashboard/admin/profile"},
		},
		{
			name:      "manager",
			role:      domain.RoleManager,
			wantFirst: "/dashboard/manager",
			wantPaths: []string{"/dashboard/manager", "/dashboard/manager/production", "/dashboard/manager/inventory", "/dashboard/manager/orders", "/dashboard/manager/profile"},
		},
		{
			name:      "buyer",
			role:      domain.RoleBuyer,
			wantFirst: "/dashboard/buyer",
			wantPaths: []string{"/dashboard/buyer", "/dashboard/buyer/catalog", "/dashboard/buyer/orders", "/dashboard/buyer/profile"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := Links(tt.role)
			var paths []string
			for _, l := range links {
				paths = append(paths, l.Path)
				assert.NotEmpty(t, l.Title)
				assert.True(t, strings.HasSuffix(l.Path, l.Slug) || l.Slug == "overview")
			}
			assert.Equal(t, tt.wantPaths, paths)
			assert.Equal(t, tt.wantFirst, DashboardPath(tt.role))
			assert.Equal(t, links, Links(tt.role), "link set must be stable")
		})
	}
}

func TestLinks_UnknownRoleIsEmpty(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Empty(t, Links(domain.RoleUnknown))
		assert.Empty(t, Links(domain.Role(42)))
		assert.Empty(t, Links(domain.ParseRole("superuser")))
	})
	assert.Equal(t, "", DashboardPath(domain.RoleUnknown))
}
