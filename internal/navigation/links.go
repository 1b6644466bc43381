// Package navigation builds the sidebar link set for a role.
package navigation

import (
	"garment_portal_gateway/internal/domain"

	"github.com/gosimple/slug"
)

// Placeholder is shown instead of the sidebar when a role has no links.
const Placeholder = "You do not have access to any dashboard sections."

// Link is one sidebar entry.
type Link struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// DashboardPath is the landing page for role, or "" when it has none.
func DashboardPath(r domain.Role) string {
	switch r {
	case domain.RoleAdmin:
		return "/dashboard/admin"
	case domain.RoleManager:
		return "/dashboard/manager"
	case domain.RoleBuyer:
		return "/dashboard/buyer"
	case domain.RoleUnknown:
		return ""
	}
	return ""
}

// Links returns the ordered sidebar links for r. Unknown roles get none.
func Links(r domain.Role) []Link {
	var titles []string
	switch r {
	case domain.RoleAdmin:
		titles = []string{"Users", "Orders", "Products", "Reports", "Profile"}
	case domain.RoleManager:
		titles = []string{"Production", "Inventory", "Orders", "Profile"}
	case domain.RoleBuyer:
		titles = []string{"Catalog", "Orders", "Profile"}
	case domain.RoleUnknown:
		return []Link{}
	default:
		return []Link{}
	}

	base := DashboardPath(r)
	links := make([]Link, 0, len(titles)+1)
	links = append(links, Link{Path: base, Title: "Overview", Slug: "overview"})
	for _, title := range titles {
		s := slug.Make(title)
		links = append(links, Link{Path: base + "/" + s, Title: title, Slug: s})
	}
	return links
}
