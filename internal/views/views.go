// Package views holds the gateway's HTML pages.
package views

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Template names.
const (
	Home      = "home.html"
	About     = "about.html"
	Contact   = "contact.html"
	Login     = "login.html"
	Register  = "register.html"
	Dashboard = "dashboard.html"
	Forbidden = "forbidden.html"
	Loading   = "loading.html"
	Recovery  = "recovery.html"
	NotFound  = "not_found.html"
)

// Load parses every page template.
func Load() (*template.Template, error) {
	return template.New("").ParseFS(files, "templates/*.html")
}

// MustLoad is Load for program start-up.
func MustLoad() *template.Template {
	return template.Must(Load())
}
