package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		name string
		from string
		want string
	}{
		{name: "empty", from: "", want: DefaultRedirect},
		{name: "local path", from: "/dashboard/admin/users", want: "/dashboard/admin/users"},
		{name: "local path with query", from: "/dashboard/admin/users?x=1#top", want: "/dashboard/admin/users?x=1#top"},
		{name: "relative", from: "dashboard", want: DefaultRedirect},
		{name: "absolute url", from: "https://evil.example.com/", want: DefaultRedirect},
		{name: "scheme relative", from: "//evil.example.com", want: DefaultRedirect},
		{name: "backslash", from: "/\\evil.example.com", want: DefaultRedirect},
		{name: "backslash later", from: "/dashboard\\..\\evil", want: DefaultRedirect},
		{name: "tab", from: "/\t/evil.example.com", want: DefaultRedirect},
		{name: "newline", from: "/\n/evil.example.com", want: DefaultRedirect},
		{name: "crlf", from: "/\r\n/evil.example.com", want: DefaultRedirect},
		{name: "delete", from: "/\x7f/evil.example.com", want: DefaultRedirect},
		{name: "userinfo", from: "/@evil.example.com", want: "/@evil.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeRedirect(tt.from))
		})
	}
}
