package server

import (
	"github.com/odrpress/go-session-server/principals"
)

// Audience configures one cookie-carrying consumer of the auth core: the
// admin back-office or the client dashboard. Audiences are configuration,
// not separate code paths; every audience funnels through the same guard.
type Audience struct {
	Name             string                // Route segment: /auth/{name}/...
	CookieName       string                // e.g. admin_token, client_token
	RoutePrefix      string                // Protected prefix guarded for this audience
	LoginPath        string                // Redirect target for unauthenticated requests
	UnauthorizedPath string                // Redirect target for wrong-role requests (distinct from login)
	Roles            []principals.RoleType // Role set permitted past the guard
}

// DefaultAudiences returns the two audiences the dashboard ships with.
func DefaultAudiences() []Audience {
	return []Audience{
		{
			Name:             "admin",
			CookieName:       "admin_token",
			RoutePrefix:      "/admin",
			LoginPath:        "/admin/login",
			UnauthorizedPath: "/admin/unauthorized",
			Roles:            []principals.RoleType{principals.RoleAdmin, principals.RoleManager},
		},
		{
			Name:             "client",
			CookieName:       "client_token",
			RoutePrefix:      "/client",
			LoginPath:        "/client/login",
			UnauthorizedPath: "/client/unauthorized",
			Roles:            []principals.RoleType{principals.RoleClient},
		},
	}
}
