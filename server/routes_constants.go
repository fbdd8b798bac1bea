package server

// Route path building blocks. Audience-specific routes are derived from the
// audience name: /auth/{audience}/login etc.
const (
	RouteHealthz = "/healthz"

	routeAuthPrefix   = "/auth/"
	routeLoginSuffix  = "/login"
	routeCheckSuffix  = "/check"
	routeHintSuffix   = "/hint"
	routeLogoutSuffix = "/logout"
	routeLogoutAll    = "/logout/all"
	routeSessions     = "/sessions"
)

const (
	contentTypeJSON = "application/json"
)
