package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())

	for _, audience := range s.audiences {
		base := routeAuthPrefix + audience.Name

		s.RegisterRouteHandler("POST "+base+routeLoginSuffix,
			ChainMiddleware(s.LoginHandler(audience), s.BaseMiddleware()...))
		s.RegisterRouteHandler("GET "+base+routeCheckSuffix,
			ChainMiddleware(s.CheckHandler(audience), s.BaseMiddleware()...))
		s.RegisterRouteHandler("GET "+base+routeHintSuffix,
			ChainMiddleware(s.HintHandler(audience), s.BaseMiddleware()...))
		s.RegisterRouteHandler("POST "+base+routeLogoutSuffix,
			ChainMiddleware(s.LogoutHandler(audience), s.BaseMiddleware()...))

		// Guarded routes: every request revalidates token + registry.
		guard := s.RequireSession(audience)
		s.RegisterRouteHandler("POST "+base+routeLogoutAll,
			ChainMiddleware(s.LogoutAllHandler(audience), s.BaseMiddleware(guard)...))
		s.RegisterRouteHandler("GET "+base+routeSessions,
			ChainMiddleware(s.SessionsHandler(), s.BaseMiddleware(guard)...))
		s.RegisterRouteHandler("GET "+audience.RoutePrefix+"/api/overview",
			ChainMiddleware(s.OverviewHandler(audience), s.BaseMiddleware(guard)...))
	}
}
