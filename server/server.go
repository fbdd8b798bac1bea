package server

import (
	"fmt"
	"net/http"

	"github.com/odrpress/go-session-server/auth"
	"github.com/odrpress/go-session-server/internal/config"
	"github.com/odrpress/go-session-server/sessionhint"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string // Environment (e.g., "DEV", "production")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	repos     auth.Repos
	hints     sessionhint.Store
	audiences []Audience
}

func New(cfg config.Config, authService *auth.Service, repos auth.Repos, hints sessionhint.Store, audiences []Audience) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}
	if hints == nil {
		return nil, fmt.Errorf("[Server New] session hint store is required")
	}
	if len(audiences) == 0 {
		audiences = DefaultAudiences()
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		auth:      authService,
		repos:     repos,
		hints:     hints,
		audiences: audiences,
	}
	s.env = cfg.GetEnv()

	if err := s.InitialiseSystem(cfg); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Debug().Str("route", route).Msg("registered")
	}
}
