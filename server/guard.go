package server

import (
	"context"
	"net/http"

	"github.com/odrpress/go-session-server/auth"
	apperrors "github.com/odrpress/go-session-server/internal/errors"
	"github.com/odrpress/go-session-server/sessions"
	"github.com/odrpress/go-session-server/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified token claims
	ContextKeyClaims ContextKey = "claims"
	// ContextKeySession stores the validated session record
	ContextKeySession ContextKey = "session"
)

// ClaimsFromContext returns the claims the guard injected, if any.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok
}

// SessionFromContext returns the session the guard injected, if any.
func SessionFromContext(ctx context.Context) (*sessions.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(*sessions.Session)
	return session, ok
}

// RequireSession is the access guard for one audience. Each request walks
// the chain cookie -> token signature/expiry -> session registry -> role
// set; the first failed step denies the request. Missing cookie, bad token,
// and dead session all redirect to the login path; a valid session with the
// wrong role redirects to the distinct unauthorized path. Decisions are
// never cached across requests, so a revocation takes effect on the very
// next one.
func (s *Server) RequireSession(audience Audience) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(audience.CookieName)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, audience.LoginPath, http.StatusSeeOther)
				return
			}

			claims, session, err := s.auth.Authorize(r.Context(), cookie.Value, audience.Roles)
			if err != nil {
				if apperrors.Is(err, auth.RoleNotAllowedErr) {
					http.Redirect(w, r, audience.UnauthorizedPath, http.StatusSeeOther)
					return
				}
				http.Redirect(w, r, audience.LoginPath, http.StatusSeeOther)
				return
			}

			// Best-effort activity refresh; a failed touch never denies a
			// request that already passed the registry check.
			if err := s.auth.Touch(r.Context(), session.ID); err != nil {
				log.Warn().Err(err).Str("session", session.ID.String()).Msg("session touch failed")
			}

			s.setSecurityHeaders(w)

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			ctx = context.WithValue(ctx, ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}
