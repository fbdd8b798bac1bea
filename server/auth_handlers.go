package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/odrpress/go-session-server/auth"
	apperrors "github.com/odrpress/go-session-server/internal/errors"
	"github.com/odrpress/go-session-server/principals"
	"github.com/odrpress/go-session-server/sessionhint"
	"github.com/odrpress/go-session-server/sessions"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    string              `json:"id"`
	Email string              `json:"email"`
	Name  string              `json:"name"`
	Role  principals.RoleType `json:"role"`
}

func toUserPayload(p *principals.Principal) userPayload {
	return userPayload{
		ID:    p.ID.String(),
		Email: p.Email,
		Name:  p.Name,
		Role:  p.Role,
	}
}

// LoginHandler processes POST /auth/{audience}/login. The response never
// distinguishes an unknown email from a wrong password.
func (s *Server) LoginHandler(audience Audience) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.setSecurityHeaders(w)

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "email and password are required")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeJSONError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		result, err := s.auth.Login(r.Context(), audience.Name, audience.Roles, req.Email, req.Password)
		if err != nil {
			switch {
			case apperrors.Is(err, apperrors.ErrMissingFields):
				writeJSONError(w, http.StatusBadRequest, "email and password are required")
			case apperrors.Is(err, auth.InvalidCredentialsErr):
				writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
			case apperrors.Is(err, auth.AccountUnavailableErr):
				writeJSONError(w, http.StatusForbidden, "account unavailable")
			default:
				log.Err(err).Str("audience", audience.Name).Msg("login failed")
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		s.SetSessionCookie(w, audience, result.Token, result.Claims.ExpiresAt.Sub(result.Claims.IssuedAt))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user": toUserPayload(result.Principal),
		})
	}
}

// CheckHandler is the whoami endpoint: full guard validation via the
// registry, JSON 401 instead of a redirect. A successful check refreshes
// the client-side session hint.
func (s *Server) CheckHandler(audience Audience) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.setSecurityHeaders(w)

		cookie, err := r.Cookie(audience.CookieName)
		if err != nil || cookie.Value == "" {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		claims, session, err := s.auth.Authorize(r.Context(), cookie.Value, audience.Roles)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		if err := s.auth.Touch(r.Context(), session.ID); err != nil {
			log.Warn().Err(err).Str("session", session.ID.String()).Msg("session touch failed")
		}

		if err := s.hints.Put(r.Context(), sessions.TokenRef(cookie.Value), sessionhint.Hint{
			Role:      claims.Role,
			ExpiresAt: session.ExpiresAt,
			CachedAt:  time.Now(),
		}); err != nil {
			log.Warn().Err(err).Msg("session hint refresh failed")
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user": userPayload{
				ID:    claims.SubjectID.String(),
				Email: claims.Email,
				Role:  claims.Role,
			},
			"session": map[string]interface{}{
				"id":         session.ID.String(),
				"expires_at": session.ExpiresAt,
			},
		})
	}
}

// HintHandler serves the cached, non-authoritative session mirror. Clients
// use it only to decide whether to render a loading state before the first
// CheckHandler round trip; it never substitutes for one. Stale or missing
// hints answer 204, and a stale hint is cleared so the next read starts
// from logged-out.
func (s *Server) HintHandler(audience Audience) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.setSecurityHeaders(w)

		cookie, err := r.Cookie(audience.CookieName)
		if err != nil || cookie.Value == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		ref := sessions.TokenRef(cookie.Value)
		hint, err := s.hints.Get(r.Context(), ref)
		if err != nil {
			log.Warn().Err(err).Msg("session hint lookup failed")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if !hint.Fresh(time.Now(), s.config.GetHintTTL()) {
			if hint != nil {
				if err := s.hints.Clear(r.Context(), ref); err != nil {
					log.Warn().Err(err).Msg("session hint clear failed")
				}
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"role":          hint.Role,
			"expires_at":    hint.ExpiresAt,
			"authoritative": false,
		})
	}
}

// LogoutHandler revokes the session server-side, clears the cookie, and
// clears the hint. Idempotent: logging out twice is a no-op.
func (s *Server) LogoutHandler(audience Audience) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.setSecurityHeaders(w)

		cookie, err := r.Cookie(audience.CookieName)
		if err != nil || cookie.Value == "" {
			s.ClearSessionCookie(w, audience)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// On a revocation failure the cookie stays so a retry can still
		// reach the live session.
		if _, err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			log.Err(err).Str("audience", audience.Name).Msg("logout revocation failed")
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if err := s.hints.Clear(r.Context(), sessions.TokenRef(cookie.Value)); err != nil {
			log.Warn().Err(err).Msg("session hint clear failed")
		}

		s.ClearSessionCookie(w, audience)
		w.WriteHeader(http.StatusNoContent)
	}
}

// LogoutAllHandler revokes every live session of the authenticated
// principal. Runs behind the guard.
func (s *Server) LogoutAllHandler(audience Audience) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		if err := s.auth.LogoutAll(r.Context(), claims.SubjectID); err != nil {
			log.Err(err).Str("subject", claims.SubjectID.String()).Msg("logout all failed")
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		s.ClearSessionCookie(w, audience)
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionsHandler lists the authenticated principal's sessions, newest
// first. Runs behind the guard.
func (s *Server) SessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		list, err := s.auth.ListSessions(r.Context(), claims.SubjectID, 20, 0)
		if err != nil {
			log.Err(err).Msg("list sessions failed")
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		items := make([]map[string]interface{}, 0, len(list))
		for _, session := range list {
			items = append(items, map[string]interface{}{
				"id":            session.ID.String(),
				"issued_at":     session.IssuedAt,
				"expires_at":    session.ExpiresAt,
				"last_activity": session.LastActivity,
				"revoked":       session.RevokedAt != nil,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": items})
	}
}
