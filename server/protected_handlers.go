package server

import (
	"net/http"
)

// OverviewHandler is a representative protected dashboard endpoint. The
// real dashboard widgets live elsewhere; this exists to sit behind the
// guard and echo who got through it.
func (s *Server) OverviewHandler(audience Audience) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		session, _ := SessionFromContext(r.Context())

		payload := map[string]interface{}{
			"audience": audience.Name,
			"user": userPayload{
				ID:    claims.SubjectID.String(),
				Email: claims.Email,
				Role:  claims.Role,
			},
		}
		if session != nil {
			payload["session_expires_at"] = session.ExpiresAt
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
