package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// SetSessionCookie writes the audience's HTTP-only session cookie. Max-Age
// matches the token TTL; Secure is set outside development.
func (s *Server) SetSessionCookie(w http.ResponseWriter, audience Audience, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     audience.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie expires the audience's session cookie.
func (s *Server) ClearSessionCookie(w http.ResponseWriter, audience Audience) {
	http.SetCookie(w, &http.Cookie{
		Name:     audience.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
