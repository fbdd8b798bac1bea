package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/odrpress/go-session-server/auth"
	"github.com/odrpress/go-session-server/internal/config"
	"github.com/odrpress/go-session-server/principals"
	principalfakes "github.com/odrpress/go-session-server/principals/repofakes"
	"github.com/odrpress/go-session-server/server"
	"github.com/odrpress/go-session-server/sessionhint"
	"github.com/odrpress/go-session-server/sessionhint/storefakes"
	"github.com/odrpress/go-session-server/sessions"
	sessionfakes "github.com/odrpress/go-session-server/sessions/repofakes"
	"github.com/odrpress/go-session-server/token"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "server-test-signing-secret"
	seedAdminEmail    = "odr@2025"
	seedAdminPassword = "Ppgdas@2025"
	clientEmail       = "observatory@example.com"
	clientPassword    = "Watch4ll@2025"
)

// testConfig satisfies config.Config without touching the environment.
type testConfig struct {
	production   bool
	hintTTL      time.Duration
	seedPassword string
}

func (c *testConfig) GetPort() string    { return "8080" }
func (c *testConfig) GetAppName() string { return "session-server-test" }
func (c *testConfig) GetBaseURL() string { return "http://localhost:8080" }
func (c *testConfig) GetEnv() string {
	if c.production {
		return "production"
	}
	return "TEST"
}
func (c *testConfig) IsProduction() bool              { return c.production }
func (c *testConfig) GetJWTSecret() []byte            { return []byte(testSecret) }
func (c *testConfig) GetSessionTTL() time.Duration    { return 8 * time.Hour }
func (c *testConfig) SlidingSessions() bool           { return false }
func (c *testConfig) GetHintTTL() time.Duration       { return c.hintTTL }
func (c *testConfig) GetBcryptCost() int              { return 4 }
func (c *testConfig) GetSeedAdminEmail() string       { return seedAdminEmail }
func (c *testConfig) GetSeedAdminPassword() string {
	if c.seedPassword != "" {
		return c.seedPassword
	}
	return seedAdminPassword
}
func (c *testConfig) GetSeedAdminName() string        { return "Administrador" }
func (c *testConfig) GetDatabaseURL() string          { return "" }
func (c *testConfig) GetRedisAddr() string            { return "" }
func (c *testConfig) GetRedisPassword() string        { return "" }
func (c *testConfig) GetRedisDB() int                 { return 0 }
func (c *testConfig) GetJanitorInterval() time.Duration { return 10 * time.Minute }

var _ config.Config = (*testConfig)(nil)

type serverFixture struct {
	server        *server.Server
	principalRepo *principalfakes.FakePrincipalRepo
	sessionRepo   *sessionfakes.FakeSessionRegistry
	hints         *storefakes.FakeStore
	config        *testConfig
}

type serverFixtureOption func(*testConfig)

func asProduction() serverFixtureOption {
	return func(c *testConfig) { c.production = true }
}

func setupTestServer(t *testing.T, options ...serverFixtureOption) *serverFixture {
	t.Helper()

	cfg := &testConfig{hintTTL: 5 * time.Minute}
	for _, opt := range options {
		opt(cfg)
	}

	issuer, err := token.NewIssuer(cfg.GetJWTSecret())
	require.NoError(t, err)

	pr := principalfakes.NewFakePrincipalRepo()
	sr := sessionfakes.NewFakeSessionRegistry()
	repos := auth.Repos{Principals: pr, Sessions: sr}

	service, err := auth.NewService(repos, issuer, cfg.GetSessionTTL())
	require.NoError(t, err)

	hints := storefakes.NewFakeStore()

	// server.New seeds the admin principal from the config
	srv, err := server.New(cfg, service, repos, hints, nil)
	require.NoError(t, err)

	f := &serverFixture{
		server:        srv,
		principalRepo: pr,
		sessionRepo:   sr,
		hints:         hints,
		config:        cfg,
	}
	f.createPrincipal(t, clientEmail, clientPassword, principals.RoleClient, principals.StatusActive)
	return f
}

func (f *serverFixture) createPrincipal(t *testing.T, email, password string, role principals.RoleType, status principals.StatusType) {
	t.Helper()
	hash, err := principals.HashPassword(password, 4)
	require.NoError(t, err)
	require.NoError(t, f.principalRepo.Upsert(context.Background(), &principals.Principal{
		Email:        email,
		Name:         "Test Principal",
		PasswordHash: hash,
		Role:         role,
		Status:       status,
		CreatedAt:    time.Now(),
	}))
}

func (f *serverFixture) do(req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	f.server.ServeHTTP(recorder, req)
	return recorder
}

func loginBody(email, password string) *bytes.Buffer {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	return bytes.NewBuffer(body)
}

// login authenticates against /auth/{audience}/login and returns the
// session cookie the server set.
func (f *serverFixture) login(t *testing.T, audience, email, password string) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/auth/%s/login", audience), loginBody(email, password))
	resp := f.do(req)
	require.Equal(t, http.StatusOK, resp.Code)

	for _, cookie := range resp.Result().Cookies() {
		if cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("login response set no session cookie")
	return nil
}

func TestHealthz(t *testing.T) {
	f := setupTestServer(t)

	resp := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestAdminLoginSetsHardenedCookie(t *testing.T) {
	f := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/admin/login", loginBody(seedAdminEmail, seedAdminPassword))
	resp := f.do(req)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, seedAdminEmail, payload.User.Email)
	require.Equal(t, "admin", payload.User.Role)

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	require.Equal(t, "admin_token", cookie.Name)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	require.Equal(t, int((8 * time.Hour).Seconds()), cookie.MaxAge)
	// Not production, so Secure stays off for local development
	require.False(t, cookie.Secure)

	require.Equal(t, "DENY", resp.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", resp.Header().Get("X-Content-Type-Options"))
	require.Empty(t, resp.Header().Get("Strict-Transport-Security"))
}

func TestProductionLoginCookieAndHSTS(t *testing.T) {
	f := setupTestServer(t, asProduction())

	req := httptest.NewRequest(http.MethodPost, "/auth/admin/login", loginBody(seedAdminEmail, seedAdminPassword))
	resp := f.do(req)
	require.Equal(t, http.StatusOK, resp.Code)

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, cookies[0].Secure)
	require.NotEmpty(t, resp.Header().Get("Strict-Transport-Security"))
}

func TestLoginRejectsMalformedRequests(t *testing.T) {
	f := setupTestServer(t)

	resp := f.do(httptest.NewRequest(http.MethodPost, "/auth/admin/login", bytes.NewBufferString("{not json")))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(httptest.NewRequest(http.MethodPost, "/auth/admin/login", loginBody(seedAdminEmail, "")))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := setupTestServer(t)

	unknown := f.do(httptest.NewRequest(http.MethodPost, "/auth/admin/login", loginBody("nobody@example.com", seedAdminPassword)))
	wrongPassword := f.do(httptest.NewRequest(http.MethodPost, "/auth/admin/login", loginBody(seedAdminEmail, "wrong-password")))
	// A client-role principal through the admin audience looks the same
	wrongAudience := f.do(httptest.NewRequest(http.MethodPost, "/auth/admin/login", loginBody(clientEmail, clientPassword)))

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, wrongAudience.Code)
	require.Equal(t, unknown.Body.String(), wrongPassword.Body.String())
	require.Equal(t, unknown.Body.String(), wrongAudience.Body.String())
}

func TestLoginSuspendedAccount(t *testing.T) {
	f := setupTestServer(t)
	f.createPrincipal(t, "suspended@example.com", clientPassword, principals.RoleClient, principals.StatusSuspended)

	resp := f.do(httptest.NewRequest(http.MethodPost, "/auth/client/login", loginBody("suspended@example.com", clientPassword)))
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestLoginStoreFailureAnswersInternalError(t *testing.T) {
	f := setupTestServer(t)
	f.principalRepo.GetByEmailErr = fmt.Errorf("connection refused")

	resp := f.do(httptest.NewRequest(http.MethodPost, "/auth/admin/login", loginBody(seedAdminEmail, seedAdminPassword)))
	require.Equal(t, http.StatusInternalServerError, resp.Code)

	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	// The outage is never dressed up as a credential failure
	require.Equal(t, "internal server error", payload.Error)
}

func TestSeedBootstrapRejectsWeakPassword(t *testing.T) {
	cfg := &testConfig{hintTTL: 5 * time.Minute, seedPassword: "weak"}

	issuer, err := token.NewIssuer(cfg.GetJWTSecret())
	require.NoError(t, err)
	repos := auth.Repos{
		Principals: principalfakes.NewFakePrincipalRepo(),
		Sessions:   sessionfakes.NewFakeSessionRegistry(),
	}
	service, err := auth.NewService(repos, issuer, cfg.GetSessionTTL())
	require.NoError(t, err)

	_, err = server.New(cfg, service, repos, storefakes.NewFakeStore(), nil)
	require.Error(t, err)
}

func TestGuardRedirectsWithoutCookie(t *testing.T) {
	f := setupTestServer(t)

	resp := f.do(httptest.NewRequest(http.MethodGet, "/admin/api/overview", nil))
	require.Equal(t, http.StatusSeeOther, resp.Code)
	require.Equal(t, "/admin/login", resp.Header().Get("Location"))

	resp = f.do(httptest.NewRequest(http.MethodGet, "/client/api/overview", nil))
	require.Equal(t, http.StatusSeeOther, resp.Code)
	require.Equal(t, "/client/login", resp.Header().Get("Location"))
}

func TestGuardAllowsValidSession(t *testing.T) {
	f := setupTestServer(t)
	cookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	req := httptest.NewRequest(http.MethodGet, "/admin/api/overview", nil)
	req.AddCookie(cookie)
	resp := f.do(req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "DENY", resp.Header().Get("X-Frame-Options"))

	var payload struct {
		Audience string `json:"audience"`
		User     struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "admin", payload.Audience)
	require.Equal(t, seedAdminEmail, payload.User.Email)
}

func TestGuardRejectsGarbageToken(t *testing.T) {
	f := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/api/overview", nil)
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: "not-a-real-token"})
	resp := f.do(req)

	require.Equal(t, http.StatusSeeOther, resp.Code)
	require.Equal(t, "/admin/login", resp.Header().Get("Location"))
}

func TestGuardWrongRoleRedirectsToUnauthorized(t *testing.T) {
	f := setupTestServer(t)
	clientCookie := f.login(t, "client", clientEmail, clientPassword)

	// A client's otherwise valid token smuggled into the admin cookie is
	// authenticated but not authorized: distinct redirect target.
	req := httptest.NewRequest(http.MethodGet, "/admin/api/overview", nil)
	req.AddCookie(&http.Cookie{Name: "admin_token", Value: clientCookie.Value})
	resp := f.do(req)

	require.Equal(t, http.StatusSeeOther, resp.Code)
	require.Equal(t, "/admin/unauthorized", resp.Header().Get("Location"))
}

func TestGuardDeniesAfterLogoutDespiteValidToken(t *testing.T) {
	f := setupTestServer(t)
	cookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	logoutReq := httptest.NewRequest(http.MethodPost, "/auth/admin/logout", nil)
	logoutReq.AddCookie(cookie)
	logoutResp := f.do(logoutReq)
	require.Equal(t, http.StatusNoContent, logoutResp.Code)

	// The logout response expires the cookie
	cleared := logoutResp.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Less(t, cleared[0].MaxAge, 0)

	// Replaying the old, cryptographically valid token is denied on the
	// very next request
	req := httptest.NewRequest(http.MethodGet, "/admin/api/overview", nil)
	req.AddCookie(cookie)
	resp := f.do(req)
	require.Equal(t, http.StatusSeeOther, resp.Code)
	require.Equal(t, "/admin/login", resp.Header().Get("Location"))
}

func TestGuardDeniesExpiredSession(t *testing.T) {
	f := setupTestServer(t)
	cookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	session, err := f.sessionRepo.FindValid(context.Background(), sessions.TokenRef(cookie.Value), time.Now())
	require.NoError(t, err)
	f.sessionRepo.Expire(session.ID, time.Now().Add(-time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/admin/api/overview", nil)
	req.AddCookie(cookie)
	resp := f.do(req)
	require.Equal(t, http.StatusSeeOther, resp.Code)
	require.Equal(t, "/admin/login", resp.Header().Get("Location"))
}

func TestCheckEndpoint(t *testing.T) {
	f := setupTestServer(t)

	// Unauthenticated checks answer JSON 401, never a redirect
	resp := f.do(httptest.NewRequest(http.MethodGet, "/auth/admin/check", nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Empty(t, resp.Header().Get("Location"))

	cookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)
	req := httptest.NewRequest(http.MethodGet, "/auth/admin/check", nil)
	req.AddCookie(cookie)
	resp = f.do(req)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Session struct {
			ID        string    `json:"id"`
			ExpiresAt time.Time `json:"expires_at"`
		} `json:"session"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, seedAdminEmail, payload.User.Email)
	require.NotEmpty(t, payload.Session.ID)
	require.True(t, payload.Session.ExpiresAt.After(time.Now()))
}

func TestCheckRefreshesHint(t *testing.T) {
	f := setupTestServer(t)
	cookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	require.Equal(t, 0, f.hints.Len())

	req := httptest.NewRequest(http.MethodGet, "/auth/admin/check", nil)
	req.AddCookie(cookie)
	require.Equal(t, http.StatusOK, f.do(req).Code)
	require.Equal(t, 1, f.hints.Len())

	hintReq := httptest.NewRequest(http.MethodGet, "/auth/admin/hint", nil)
	hintReq.AddCookie(cookie)
	resp := f.do(hintReq)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Role          string `json:"role"`
		Authoritative bool   `json:"authoritative"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "admin", payload.Role)
	require.False(t, payload.Authoritative)
}

func TestStaleHintAnswersNoContentAndClears(t *testing.T) {
	f := setupTestServer(t)
	cookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	ref := sessions.TokenRef(cookie.Value)
	require.NoError(t, f.hints.Put(context.Background(), ref, sessionhint.Hint{
		Role:      principals.RoleAdmin,
		ExpiresAt: time.Now().Add(time.Hour),
		CachedAt:  time.Now().Add(-time.Hour),
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/admin/hint", nil)
	req.AddCookie(cookie)
	resp := f.do(req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, 0, f.hints.Len())
}

func TestHintWithoutCookie(t *testing.T) {
	f := setupTestServer(t)

	resp := f.do(httptest.NewRequest(http.MethodGet, "/auth/admin/hint", nil))
	require.Equal(t, http.StatusNoContent, resp.Code)
}

func TestLogoutClearsHint(t *testing.T) {
	f := setupTestServer(t)
	cookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	checkReq := httptest.NewRequest(http.MethodGet, "/auth/admin/check", nil)
	checkReq.AddCookie(cookie)
	require.Equal(t, http.StatusOK, f.do(checkReq).Code)
	require.Equal(t, 1, f.hints.Len())

	logoutReq := httptest.NewRequest(http.MethodPost, "/auth/admin/logout", nil)
	logoutReq.AddCookie(cookie)
	require.Equal(t, http.StatusNoContent, f.do(logoutReq).Code)
	require.Equal(t, 0, f.hints.Len())
}

func TestLogoutRegistryFailureKeepsSessionAndCookie(t *testing.T) {
	f := setupTestServer(t)
	cookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	f.sessionRepo.FindValidErr = fmt.Errorf("connection refused")
	req := httptest.NewRequest(http.MethodPost, "/auth/admin/logout", nil)
	req.AddCookie(cookie)
	resp := f.do(req)

	// The failure surfaces; the cookie is not cleared while the session is
	// still live server-side
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	require.Empty(t, resp.Result().Cookies())

	f.sessionRepo.FindValidErr = nil
	overview := httptest.NewRequest(http.MethodGet, "/admin/api/overview", nil)
	overview.AddCookie(cookie)
	require.Equal(t, http.StatusOK, f.do(overview).Code)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setupTestServer(t)
	cookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/admin/logout", nil)
		req.AddCookie(cookie)
		require.Equal(t, http.StatusNoContent, f.do(req).Code)
	}

	// Without a cookie logout still succeeds quietly
	resp := f.do(httptest.NewRequest(http.MethodPost, "/auth/admin/logout", nil))
	require.Equal(t, http.StatusNoContent, resp.Code)
}

func TestLogoutAllRevokesEveryDevice(t *testing.T) {
	f := setupTestServer(t)
	first := f.login(t, "admin", seedAdminEmail, seedAdminPassword)
	second := f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	req := httptest.NewRequest(http.MethodPost, "/auth/admin/logout/all", nil)
	req.AddCookie(first)
	require.Equal(t, http.StatusNoContent, f.do(req).Code)

	for _, cookie := range []*http.Cookie{first, second} {
		overview := httptest.NewRequest(http.MethodGet, "/admin/api/overview", nil)
		overview.AddCookie(cookie)
		resp := f.do(overview)
		require.Equal(t, http.StatusSeeOther, resp.Code)
	}
}

func TestSessionsListing(t *testing.T) {
	f := setupTestServer(t)
	first := f.login(t, "admin", seedAdminEmail, seedAdminPassword)
	f.login(t, "admin", seedAdminEmail, seedAdminPassword)

	req := httptest.NewRequest(http.MethodGet, "/auth/admin/sessions", nil)
	req.AddCookie(first)
	resp := f.do(req)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Sessions []struct {
			ID      string `json:"id"`
			Revoked bool   `json:"revoked"`
		} `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Sessions, 2)
	for _, session := range payload.Sessions {
		require.False(t, session.Revoked)
	}
}

func TestAudiencesAreIsolated(t *testing.T) {
	f := setupTestServer(t)
	adminCookie := f.login(t, "admin", seedAdminEmail, seedAdminPassword)
	clientCookie := f.login(t, "client", clientEmail, clientPassword)

	require.Equal(t, "admin_token", adminCookie.Name)
	require.Equal(t, "client_token", clientCookie.Name)

	// The client area never reads the admin cookie, and vice versa
	req := httptest.NewRequest(http.MethodGet, "/client/api/overview", nil)
	req.AddCookie(adminCookie)
	resp := f.do(req)
	require.Equal(t, http.StatusSeeOther, resp.Code)
	require.Equal(t, "/client/login", resp.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/client/api/overview", nil)
	req.AddCookie(clientCookie)
	require.Equal(t, http.StatusOK, f.do(req).Code)
}
