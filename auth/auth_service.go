// Package auth implements the unified session/authorization core: credential
// verification, token minting, session registration, and the per-request
// authorization decision consumed by the access guard.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/odrpress/go-session-server/internal/errors"
	"github.com/odrpress/go-session-server/principals"
	"github.com/odrpress/go-session-server/sessions"
	"github.com/odrpress/go-session-server/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Principals principals.Repo   // Credential store
	Sessions   sessions.Registry // Server-side session registry
}

// Service provides login, per-request authorization, and revocation.
// Audiences (admin vs client) are passed in as parameters, not separate
// code paths.
type Service struct {
	repos      Repos
	issuer     *token.Issuer
	sessionTTL time.Duration
	sliding    bool             // When set, activity touches slide expiry forward
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithSlidingSessions makes activity touches slide session expiry forward
// by the session TTL. Off by default.
func WithSlidingSessions() ServiceOption {
	return func(s *Service) {
		s.sliding = true
	}
}

// NewService initializes the auth Service with required dependencies.
func NewService(repos Repos, issuer *token.Issuer, sessionTTL time.Duration, options ...ServiceOption) (*Service, error) {
	if repos.Principals == nil {
		return nil, errors.New("[NewService] Principals repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions registry is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewService] token issuer is required")
	}
	if sessionTTL <= 0 {
		return nil, errors.New("[NewService] session TTL must be positive")
	}

	service := &Service{
		repos:      repos,
		issuer:     issuer,
		sessionTTL: sessionTTL,
		nowTime:    time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// LoginResult is handed back to the transport layer after a successful
// login. Token goes into an HTTP-only cookie; Principal feeds the response
// body.
type LoginResult struct {
	Principal *principals.Principal
	Token     string
	Claims    token.Claims
	Session   *sessions.Session
}

// Login verifies credentials for the given audience and, on success, mints
// a token and registers a session in one pass. Unknown email, wrong
// password, and wrong-audience role all collapse into
// InvalidCredentialsErr so the caller cannot distinguish them.
func (s *Service) Login(ctx context.Context, audience string, allowedRoles []principals.RoleType, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, apperrors.ErrMissingFields
	}

	principal, err := s.repos.Principals.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrPrincipalNotFound) {
			return nil, InvalidCredentialsErr
		}
		// A store failure is not a credential failure; surface it so the
		// transport layer answers 500 and logs it.
		return nil, errors.Wrap(err, "[Service.Login] principals.GetByEmail")
	}

	if !principal.HasRole(allowedRoles...) {
		return nil, InvalidCredentialsErr
	}

	if !principals.CheckPasswordHash(password, principal.PasswordHash) {
		return nil, InvalidCredentialsErr
	}

	// Status is checked only after the password matched, so a probe with a
	// wrong password cannot learn the account state.
	if !principal.CanLogin() {
		return nil, AccountUnavailableErr
	}

	signed, claims, err := s.issuer.Issue(principal.ID, principal.Email, principal.Role, audience, s.sessionTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] issuer.Issue")
	}

	// Single atomic insert, only after both hash-verify and token-mint
	// succeeded. An aborted request cannot leave a half-created session.
	session, err := s.repos.Sessions.Create(ctx, principal.ID, sessions.TokenRef(signed), claims.IssuedAt, s.sessionTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] sessions.Create")
	}

	// Best-effort: a failed last-login stamp never fails the login.
	if err := s.repos.Principals.UpdateLastLogin(ctx, principal.ID, claims.IssuedAt); err != nil {
		log.Warn().Err(err).Str("principal", principal.ID.String()).Msg("update last login failed")
	} else {
		principal.LastLogin = claims.IssuedAt
	}

	return &LoginResult{
		Principal: principal,
		Token:     signed,
		Claims:    claims,
		Session:   session,
	}, nil
}

// Authorize runs the per-request decision for a presented token:
// token signature/expiry, then the authoritative session registry lookup,
// then the audience role check. It mutates nothing; activity touches are a
// separate call so denied paths stay side-effect-free.
func (s *Service) Authorize(ctx context.Context, rawToken string, allowedRoles []principals.RoleType) (*token.Claims, *sessions.Session, error) {
	claims, err := s.issuer.Verify(rawToken)
	if err != nil {
		return nil, nil, SessionNotValidErr
	}

	// A valid token belonging to a revoked or expired session is denied:
	// the registry overrides token-only validity.
	session, err := s.repos.Sessions.FindValid(ctx, sessions.TokenRef(rawToken), s.nowTime())
	if err != nil {
		return nil, nil, SessionNotValidErr
	}

	if len(allowedRoles) > 0 {
		allowed := false
		for _, role := range allowedRoles {
			if claims.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			return claims, session, RoleNotAllowedErr
		}
	}

	return claims, session, nil
}

// Touch refreshes a session's last activity. Expiry slides only when
// sliding sessions are configured. Best-effort from the guard's point of
// view: failures are logged by the caller, the request still proceeds.
func (s *Service) Touch(ctx context.Context, sessionID uuid.UUID) error {
	slide := time.Duration(0)
	if s.sliding {
		slide = s.sessionTTL
	}
	return s.repos.Sessions.Touch(ctx, sessionID, s.nowTime(), slide)
}

// Logout revokes the session behind a presented token. Idempotent: an
// unknown, expired, or already-revoked token is a no-op success.
func (s *Service) Logout(ctx context.Context, rawToken string) (*sessions.Session, error) {
	session, err := s.repos.Sessions.FindValid(ctx, sessions.TokenRef(rawToken), s.nowTime())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSessionNotFound) {
			return nil, nil
		}
		// The cookie must not be treated as cleared while the session is
		// still live server-side.
		return nil, errors.Wrap(err, "[Service.Logout] sessions.FindValid")
	}
	if err := s.repos.Sessions.Revoke(ctx, session.ID, s.nowTime()); err != nil {
		return nil, errors.Wrap(err, "[Service.Logout] sessions.Revoke")
	}
	return session, nil
}

// LogoutAll revokes every live session of a principal. Kept available for
// future tightening even though concurrent multi-device sessions are
// allowed by default.
func (s *Service) LogoutAll(ctx context.Context, subjectID uuid.UUID) error {
	if err := s.repos.Sessions.RevokeAllForSubject(ctx, subjectID, s.nowTime()); err != nil {
		return errors.Wrap(err, "[Service.LogoutAll] sessions.RevokeAllForSubject")
	}
	return nil
}

// ListSessions returns a principal's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*sessions.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repos.Sessions.ListForSubject(ctx, subjectID, limit, offset)
}

// CleanupExpiredSessions removes registry rows whose expiry has passed.
// Called by the infrastructure janitor, never from the request path.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.repos.Sessions.DeleteExpired(ctx, s.nowTime())
}
