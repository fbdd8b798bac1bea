package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/odrpress/go-session-server/internal/errors"
	"github.com/odrpress/go-session-server/principals"
	"github.com/pkg/errors"
)

// Issuer creates and verifies signed, time-bounded bearer tokens.
// The signing secret is process-wide configuration: construction fails when
// it is absent instead of falling back to a literal default.
type Issuer struct {
	secret  []byte
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// NewIssuer initializes an Issuer with the server-held HMAC secret.
func NewIssuer(secret []byte, options ...IssuerOption) (*Issuer, error) {
	if len(strings.TrimSpace(string(secret))) == 0 {
		return nil, errors.New("[NewIssuer] signing secret is required")
	}

	issuer := &Issuer{
		secret:  secret,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(issuer)
	}

	return issuer, nil
}

// Issue mints a signed token for the given identity, valid for ttl.
func (i *Issuer) Issue(subjectID uuid.UUID, email string, role principals.RoleType, audience string, ttl time.Duration) (string, Claims, error) {
	if ttl <= 0 {
		return "", Claims{}, errors.New("[Issuer.Issue] ttl must be positive")
	}

	now := i.nowTime()
	claims := Claims{
		SubjectID: subjectID,
		Email:     email,
		Role:      role,
		Audience:  audience,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	mapClaims := jwtlib.MapClaims{
		"sub":   subjectID.String(),
		"email": email,
		"role":  string(role),
		"aud":   audience,
		"iat":   claims.IssuedAt.Unix(),
		"exp":   claims.ExpiresAt.Unix(),
		"jti":   uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, mapClaims).SignedString(i.secret)
	if err != nil {
		return "", Claims{}, errors.Wrap(err, "[Issuer.Issue] failed to sign token")
	}
	return signed, claims, nil
}

// Verify checks the signature and expiry of a presented token and decodes
// its claims. Fails with ErrTokenExpired when exp is in the past and
// ErrInvalidToken on signature mismatch or a malformed payload.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(i.nowTime),
	)

	parsed, err := parser.Parse(raw, func(t *jwtlib.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	return claimsFromMap(mapClaims)
}

func claimsFromMap(mapClaims jwtlib.MapClaims) (*Claims, error) {
	sub, ok := mapClaims["sub"].(string)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	subjectID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	email, ok := mapClaims["email"].(string)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	role, ok := mapClaims["role"].(string)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}

	audience, _ := mapClaims["aud"].(string)

	iat, ok := mapClaims["iat"].(float64)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	exp, ok := mapClaims["exp"].(float64)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}

	return &Claims{
		SubjectID: subjectID,
		Email:     email,
		Role:      principals.RoleType(role),
		Audience:  audience,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
