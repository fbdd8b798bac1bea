package token

import (
	"time"

	"github.com/google/uuid"
	"github.com/odrpress/go-session-server/principals"
)

// Claims is the identity/role payload embedded in a signed token.
// Token validity is necessary but not sufficient for authorization: the
// session registry lookup is the authoritative revocation check.
type Claims struct {
	SubjectID uuid.UUID           `json:"sub"`
	Email     string              `json:"email"`
	Role      principals.RoleType `json:"role"`
	Audience  string              `json:"aud,omitempty"`
	IssuedAt  time.Time           `json:"iat"`
	ExpiresAt time.Time           `json:"exp"`
}
