package principals

import (
	"fmt"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a principal's role in the dashboard
type RoleType string

const (
	RoleAdmin   RoleType = "admin"   // Back-office administrator
	RoleManager RoleType = "manager" // Back-office manager, limited admin surface
	RoleClient  RoleType = "client"  // Dashboard client (observatory, researcher, ...)
)

// StatusType represents the lifecycle state of an account
type StatusType string

const (
	StatusActive    StatusType = "active"
	StatusInactive  StatusType = "inactive"
	StatusSuspended StatusType = "suspended"
)

// Principal is an authenticatable identity: an admin, a manager, or a
// dashboard client. Identity fields are immutable after creation except
// PasswordHash, Status and LastLogin.
type Principal struct {
	ID           uuid.UUID  `json:"id,omitempty"`
	Email        string     `json:"email,omitempty"` // Unique per principal table
	Name         string     `json:"name,omitempty"`
	PasswordHash string     `json:"-"` // Never serialize
	Role         RoleType   `json:"role,omitempty"`
	Status       StatusType `json:"status,omitempty"`
	LastLogin    time.Time  `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
}

// CanLogin reports whether the account is in a state that allows
// authentication. Inactive and suspended principals keep their records but
// cannot create new sessions.
func (p *Principal) CanLogin() bool {
	return p.Status == StatusActive
}

// HasRole reports whether the principal's role is in the given set.
func (p *Principal) HasRole(roles ...RoleType) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// HashPassword hashes a plaintext password with bcrypt. The salt is
// per-record, generated by bcrypt and embedded in the digest.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash verifies a candidate password against a stored digest.
// bcrypt's comparison is constant-time.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
