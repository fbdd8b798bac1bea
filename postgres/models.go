package postgres

import (
	"time"

	"github.com/google/uuid"
)

type principalModel struct {
	PrincipalID  uuid.UUID `gorm:"column:principal_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex"`
	Name         string    `gorm:"column:name"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role"`
	Status       string    `gorm:"column:status"`
	LastLogin    time.Time `gorm:"column:last_login"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (principalModel) TableName() string { return "principals" }

type sessionModel struct {
	SessionID      uuid.UUID  `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubjectID      uuid.UUID  `gorm:"column:subject_id;index"`
	TokenRef       string     `gorm:"column:token_ref;uniqueIndex"`
	IssuedAt       time.Time  `gorm:"column:issued_at"`
	ExpiresAt      time.Time  `gorm:"column:expires_at;index"`
	LastActivityAt time.Time  `gorm:"column:last_activity_at"`
	RevokedAt      *time.Time `gorm:"column:revoked_at"`
}

func (sessionModel) TableName() string { return "sessions" }
