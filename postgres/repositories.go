package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/odrpress/go-session-server/internal/errors"
	"github.com/odrpress/go-session-server/principals"
	"github.com/odrpress/go-session-server/sessions"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repositories bundles the Postgres-backed stores.
type Repositories struct {
	Principals principals.Repo
	Sessions   sessions.Registry
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Principals: &principalRepository{db: db},
		Sessions:   &sessionRepository{db: db},
	}
}

type principalRepository struct {
	db *gorm.DB
}

var _ principals.Repo = (*principalRepository)(nil)

func (r *principalRepository) Upsert(ctx context.Context, principal *principals.Principal) error {
	if principal.ID == uuid.Nil {
		principal.ID = uuid.New()
	}
	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = time.Now()
	}
	rec := toPrincipalModel(principal)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "password_hash", "role", "status"}),
		}).
		Create(&rec).Error
}

func (r *principalRepository) Delete(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Where("email = ?", email).Delete(&principalModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrPrincipalNotFound
	}
	return nil
}

func (r *principalRepository) GetByEmail(ctx context.Context, email string) (*principals.Principal, error) {
	var rec principalModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPrincipalNotFound
		}
		return nil, err
	}
	return toDomainPrincipal(rec), nil
}

func (r *principalRepository) GetByID(ctx context.Context, id uuid.UUID) (*principals.Principal, error) {
	var rec principalModel
	if err := r.db.WithContext(ctx).Where("principal_id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPrincipalNotFound
		}
		return nil, err
	}
	return toDomainPrincipal(rec), nil
}

func (r *principalRepository) List(ctx context.Context, offset, limit int) ([]*principals.Principal, error) {
	var rows []principalModel
	query := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*principals.Principal, 0, len(rows))
	for _, item := range rows {
		result = append(result, toDomainPrincipal(item))
	}
	return result, nil
}

func (r *principalRepository) SetStatus(ctx context.Context, email string, status principals.StatusType) error {
	res := r.db.WithContext(ctx).
		Model(&principalModel{}).
		Where("email = ?", email).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrPrincipalNotFound
	}
	return nil
}

func (r *principalRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&principalModel{}).
		Where("principal_id = ?", id).
		Update("last_login", at).Error
}

type sessionRepository struct {
	db *gorm.DB
}

var _ sessions.Registry = (*sessionRepository)(nil)

func (r *sessionRepository) Create(ctx context.Context, subjectID uuid.UUID, tokenRef string, issuedAt time.Time, ttl time.Duration) (*sessions.Session, error) {
	rec := sessionModel{
		SessionID:      uuid.New(),
		SubjectID:      subjectID,
		TokenRef:       tokenRef,
		IssuedAt:       issuedAt,
		ExpiresAt:      issuedAt.Add(ttl),
		LastActivityAt: issuedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) FindValid(ctx context.Context, tokenRef string, now time.Time) (*sessions.Session, error) {
	var rec sessionModel
	err := r.db.WithContext(ctx).
		Where("token_ref = ?", tokenRef).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", now).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, now time.Time, slide time.Duration) error {
	updates := map[string]interface{}{"last_activity_at": now}
	if slide > 0 {
		updates["expires_at"] = now.Add(slide)
	}
	return r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", sessionID).
		Updates(updates).Error
}

func (r *sessionRepository) Revoke(ctx context.Context, sessionID uuid.UUID, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", sessionID).
		Where("revoked_at IS NULL").
		Update("revoked_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&sessionModel{}).Where("session_id = ?", sessionID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return apperrors.ErrSessionNotFound
		}
	}
	return nil
}

func (r *sessionRepository) RevokeAllForSubject(ctx context.Context, subjectID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("subject_id = ?", subjectID).
		Where("revoked_at IS NULL").
		Update("revoked_at", now).Error
}

func (r *sessionRepository) ListForSubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*sessions.Session, error) {
	var rows []sessionModel
	query := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("issued_at DESC").
		Limit(limit).
		Offset(offset)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*sessions.Session, 0, len(rows))
	for _, item := range rows {
		result = append(result, toDomainSession(item))
	}
	return result, nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&sessionModel{})
	return res.RowsAffected, res.Error
}

func toPrincipalModel(p *principals.Principal) principalModel {
	return principalModel{
		PrincipalID:  p.ID,
		Email:        p.Email,
		Name:         p.Name,
		PasswordHash: p.PasswordHash,
		Role:         string(p.Role),
		Status:       string(p.Status),
		LastLogin:    p.LastLogin,
		CreatedAt:    p.CreatedAt,
	}
}

func toDomainPrincipal(rec principalModel) *principals.Principal {
	return &principals.Principal{
		ID:           rec.PrincipalID,
		Email:        rec.Email,
		Name:         rec.Name,
		PasswordHash: rec.PasswordHash,
		Role:         principals.RoleType(rec.Role),
		Status:       principals.StatusType(rec.Status),
		LastLogin:    rec.LastLogin,
		CreatedAt:    rec.CreatedAt,
	}
}

func toDomainSession(rec sessionModel) *sessions.Session {
	return &sessions.Session{
		ID:           rec.SessionID,
		SubjectID:    rec.SubjectID,
		TokenRef:     rec.TokenRef,
		IssuedAt:     rec.IssuedAt,
		ExpiresAt:    rec.ExpiresAt,
		LastActivity: rec.LastActivityAt,
		RevokedAt:    rec.RevokedAt,
	}
}
