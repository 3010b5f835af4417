package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-backend/internal/domain"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).First(&session, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Revoke is a conditional update: only a still-active session is touched,
// so two concurrent revokes settle with exactly one writer.
func (r *sessionRepository) Revoke(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepository) RevokeAllExcept(ctx context.Context, userID, keep uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID)
	if keep != uuid.Nil {
		q = q.Where("id <> ?", keep)
	}
	res := q.Update("revoked_at", time.Now())
	return res.RowsAffected, res.Error
}

func (r *sessionRepository) Touch(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("last_active_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Missed: the session is either gone or already revoked. Distinguish
	// so callers can log the difference, but both are failures.
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Session{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrSessionNotFound
	}
	return domain.ErrSessionRevoked
}

func (r *sessionRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("last_active_at < ?", cutoff).
		Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
