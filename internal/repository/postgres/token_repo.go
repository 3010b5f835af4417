package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type singleUseTokenRepository struct {
	db *gorm.DB
}

func NewSingleUseTokenRepository(db *gorm.DB) *singleUseTokenRepository {
	return &singleUseTokenRepository{db: db}
}

func (r *singleUseTokenRepository) Issue(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose, ttl time.Duration) (*domain.SingleUseToken, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	record := &domain.SingleUseToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND purpose = ? AND used_at IS NULL", userID, purpose).
			Delete(&domain.SingleUseToken{}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Consume claims the token with one conditional update. The WHERE clause is
// the whole race arbiter: of any number of concurrent consumers, postgres
// lets exactly one through.
func (r *singleUseTokenRepository) Consume(ctx context.Context, token string, purpose domain.TokenPurpose) (uuid.UUID, error) {
	now := time.Now()

	var record domain.SingleUseToken
	res := r.db.WithContext(ctx).
		Model(&record).
		Clauses(clause.Returning{}).
		Where("token = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?", token, purpose, now).
		Update("used_at", now)
	if res.Error != nil {
		return uuid.Nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Unknown, expired and already-used all look identical here so the
		// caller cannot be used as an oracle.
		return uuid.Nil, domain.ErrTokenInvalid
	}
	return record.UserID, nil
}

// generateToken returns 256 bits of entropy, hex encoded.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
