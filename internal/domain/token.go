package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose names what a single-use token authorizes.
type TokenPurpose string

const (
	TokenPurposePasswordReset     TokenPurpose = "password-reset"
	TokenPurposeEmailVerification TokenPurpose = "email-verification"
)

func (p TokenPurpose) IsValid() bool {
	switch p {
	case TokenPurposePasswordReset, TokenPurposeEmailVerification:
		return true
	}
	return false
}

// SingleUseToken is a random opaque credential bound to one user and one
// purpose. UsedAt moves null -> set exactly once; a consumed or expired
// token never authorizes anything again.
type SingleUseToken struct {
	ID        uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	Token     string       `gorm:"uniqueIndex;not null"`
	Purpose   TokenPurpose `gorm:"not null;index"`
	ExpiresAt time.Time    `gorm:"not null"`
	UsedAt    *time.Time   ``
	CreatedAt time.Time    ``
}
