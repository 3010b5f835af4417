package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStatus tracks where an account is in its lifecycle. Accounts are
// created PENDING and become ACTIVE on email verification.
type UserStatus string

const (
	UserStatusPending  UserStatus = "PENDING"
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusBanned   UserStatus = "BANNED"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusPending, UserStatusActive, UserStatusInactive, UserStatusBanned:
		return true
	}
	return false
}

type User struct {
	ID                  uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email               string         `json:"email" gorm:"uniqueIndex;not null"`
	Name                string         `json:"name" gorm:"not null"`
	PasswordHash        string         `json:"-" gorm:"not null"`
	Role                Role           `json:"role" gorm:"not null;default:'USER'"`
	Status              UserStatus     `json:"status" gorm:"not null;default:'PENDING'"`
	EmailVerifiedAt     *time.Time     `json:"emailVerifiedAt"`
	FailedLoginAttempts int            `json:"-" gorm:"not null;default:0"`
	LockedUntil         *time.Time     `json:"-"`
	LastLoginAt         *time.Time     `json:"lastLoginAt"`
	LastLoginIP         string         `json:"-"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsLocked reports whether a lockout is active at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// NormalizeEmail lower-cases and trims an email address so lookups and the
// unique index agree on a single canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
