package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Session is one authenticated client context. A user may hold many active
// sessions; each is revocable on its own. RevokedAt moves null -> set once
// and never back.
type Session struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       uuid.UUID  `json:"userId" gorm:"type:uuid;not null;index"`
	Token        string     `json:"-" gorm:"uniqueIndex;not null"`
	UserAgent    string     `json:"userAgent"`
	IPAddress    string     `json:"ipAddress"`
	LastActiveAt time.Time  `json:"lastActiveAt" gorm:"not null;index"`
	RevokedAt    *time.Time `json:"revokedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// IsRevoked reports whether the session has been revoked.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// LoginAttempt is an audit row written for every credential check.
// Best-effort: a failed insert is logged, never surfaced to the caller.
type LoginAttempt struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email     string         `gorm:"not null;index"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index"`
	Succeeded bool           `gorm:"not null"`
	IPAddress string         ``
	UserAgent string         ``
	Metadata  datatypes.JSON ``
	CreatedAt time.Time      ``
}
