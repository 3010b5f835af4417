package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	name           string
	email          string
	password       string
	role           domain.Role
	status         domain.UserStatus
	failedAttempts int
	lockedUntil    *time.Time
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		name:     "Test User",
		email:    fmt.Sprintf("testuser_%s@example.com", uuid.New().String()[:8]),
		password: "testpassword123",
		role:     domain.RoleUser,
		status:   domain.UserStatusActive,
	}
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithRole(role domain.Role) *UserBuilder {
	b.role = role
	return b
}

func (b *UserBuilder) WithStatus(status domain.UserStatus) *UserBuilder {
	b.status = status
	return b
}

func (b *UserBuilder) WithFailedAttempts(n int) *UserBuilder {
	b.failedAttempts = n
	return b
}

func (b *UserBuilder) WithLockedUntil(until time.Time) *UserBuilder {
	b.lockedUntil = &until
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:                  uuid.New(),
		Name:                b.name,
		Email:               domain.NormalizeEmail(b.email),
		PasswordHash:        string(hashedPassword),
		Role:                b.role,
		Status:              b.status,
		FailedLoginAttempts: b.failedAttempts,
		LockedUntil:         b.lockedUntil,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// SessionBuilder creates test sessions
type SessionBuilder struct {
	userID       uuid.UUID
	token        string
	lastActiveAt time.Time
	revokedAt    *time.Time
}

// NewSessionBuilder creates a new SessionBuilder for a user
func NewSessionBuilder(userID uuid.UUID) *SessionBuilder {
	return &SessionBuilder{
		userID:       userID,
		token:        fmt.Sprintf("test-token-%s", uuid.New()),
		lastActiveAt: time.Now(),
	}
}

func (b *SessionBuilder) WithToken(token string) *SessionBuilder {
	b.token = token
	return b
}

func (b *SessionBuilder) WithLastActiveAt(at time.Time) *SessionBuilder {
	b.lastActiveAt = at
	return b
}

func (b *SessionBuilder) Revoked(at time.Time) *SessionBuilder {
	b.revokedAt = &at
	return b
}

// Build creates the session in the database
func (b *SessionBuilder) Build(t *testing.T, db *gorm.DB) *domain.Session {
	t.Helper()

	session := &domain.Session{
		ID:           uuid.New(),
		UserID:       b.userID,
		Token:        b.token,
		UserAgent:    "test-agent",
		IPAddress:    "127.0.0.1",
		LastActiveAt: b.lastActiveAt,
		RevokedAt:    b.revokedAt,
		CreatedAt:    time.Now(),
	}

	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	return session
}

// TokenBuilder creates test single-use tokens
type TokenBuilder struct {
	userID    uuid.UUID
	purpose   domain.TokenPurpose
	expiresAt time.Time
	usedAt    *time.Time
}

// NewTokenBuilder creates a new TokenBuilder for a user
func NewTokenBuilder(userID uuid.UUID) *TokenBuilder {
	return &TokenBuilder{
		userID:    userID,
		purpose:   domain.TokenPurposePasswordReset,
		expiresAt: time.Now().Add(time.Hour),
	}
}

func (b *TokenBuilder) WithPurpose(purpose domain.TokenPurpose) *TokenBuilder {
	b.purpose = purpose
	return b
}

func (b *TokenBuilder) WithExpiresAt(at time.Time) *TokenBuilder {
	b.expiresAt = at
	return b
}

func (b *TokenBuilder) Used(at time.Time) *TokenBuilder {
	b.usedAt = &at
	return b
}

// Build creates the token in the database
func (b *TokenBuilder) Build(t *testing.T, db *gorm.DB) *domain.SingleUseToken {
	t.Helper()

	token := &domain.SingleUseToken{
		ID:        uuid.New(),
		UserID:    b.userID,
		Token:     uuid.New().String() + uuid.New().String(),
		Purpose:   b.purpose,
		ExpiresAt: b.expiresAt,
		UsedAt:    b.usedAt,
		CreatedAt: time.Now(),
	}

	if err := db.Create(token).Error; err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	return token
}
