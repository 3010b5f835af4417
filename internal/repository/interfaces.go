package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error

	// RecordFailedLogin atomically increments the failed-attempt counter
	// and returns the new count.
	RecordFailedLogin(ctx context.Context, id uuid.UUID) (int, error)

	// SetLockedUntil sets or clears the lockout deadline.
	SetLockedUntil(ctx context.Context, id uuid.UUID, until *time.Time) error

	// RecordLogin resets the failed-attempt counter, clears any lock and
	// stamps last-login metadata in one update.
	RecordLogin(ctx context.Context, id uuid.UUID, ip string, at time.Time) error

	// UpdatePassword swaps the password hash and clears lockout state.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// MarkEmailVerified activates the account and stamps the verification
	// time.
	MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// Revoke sets revoked_at if it is still null. Reports whether this
	// call changed the row; revoking twice is not an error.
	Revoke(ctx context.Context, id uuid.UUID) (bool, error)

	// RevokeAllExcept bulk-revokes every active session of the user other
	// than keep. Pass uuid.Nil to revoke all of them.
	RevokeAllExcept(ctx context.Context, userID, keep uuid.UUID) (int64, error)

	// Touch bumps last_active_at. Fails with ErrSessionRevoked on a
	// revoked session and ErrSessionNotFound on a missing one; activity
	// never resurrects a revoked session.
	Touch(ctx context.Context, id uuid.UUID) error

	// PurgeOlderThan deletes sessions whose last activity predates cutoff,
	// revoked or not. Sessions inside the window are always retained.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type SingleUseTokenRepository interface {
	// Issue invalidates any unused token of the same purpose for the user
	// and persists a fresh random one, as a single transaction.
	Issue(ctx context.Context, userID uuid.UUID, purpose domain.TokenPurpose, ttl time.Duration) (*domain.SingleUseToken, error)

	// Consume claims the token with one conditional update. Of N
	// concurrent consumers exactly one wins; the rest, like expired or
	// unknown tokens, get ErrTokenInvalid.
	Consume(ctx context.Context, token string, purpose domain.TokenPurpose) (uuid.UUID, error)
}

type LoginAttemptRepository interface {
	Create(ctx context.Context, attempt *domain.LoginAttempt) error
}

// TxManager runs fn against a transactional copy of the repositories.
type TxManager interface {
	WithTx(ctx context.Context, fn func(repos *Repositories) error) error
}

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Token        SingleUseTokenRepository
	LoginAttempt LoginAttemptRepository
	Tx           TxManager
}
