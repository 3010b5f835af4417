package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-backend/internal/auth"
	"github.com/taskhive/taskhive-backend/internal/config"
	"github.com/taskhive/taskhive-backend/internal/domain"
	"github.com/taskhive/taskhive-backend/internal/notify"
	"github.com/taskhive/taskhive-backend/internal/repository"
	"gorm.io/gorm"
)

// ForgotPasswordMessage is returned for every forgot-password call, whether
// or not the account exists. Keep it a single constant so the two paths
// cannot drift apart.
const ForgotPasswordMessage = "If that email address is registered, a password reset link has been sent."

const (
	registerMessage      = "Registration successful. Check your email to verify your account."
	passwordResetMessage = "Password has been reset. Please log in again."
	emailVerifiedMessage = "Email verified. Your account is now active."
)

type AuthService struct {
	repos    *repository.Repositories
	hasher   *auth.PasswordHasher
	issuer   *auth.TokenIssuer
	notifier notify.Notifier
	log      *slog.Logger
	cfg      *config.Config
}

func NewAuthService(repos *repository.Repositories, hasher *auth.PasswordHasher, issuer *auth.TokenIssuer, notifier notify.Notifier, log *slog.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		repos:    repos,
		hasher:   hasher,
		issuer:   issuer,
		notifier: notifier,
		log:      log,
		cfg:      cfg,
	}
}

// RequestMeta is client metadata the HTTP layer passes through unmodified.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type RegisterResult struct {
	User    *domain.User
	Message string
}

type AuthResult struct {
	User         *domain.User
	Session      *domain.Session
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Register creates a PENDING account and its email-verification token in
// one transaction, then hands the token to the notifier.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email := domain.NormalizeEmail(input.Email)

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, s.internal(ctx, "hashing password", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         input.Name,
		PasswordHash: hashed,
		Role:         domain.RoleUser,
		Status:       domain.UserStatusPending,
	}

	var verification *domain.SingleUseToken
	err = s.repos.Tx.WithTx(ctx, func(repos *repository.Repositories) error {
		existing, err := repos.User.GetByEmail(ctx, email)
		if err == nil && existing != nil {
			return domain.ErrEmailTaken
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}

		if err := repos.User.Create(ctx, user); err != nil {
			return err
		}

		verification, err = repos.Token.Issue(ctx, user.ID, domain.TokenPurposeEmailVerification, s.cfg.EmailVerificationTTL)
		return err
	})
	if err != nil {
		// The pre-insert lookup does not serialize concurrent registrations;
		// the loser of that race lands on the unique index instead.
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrEmailTaken
		}
		return nil, s.internal(ctx, "registering user", err)
	}

	s.send(ctx, user.Email, verification.Token, domain.TokenPurposeEmailVerification)

	return &RegisterResult{User: user, Message: registerMessage}, nil
}

// Login authenticates, issues a token pair and opens a session keyed by the
// access token.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*AuthResult, error) {
	user, err := s.authenticate(ctx, email, password, meta)
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, user, meta)
}

// Refresh verifies a refresh token and mints a fresh pair. The presented
// refresh token stays valid until its natural expiry; there is no rotation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*AuthResult, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, s.internal(ctx, "loading user for refresh", err)
	}
	if user.Status == domain.UserStatusBanned {
		return nil, domain.ErrTokenInvalid
	}

	return s.openSession(ctx, user, meta)
}

// Logout revokes the session bound to the presented access token. Revoking
// an already-revoked session is a no-op, not an error.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	session, err := s.repos.Session.GetByToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrSessionNotFound
		}
		return s.internal(ctx, "loading session for logout", err)
	}

	if _, err := s.repos.Session.Revoke(ctx, session.ID); err != nil {
		return s.internal(ctx, "revoking session", err)
	}
	return nil
}

// ForgotPassword always reports the same message. A reset token is issued
// only for an existing ACTIVE account; every failure on that path is logged
// and swallowed so response shape and timing reveal nothing.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) string {
	user, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.ErrorContext(ctx, "forgot-password lookup failed", "error", err)
		}
		return ForgotPasswordMessage
	}
	if user.Status != domain.UserStatusActive {
		return ForgotPasswordMessage
	}

	token, err := s.repos.Token.Issue(ctx, user.ID, domain.TokenPurposePasswordReset, s.cfg.PasswordResetTTL)
	if err != nil {
		s.log.ErrorContext(ctx, "issuing password-reset token failed", "error", err, "user_id", user.ID)
		return ForgotPasswordMessage
	}

	s.send(ctx, user.Email, token.Token, domain.TokenPurposePasswordReset)
	return ForgotPasswordMessage
}

// ResetPassword consumes the reset token, swaps the hash, clears lockout
// state and revokes every session the user holds, in one transaction.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", s.internal(ctx, "hashing password", err)
	}

	err = s.repos.Tx.WithTx(ctx, func(repos *repository.Repositories) error {
		userID, err := repos.Token.Consume(ctx, token, domain.TokenPurposePasswordReset)
		if err != nil {
			return err
		}
		if err := repos.User.UpdatePassword(ctx, userID, hashed); err != nil {
			return err
		}
		_, err = repos.Session.RevokeAllExcept(ctx, userID, uuid.Nil)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			return "", domain.ErrTokenInvalid
		}
		return "", s.internal(ctx, "resetting password", err)
	}

	return passwordResetMessage, nil
}

// VerifyEmail consumes the verification token and activates the account.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	err := s.repos.Tx.WithTx(ctx, func(repos *repository.Repositories) error {
		userID, err := repos.Token.Consume(ctx, token, domain.TokenPurposeEmailVerification)
		if err != nil {
			return err
		}
		return repos.User.MarkEmailVerified(ctx, userID, time.Now())
	})
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			return "", domain.ErrTokenInvalid
		}
		return "", s.internal(ctx, "verifying email", err)
	}

	return emailVerifiedMessage, nil
}

// Authorize validates an access token for request handling: signature and
// expiry first (pure, no I/O), then the session row, which must exist and
// not be revoked. A valid check bumps the session's activity stamp.
func (s *AuthService) Authorize(ctx context.Context, accessToken string) (*auth.Claims, *domain.Session, error) {
	claims, err := s.issuer.VerifyAccess(accessToken)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.repos.Session.GetByToken(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}
	if session.IsRevoked() {
		return nil, nil, domain.ErrSessionRevoked
	}

	if err := s.repos.Session.Touch(ctx, session.ID); err != nil {
		return nil, nil, err
	}
	return claims, session, nil
}

// GetUserByID loads a user for the authenticated "me" endpoint.
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repos.User.GetByID(ctx, id)
}

// PurgeStaleSessions is the maintenance sweep removing sessions idle past
// the retention window.
func (s *AuthService) PurgeStaleSessions(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.SessionRetentionDays)
	deleted, err := s.repos.Session.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, s.internal(ctx, "purging sessions", err)
	}
	if deleted > 0 {
		s.log.InfoContext(ctx, "purged stale sessions", "count", deleted)
	}
	return deleted, nil
}

// authenticate implements the credential check with lockout escalation.
// Absence and a wrong password are indistinguishable to the caller.
func (s *AuthService) authenticate(ctx context.Context, email, password string, meta RequestMeta) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.audit(ctx, email, nil, false, meta)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "loading user", err)
	}

	now := time.Now()
	if user.IsLocked(now) {
		return nil, &domain.AccountLockedError{RetryAfter: user.LockedUntil.Sub(now)}
	}
	if user.Status != domain.UserStatusActive {
		return nil, domain.ErrAccountNotActive
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, s.recordFailure(ctx, user, meta)
		}
		return nil, s.internal(ctx, "verifying password", err)
	}

	if err := s.repos.User.RecordLogin(ctx, user.ID, meta.IP, now); err != nil {
		return nil, s.internal(ctx, "recording login", err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LastLoginIP = meta.IP

	s.audit(ctx, email, &user.ID, true, meta)
	return user, nil
}

// recordFailure bumps the counter atomically and recomputes the lock from
// the new count. Each failure past a threshold restarts the full window.
func (s *AuthService) recordFailure(ctx context.Context, user *domain.User, meta RequestMeta) error {
	s.audit(ctx, user.Email, &user.ID, false, meta)

	attempts, err := s.repos.User.RecordFailedLogin(ctx, user.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "recording failed login", "error", err, "user_id", user.ID)
		return domain.ErrInvalidCredentials
	}

	lock := domain.LockDuration(attempts)
	if lock == 0 {
		return domain.ErrInvalidCredentials
	}

	until := time.Now().Add(lock)
	if err := s.repos.User.SetLockedUntil(ctx, user.ID, &until); err != nil {
		s.log.ErrorContext(ctx, "setting lockout", "error", err, "user_id", user.ID)
	}
	return &domain.AccountLockedError{RetryAfter: lock}
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User, meta RequestMeta) (*AuthResult, error) {
	pair, err := s.issuer.Issue(user)
	if err != nil {
		return nil, s.internal(ctx, "issuing tokens", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		Token:        pair.AccessToken,
		UserAgent:    meta.UserAgent,
		IPAddress:    meta.IP,
		LastActiveAt: now,
		CreatedAt:    now,
	}
	if err := s.repos.Session.Create(ctx, session); err != nil {
		return nil, s.internal(ctx, "creating session", err)
	}

	return &AuthResult{
		User:         user,
		Session:      session,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(pair.AccessTTL.Seconds()),
	}, nil
}

// audit writes a login-attempt row. Best effort only.
func (s *AuthService) audit(ctx context.Context, email string, userID *uuid.UUID, succeeded bool, meta RequestMeta) {
	metadata, _ := json.Marshal(map[string]string{
		"ip":        meta.IP,
		"userAgent": meta.UserAgent,
	})
	attempt := &domain.LoginAttempt{
		ID:        uuid.New(),
		Email:     email,
		UserID:    userID,
		Succeeded: succeeded,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  metadata,
	}
	if err := s.repos.LoginAttempt.Create(ctx, attempt); err != nil {
		s.log.WarnContext(ctx, "writing login attempt", "error", err)
	}
}

// send hands a token to the notifier. Failures are logged, never surfaced.
func (s *AuthService) send(ctx context.Context, recipient, token string, purpose domain.TokenPurpose) {
	if err := s.notifier.Send(ctx, recipient, token, purpose); err != nil {
		s.log.ErrorContext(ctx, "notification failed", "error", err, "purpose", string(purpose))
	}
}

// internal logs the real failure and returns the generic error the caller
// is allowed to see.
func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, op, "error", err)
	return domain.ErrInternal
}
