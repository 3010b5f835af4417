package domain

import (
	"errors"
	"fmt"
	"time"
)

// Credential and account errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotActive   = errors.New("account is not active")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

// Token and session errors
var (
	ErrTokenInvalid    = errors.New("token is invalid or expired")
	ErrTokenExpired    = errors.New("token has expired")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionRevoked  = errors.New("session has been revoked")
)

// ErrInternal wraps storage or crypto failures that must not leak detail
// to the caller.
var ErrInternal = errors.New("internal error")

// AccountLockedError carries the remaining lock duration so callers can
// tell the client how long to wait. It matches
// errors.Is(err, ErrAccountLocked).
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is temporarily locked, retry in %ds", int(e.RetryAfter.Seconds()))
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
