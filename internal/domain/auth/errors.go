package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLocked             = errors.New("account is locked")
	ErrOTPNotFound        = errors.New("no one-time code on record")
	ErrOTPExpired         = errors.New("one-time code has expired")
	ErrOTPInvalid         = errors.New("one-time code does not match")
	ErrSessionExpired     = errors.New("session has expired")
	ErrSessionNotFound    = errors.New("session not found")
	ErrMFAInvalid         = errors.New("invalid mfa code")
)

// LockedError reports how long the lockout lasts from the moment of the
// attempt.
type LockedError struct {
	Until       time.Time
	MinutesLeft int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account is locked, try again in %d minutes", e.MinutesLeft)
}

func (e *LockedError) Unwrap() error { return ErrLocked }

// IncorrectPasswordError carries the attempts remaining before lockout.
type IncorrectPasswordError struct {
	AttemptsRemaining int
}

func (e *IncorrectPasswordError) Error() string {
	return fmt.Sprintf("incorrect password, %d attempts remaining", e.AttemptsRemaining)
}

func (e *IncorrectPasswordError) Unwrap() error { return ErrInvalidCredentials }
