package auth

import (
	"math"
	"time"
)

// Policy holds the thresholds for lockout, OTP, and session expiry. Pure
// functions on this type mutate the passed user/session in memory only; the
// service persists the outcome.
type Policy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
	OTPValidity     time.Duration
	SessionTimeout  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
		OTPValidity:     10 * time.Minute,
		SessionTimeout:  time.Hour,
	}
}

// AttemptLogin evaluates one password attempt against the lockout state
// machine. While locked, even a correct password is rejected. An expired
// lockout unlocks and resets the attempt counter before the password is
// checked. On mismatch the counter increments and may trip a fresh lockout;
// on match all failure state clears.
func (p Policy) AttemptLogin(user *User, password string, now time.Time) error {
	if user.AccountLocked {
		if user.LockoutUntil != nil && now.After(*user.LockoutUntil) {
			user.AccountLocked = false
			user.LockoutUntil = nil
			user.FailedLoginAttempts = 0
		} else {
			return p.lockedError(user, now)
		}
	}

	if err := CheckPassword(user.PasswordHash, password); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= p.MaxAttempts {
			until := now.Add(p.LockoutDuration)
			user.AccountLocked = true
			user.LockoutUntil = &until
			return p.lockedError(user, now)
		}
		return &IncorrectPasswordError{AttemptsRemaining: p.MaxAttempts - user.FailedLoginAttempts}
	}

	user.FailedLoginAttempts = 0
	user.AccountLocked = false
	user.LockoutUntil = nil
	return nil
}

func (p Policy) lockedError(user *User, now time.Time) *LockedError {
	until := now.Add(p.LockoutDuration)
	if user.LockoutUntil != nil {
		until = *user.LockoutUntil
	}
	minutes := int(math.Ceil(until.Sub(now).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	return &LockedError{Until: until, MinutesLeft: minutes}
}

// VerifyOTP checks a supplied code against the stored record. Consumption
// (deleting the record after success or expiry) is the service's job.
func VerifyOTP(otp OTP, supplied string, now time.Time) error {
	if now.After(otp.Expiry) {
		return ErrOTPExpired
	}
	if otp.Code == "" || otp.Code != supplied {
		return ErrOTPInvalid
	}
	return nil
}

func (p Policy) NewSession(userID, tokenHash string, now time.Time) Session {
	return Session{
		UserID:    userID,
		TokenHash: tokenHash,
		Expiry:    now.Add(p.SessionTimeout),
		CreatedAt: now,
	}
}

// Refresh extends the session by the full timeout from now. Called on any
// tracked activity.
func (p Policy) Refresh(session *Session, now time.Time) {
	session.Expiry = now.Add(p.SessionTimeout)
}

func SessionValid(session Session, now time.Time) bool {
	return !now.After(session.Expiry)
}
