package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID string) (User, error)
	CreateUser(ctx context.Context, user User) (string, error)
	SaveLoginState(ctx context.Context, user User) error
	UpdateLastLogin(ctx context.Context, userID string) error
	SaveOTP(ctx context.Context, otp OTP) error
	GetOTP(ctx context.Context, email string) (OTP, error)
	DeleteOTP(ctx context.Context, email string) error
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, tokenHash string) (Session, error)
	UpdateSessionExpiry(ctx context.Context, tokenHash string, expiry time.Time) error
	DeleteSession(ctx context.Context, tokenHash string) error
	SetMFASecret(ctx context.Context, userID, secret string) error
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error
}
