package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, "email = $1", email)
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (User, error) {
	return s.getUser(ctx, "id = $1", userID)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, full_name, email, role, password_hash, failed_login_attempts, account_locked, lockout_until,
           mfa_enabled, COALESCE(mfa_secret, ''), status, created_at
    FROM users
    WHERE `+where, arg).Scan(
		&user.ID, &user.FullName, &user.Email, &user.Role, &user.PasswordHash, &user.FailedLoginAttempts, &user.AccountLocked, &user.LockoutUntil,
		&user.MFAEnabled, &user.MFASecret, &user.Status, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

func (s *Store) CreateUser(ctx context.Context, user User) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (full_name, email, role, password_hash, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, user.FullName, user.Email, user.Role, user.PasswordHash, user.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// SaveLoginState persists the lockout counters after every attempt, success
// or failure, so the state machine survives restarts.
func (s *Store) SaveLoginState(ctx context.Context, user User) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users
    SET failed_login_attempts = $1, account_locked = $2, lockout_until = $3
    WHERE id = $4
  `, user.FailedLoginAttempts, user.AccountLocked, user.LockoutUntil, user.ID)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) SaveOTP(ctx context.Context, otp OTP) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO otps (email, code, expires_at)
    VALUES ($1,$2,$3)
    ON CONFLICT (email)
    DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, created_at = now()
  `, otp.Email, otp.Code, otp.Expiry)
	return err
}

func (s *Store) GetOTP(ctx context.Context, email string) (OTP, error) {
	var otp OTP
	err := s.DB.QueryRow(ctx, "SELECT email, code, expires_at FROM otps WHERE email = $1", email).
		Scan(&otp.Email, &otp.Code, &otp.Expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return OTP{}, ErrOTPNotFound
	}
	return otp, err
}

func (s *Store) DeleteOTP(ctx context.Context, email string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM otps WHERE email = $1", email)
	return err
}

func (s *Store) CreateSession(ctx context.Context, session Session) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (user_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
  `, session.UserID, session.TokenHash, session.Expiry)
	return err
}

func (s *Store) GetSession(ctx context.Context, tokenHash string) (Session, error) {
	var session Session
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, token_hash, expires_at, created_at
    FROM sessions
    WHERE token_hash = $1
  `, tokenHash).Scan(&session.ID, &session.UserID, &session.TokenHash, &session.Expiry, &session.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	return session, err
}

func (s *Store) UpdateSessionExpiry(ctx context.Context, tokenHash string, expiry time.Time) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET expires_at = $1 WHERE token_hash = $2", expiry, tokenHash)
	return err
}

func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM sessions WHERE token_hash = $1", tokenHash)
	return err
}

func (s *Store) SetMFASecret(ctx context.Context, userID, secret string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret = $1, mfa_enabled = false WHERE id = $2", secret, userID)
	return err
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}
