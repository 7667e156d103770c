package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

// Mailer delivers one-time codes. Satisfied by the SMTP mailer in
// internal/platform/email.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store     StoreAPI
	policy    Policy
	mailer    Mailer
	jwtSecret string
	emailFrom string
	issuer    string
	now       func() time.Time
}

func NewService(store StoreAPI, policy Policy, mailer Mailer, jwtSecret, emailFrom, issuer string) *Service {
	return &Service{
		store:     store,
		policy:    policy,
		mailer:    mailer,
		jwtSecret: jwtSecret,
		emailFrom: emailFrom,
		issuer:    issuer,
		now:       time.Now,
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// RequestSignupOTP issues a code to an address that has no account yet.
func (s *Service) RequestSignupOTP(ctx context.Context, email string) error {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	return s.issueAndSend(ctx, email)
}

// CompleteSignup verifies the code, consumes it, and creates the account.
func (s *Service) CompleteSignup(ctx context.Context, email, code, fullName, password string) (User, error) {
	if err := s.consumeOTP(ctx, email, code); err != nil {
		return User{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	user := User{
		FullName:     fullName,
		Email:        email,
		Role:         RoleStaff,
		PasswordHash: hash,
		Status:       UserStatusActive,
	}
	id, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.ID = id
	slog.Info("user signed up", "userId", id)
	return user, nil
}

// Login runs the password attempt through the lockout state machine. The
// mutated counters are persisted whether the attempt succeeds or fails.
func (s *Service) Login(ctx context.Context, email, password, mfaCode string) (User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", err
	}

	attemptErr := s.policy.AttemptLogin(&user, password, s.now())
	if saveErr := s.store.SaveLoginState(ctx, user); saveErr != nil {
		return User{}, "", saveErr
	}
	if attemptErr != nil {
		return User{}, "", attemptErr
	}

	if user.MFAEnabled {
		if mfaCode == "" || user.MFASecret == "" || !totp.Validate(mfaCode, user.MFASecret) {
			return User{}, "", ErrMFAInvalid
		}
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// RequestLoginOTP issues a passwordless login code for an existing account.
func (s *Service) RequestLoginOTP(ctx context.Context, email string) error {
	if _, err := s.store.GetUserByEmail(ctx, email); err != nil {
		return err
	}
	return s.issueAndSend(ctx, email)
}

// LoginWithOTP verifies and consumes the code, then opens a session. A locked
// account cannot bypass its lockout via OTP.
func (s *Service) LoginWithOTP(ctx context.Context, email, code string) (User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, "", err
	}
	if user.AccountLocked && user.LockoutUntil != nil && !s.now().After(*user.LockoutUntil) {
		return User{}, "", s.policy.lockedError(&user, s.now())
	}

	if err := s.consumeOTP(ctx, email, code); err != nil {
		return User{}, "", err
	}

	user.FailedLoginAttempts = 0
	user.AccountLocked = false
	user.LockoutUntil = nil
	if err := s.store.SaveLoginState(ctx, user); err != nil {
		return User{}, "", err
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// RefreshSession extends a live session by the full timeout. Expired sessions
// are deleted and reported as such.
func (s *Service) RefreshSession(ctx context.Context, sessionToken string) (string, error) {
	hash := HashToken(sessionToken)
	session, err := s.store.GetSession(ctx, hash)
	if err != nil {
		return "", err
	}
	now := s.now()
	if !SessionValid(session, now) {
		_ = s.store.DeleteSession(ctx, hash)
		return "", ErrSessionExpired
	}

	s.policy.Refresh(&session, now)
	if err := s.store.UpdateSessionExpiry(ctx, hash, session.Expiry); err != nil {
		return "", err
	}

	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return "", err
	}
	return GenerateToken(s.jwtSecret, Claims{UserID: user.ID, Role: user.Role, SessionID: sessionToken}, s.policy.SessionTimeout)
}

func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	return s.store.DeleteSession(ctx, HashToken(sessionToken))
}

// SetupMFA generates a TOTP secret for the user; it stays disabled until the
// first code is verified via EnableMFA.
func (s *Service) SetupMFA(ctx context.Context, userID string) (secret, url string, err error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: s.issuer, AccountName: user.Email})
	if err != nil {
		return "", "", err
	}
	if err := s.store.SetMFASecret(ctx, userID, key.Secret()); err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFASecret == "" || !totp.Validate(code, user.MFASecret) {
		return ErrMFAInvalid
	}
	return s.store.SetMFAEnabled(ctx, userID, true)
}

func (s *Service) issueAndSend(ctx context.Context, email string) error {
	otp, err := s.policy.IssueOTP(email, s.now())
	if err != nil {
		return err
	}
	if err := s.store.SaveOTP(ctx, otp); err != nil {
		return err
	}
	subject := fmt.Sprintf("%s verification code", s.issuer)
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", otp.Code, int(s.policy.OTPValidity.Minutes()))
	if err := s.mailer.Send(ctx, s.emailFrom, email, subject, body); err != nil {
		slog.Warn("otp delivery failed", "err", err)
		return err
	}
	return nil
}

// consumeOTP enforces single use: a matching code is deleted before success is
// reported, and an expired code is deleted as it is rejected.
func (s *Service) consumeOTP(ctx context.Context, email, code string) error {
	otp, err := s.store.GetOTP(ctx, email)
	if err != nil {
		return err
	}
	if err := VerifyOTP(otp, code, s.now()); err != nil {
		if errors.Is(err, ErrOTPExpired) {
			_ = s.store.DeleteOTP(ctx, email)
		}
		return err
	}
	return s.store.DeleteOTP(ctx, email)
}

func (s *Service) startSession(ctx context.Context, user User) (string, error) {
	sessionToken := uuid.NewString()
	session := s.policy.NewSession(user.ID, HashToken(sessionToken), s.now())
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last login update failed", "userId", user.ID, "err", err)
	}
	return GenerateToken(s.jwtSecret, Claims{UserID: user.ID, Role: user.Role, SessionID: sessionToken}, s.policy.SessionTimeout)
}
