package auth

import "time"

type User struct {
	ID                  string     `json:"id"`
	FullName            string     `json:"fullName"`
	Email               string     `json:"email"`
	Role                string     `json:"role"`
	PasswordHash        string     `json:"-"`
	FailedLoginAttempts int        `json:"-"`
	AccountLocked       bool       `json:"-"`
	LockoutUntil        *time.Time `json:"-"`
	MFAEnabled          bool       `json:"mfaEnabled"`
	MFASecret           string     `json:"-"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// OTP is the single live one-time code for an email address. Issuing a new
// code overwrites it; verifying or expiring consumes it.
type OTP struct {
	Email  string
	Code   string
	Expiry time.Time
}

type Session struct {
	ID        string
	UserID    string
	TokenHash string
	Expiry    time.Time
	CreatedAt time.Time
}

type UserContext struct {
	UserID    string
	Role      string
	SessionID string
}
