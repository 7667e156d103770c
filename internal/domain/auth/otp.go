package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const otpDigits = 6

// GenerateOTP returns a fixed-length numeric code from crypto/rand.
func GenerateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

// IssueOTP builds a fresh code for the address. Storing it replaces any prior
// pending code, so at most one OTP is live per email.
func (p Policy) IssueOTP(email string, now time.Time) (OTP, error) {
	code, err := GenerateOTP()
	if err != nil {
		return OTP{}, err
	}
	return OTP{
		Email:  email,
		Code:   code,
		Expiry: now.Add(p.OTPValidity),
	}, nil
}
