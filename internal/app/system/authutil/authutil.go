// internal/app/system/authutil/authutil.go
package authutil

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password hashes.
var BcryptCost = bcrypt.DefaultCost

// DefaultOTPExpiry is how long a one-time code stays valid.
const DefaultOTPExpiry = 10 * time.Minute

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateOTP returns a uniformly random 6-digit code (100000-999999).
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// OTPExpired reports whether a code with the given expiry is no longer valid
// at now. A code is still valid at exactly its expiry instant; a missing
// expiry counts as expired.
func OTPExpired(expiry *time.Time, now time.Time) bool {
	if expiry == nil {
		return true
	}
	return now.After(*expiry)
}

// OTP check outcomes.
var (
	ErrOTPInvalid = errors.New("invalid otp")
	ErrOTPExpired = errors.New("otp expired")
)

// CheckOTP compares a submitted code with the stored one in constant time and
// then checks its expiry. A cleared code whose expiry is still recorded and
// has passed reports ErrOTPExpired; any other missing code is ErrOTPInvalid.
func CheckOTP(stored *string, expiry *time.Time, code string, now time.Time) error {
	if stored == nil {
		if expiry != nil && OTPExpired(expiry, now) {
			return ErrOTPExpired
		}
		return ErrOTPInvalid
	}
	if subtle.ConstantTimeCompare([]byte(*stored), []byte(code)) != 1 {
		return ErrOTPInvalid
	}
	if OTPExpired(expiry, now) {
		return ErrOTPExpired
	}
	return nil
}

// RandomPassword returns a random secret for accounts created without one
// (phone sign-up). It satisfies the strong-password rule.
func RandomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random password: %w", err)
	}
	return "Aa1" + base64.RawURLEncoding.EncodeToString(b), nil
}
