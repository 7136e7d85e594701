package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strconv"
	"time"
)

var (
	ErrOTPNotFound = errors.New("OTP not found or expired")
	ErrOTPExpired  = errors.New("OTP expired")
	ErrOTPInvalid  = errors.New("Invalid OTP")
)

// OTPEntry is a pending signup code for one email address
type OTPEntry struct {
	Code      string
	ExpiresAt time.Time
}

// OTPStore keeps at most one pending code per email.
//
// Consume is atomic per email: it fails with ErrOTPNotFound when nothing is
// stored, deletes the entry and fails with ErrOTPExpired once now is past the
// expiry, fails with ErrOTPInvalid on a wrong code, and deletes the entry on
// success so a code verifies exactly once.
type OTPStore interface {
	Put(ctx context.Context, email string, entry OTPEntry) error
	Consume(ctx context.Context, email, code string, now time.Time) error
	Delete(ctx context.Context, email string) error
}

var otpRange = big.NewInt(900000)

// generateOTP returns a uniformly random 6-digit code
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpRange)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// hashToken stores secrets as sha256 hex so a dump of the store leaks nothing usable
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
