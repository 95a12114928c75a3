package security

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"insightpaper/internal/credentials"
)

const (
	DefaultOTPLength = 6
	LocalOTPLifetime = 30 * time.Minute

	totpPeriod = 30
	totpSkew   = 1
)

// LocalOTP is an emailed one-time code. Only Hash and ExpiresAt are stored.
type LocalOTP struct {
	Code      string
	Hash      string
	ExpiresAt time.Time
}

// GenerateHashedLocalOTP creates a numeric code of length digits (6 when
// length is not positive) valid for 30 minutes.
func GenerateHashedLocalOTP(length int, now time.Time) (*LocalOTP, error) {
	if length <= 0 {
		length = DefaultOTPLength
	}
	code, err := credentials.GenerateNumericCode(length)
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}
	hash, err := HashPassword(code)
	if err != nil {
		return nil, err
	}
	return &LocalOTP{Code: code, Hash: hash, ExpiresAt: now.Add(LocalOTPLifetime)}, nil
}

// MatchLocalOTP reports whether code matches hash and the challenge is still live.
func MatchLocalOTP(code, hash string, expiresAt, now time.Time) bool {
	if !now.Before(expiresAt) {
		return false
	}
	return CheckPassword(code, hash)
}

// GenerateOTPSecret creates an authenticator-app secret for email.
func GenerateOTPSecret(issuer, email string) (secret, otpauthURL string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate otp secret: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// VerifyOTP validates an authenticator-app code, allowing one step of skew.
func VerifyOTP(code, secret string, now time.Time) bool {
	if code == "" || secret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, now.UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
