package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"insightpaper/internal/apperr"
	"insightpaper/internal/models"
)

// Tokens signs and verifies the three token kinds. Each kind has its own
// secret so a token of one kind never verifies as another.
type Tokens struct {
	AuthSecret           []byte
	AuthExpiresIn        time.Duration
	RefreshSecret        []byte
	RefreshExpiresIn     time.Duration
	ForgotPasswordSecret []byte
	ForgotPasswordExpiry time.Duration

	now func() time.Time
}

// NewTokens creates a token signer.
func NewTokens(authSecret string, authTTL time.Duration, refreshSecret string, refreshTTL time.Duration, forgotSecret string, forgotTTL time.Duration) *Tokens {
	return &Tokens{
		AuthSecret:           []byte(authSecret),
		AuthExpiresIn:        authTTL,
		RefreshSecret:        []byte(refreshSecret),
		RefreshExpiresIn:     refreshTTL,
		ForgotPasswordSecret: []byte(forgotSecret),
		ForgotPasswordExpiry: forgotTTL,
		now:                  time.Now,
	}
}

func (t *Tokens) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}

func (t *Tokens) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := t.clock().UTC()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parse verifies signature and expiry and classifies the failure.
func (t *Tokens) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.clock))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Wrap(apperr.ErrTokenExpired, err)
	default:
		return apperr.Wrap(apperr.ErrInvalidToken, err)
	}
}

// GenerateAuthToken signs a short-lived auth token.
func (t *Tokens) GenerateAuthToken(claims models.AuthClaims) (string, error) {
	claims.RegisteredClaims = t.registered(fmt.Sprint(claims.UserID), t.AuthExpiresIn)
	return sign(claims, t.AuthSecret)
}

// GenerateRefreshToken signs a long-lived refresh token.
func (t *Tokens) GenerateRefreshToken(claims models.RefreshClaims) (string, error) {
	claims.RegisteredClaims = t.registered(fmt.Sprint(claims.UserID), t.RefreshExpiresIn)
	return sign(claims, t.RefreshSecret)
}

func (t *Tokens) VerifyAuthToken(tokenString string) (*models.AuthClaims, error) {
	claims := &models.AuthClaims{}
	if err := t.parse(tokenString, claims, t.AuthSecret); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, apperr.ErrInvalidToken
	}
	return claims, nil
}

func (t *Tokens) VerifyRefreshToken(tokenString string) (*models.RefreshClaims, error) {
	claims := &models.RefreshClaims{}
	if err := t.parse(tokenString, claims, t.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, apperr.ErrInvalidToken
	}
	return claims, nil
}

// GenerateForgotPasswordToken mints a reset token and the id the caller must
// persist as unused.
func (t *Tokens) GenerateForgotPasswordToken(email string, userID int64) (token, tokenID string, err error) {
	tokenID, err = randomHex(16)
	if err != nil {
		return "", "", err
	}
	claims := models.ForgotPasswordClaims{
		Email:            email,
		UserID:           userID,
		TokenID:          tokenID,
		RegisteredClaims: t.registered(fmt.Sprint(userID), t.ForgotPasswordExpiry),
	}
	token, err = sign(claims, t.ForgotPasswordSecret)
	if err != nil {
		return "", "", err
	}
	return token, tokenID, nil
}

// VerifyForgotPasswordToken checks the signature, expiry and required
// fields. Whether the token was already used is up to the caller.
func (t *Tokens) VerifyForgotPasswordToken(tokenString string) (*models.ForgotPasswordClaims, error) {
	claims := &models.ForgotPasswordClaims{}
	if err := t.parse(tokenString, claims, t.ForgotPasswordSecret); err != nil {
		return nil, err
	}
	if claims.Email == "" || claims.UserID == 0 || claims.TokenID == "" {
		return nil, apperr.ErrInvalidToken
	}
	return claims, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
