package repository

import (
	"context"
	"fmt"

	"insightpaper/internal/database"
	"insightpaper/internal/models"
)

// TokenRepository persists one-time password-recovery tokens and the
// emailed OTP challenges.
type TokenRepository struct {
	db database.Caller
}

func NewTokenRepository(db database.Caller) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateRecoveryToken records tokenID as unused.
func (r *TokenRepository) CreateRecoveryToken(ctx context.Context, userID int64, tokenID string) error {
	_, err := mutate(ctx, r.db, userID, "password_recovery_request",
		step("spTokens_Create", database.P("userId", userID), database.P("tokenId", tokenID)),
	)
	if err != nil {
		return fmt.Errorf("failed to create recovery token: %w", err)
	}
	return nil
}

// GetRecoveryToken returns nil when no record exists.
func (r *TokenRepository) GetRecoveryToken(ctx context.Context, tokenID string) (*models.PasswordRecoveryToken, error) {
	return callOne[models.PasswordRecoveryToken](ctx, r.db, "recovery token", "spTokens_GetById", database.P("tokenId", tokenID))
}

// ConsumeRecoveryToken stores the new password and marks the token used in
// one transaction.
func (r *TokenRepository) ConsumeRecoveryToken(ctx context.Context, userID int64, tokenID, passwordHash string) error {
	_, err := mutate(ctx, r.db, userID, "password_recovery_confirm",
		step("spUsers_UpdatePassword", database.P("userId", userID), database.P("password", passwordHash)),
		step("spTokens_MarkUsed", database.P("tokenId", tokenID)),
	)
	if err != nil {
		return fmt.Errorf("failed to consume recovery token: %w", err)
	}
	return nil
}

// PutChallenge replaces any live challenge for the address.
func (r *TokenRepository) PutChallenge(ctx context.Context, c models.OTPChallenge) error {
	_, err := r.db.Call(ctx, "spOtpChallenges_Upsert",
		database.P("email", c.Email),
		database.P("securityCode", c.SecurityCodeHash),
		database.P("expiresAt", c.ExpiresAt.Time.UTC()),
	)
	if err != nil {
		return fmt.Errorf("failed to store otp challenge: %w", err)
	}
	return nil
}

// GetChallenge returns nil when the address has no live challenge.
func (r *TokenRepository) GetChallenge(ctx context.Context, email string) (*models.OTPChallenge, error) {
	return callOne[models.OTPChallenge](ctx, r.db, "otp challenge", "spOtpChallenges_GetByEmail", database.P("email", email))
}

func (r *TokenRepository) DeleteChallenge(ctx context.Context, email string) error {
	if _, err := r.db.Call(ctx, "spOtpChallenges_Delete", database.P("email", email)); err != nil {
		return fmt.Errorf("failed to delete otp challenge: %w", err)
	}
	return nil
}
