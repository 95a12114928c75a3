package repository

import (
	"context"
	"fmt"

	"insightpaper/internal/apperr"
	"insightpaper/internal/database"
	"insightpaper/internal/models"
)

// UserRepository handles the user procedures
type UserRepository struct {
	db database.Caller
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Caller) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail looks a user up by email. The procedure raises user_not_found
// for unknown addresses; an empty result is reported the same way.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := callOne[models.User](ctx, r.db, "user", "spUsers_GetByEmail", database.P("email", email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Validation("user_not_found")
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := callOne[models.User](ctx, r.db, "user", "spUsers_GetById", database.P("userId", userID))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Validation("user_not_found")
	}
	return user, nil
}

// GetAll lists every active user.
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	return callList[models.User](ctx, r.db, "users", "spUsers_GetAll")
}

// Create inserts a user with the given roles. actorID is the admin creating
// the account, or 0 for self-registration.
func (r *UserRepository) Create(ctx context.Context, actorID int64, name, email, passwordHash string, roles []string) (*models.User, error) {
	res, err := mutate(ctx, r.db, actorID, "user_create",
		step("spUsers_Create",
			database.P("name", name),
			database.P("email", email),
			database.P("password", passwordHash),
			database.P("roles", database.StringList(roles)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user, err := decodeOne[models.User](res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if user == nil {
		return r.GetByEmail(ctx, email)
	}
	return user, nil
}

// UpdateProfile changes name and email.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, name, email string) (*models.User, error) {
	_, err := mutate(ctx, r.db, userID, "user_update",
		step("spUsers_Update",
			database.P("userId", userID),
			database.P("name", name),
			database.P("email", email),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return r.GetByID(ctx, userID)
}

// UpdatePassword stores a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := mutate(ctx, r.db, userID, "user_password_update",
		step("spUsers_UpdatePassword", database.P("userId", userID), database.P("password", passwordHash)),
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateRoles replaces a user's role set.
func (r *UserRepository) UpdateRoles(ctx context.Context, actorID, userID int64, roles []string) error {
	_, err := mutate(ctx, r.db, actorID, "user_roles_update",
		step("spUsers_UpdateRoles", database.P("userId", userID), database.P("roles", database.StringList(roles))),
	)
	if err != nil {
		return fmt.Errorf("failed to update roles: %w", err)
	}
	return nil
}

// Delete soft-deletes a user.
func (r *UserRepository) Delete(ctx context.Context, actorID, userID int64) error {
	_, err := mutate(ctx, r.db, actorID, "user_delete",
		step("spUsers_Delete", database.P("userId", userID)),
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// SetOTPSecret stores a pending authenticator secret. Two-factor stays off
// until EnableDoubleFactor.
func (r *UserRepository) SetOTPSecret(ctx context.Context, userID int64, secret string) error {
	_, err := mutate(ctx, r.db, userID, "user_otp_secret_set",
		step("spUsers_SetOtpSecret", database.P("userId", userID), database.P("otpSecret", secret)),
	)
	if err != nil {
		return fmt.Errorf("failed to store otp secret: %w", err)
	}
	return nil
}

// EnableDoubleFactor turns authenticator-app login on.
func (r *UserRepository) EnableDoubleFactor(ctx context.Context, userID int64) error {
	_, err := mutate(ctx, r.db, userID, "user_2fa_enable",
		step("spUsers_UpdateDoubleFactor", database.P("userId", userID), database.P("enabled", true)),
	)
	if err != nil {
		return fmt.Errorf("failed to enable two-factor: %w", err)
	}
	return nil
}

// DisableDoubleFactor turns authenticator-app login off and deletes the secret.
func (r *UserRepository) DisableDoubleFactor(ctx context.Context, userID int64) error {
	_, err := mutate(ctx, r.db, userID, "user_2fa_disable",
		step("spUsers_UpdateDoubleFactor", database.P("userId", userID), database.P("enabled", false)),
		step("spUsers_SetOtpSecret", database.P("userId", userID), database.P("otpSecret", nil)),
	)
	if err != nil {
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}
	return nil
}
