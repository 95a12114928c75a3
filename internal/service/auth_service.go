package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"slices"
	"strings"
	"time"

	"insightpaper/internal/apperr"
	"insightpaper/internal/credentials"
	"insightpaper/internal/models"
	"insightpaper/internal/security"
	"insightpaper/internal/validation"
)

// UserStore is the user persistence the auth flow needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, actorID int64, name, email, passwordHash string, roles []string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, name, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateRoles(ctx context.Context, actorID, userID int64, roles []string) error
	Delete(ctx context.Context, actorID, userID int64) error
	SetOTPSecret(ctx context.Context, userID int64, secret string) error
	EnableDoubleFactor(ctx context.Context, userID int64) error
	DisableDoubleFactor(ctx context.Context, userID int64) error
}

// RecoveryTokenStore persists one-time forgot-password token ids.
type RecoveryTokenStore interface {
	CreateRecoveryToken(ctx context.Context, userID int64, tokenID string) error
	GetRecoveryToken(ctx context.Context, tokenID string) (*models.PasswordRecoveryToken, error)
	ConsumeRecoveryToken(ctx context.Context, userID int64, tokenID, passwordHash string) error
}

// ChallengeStore holds at most one live emailed OTP per address.
type ChallengeStore interface {
	PutChallenge(ctx context.Context, c models.OTPChallenge) error
	GetChallenge(ctx context.Context, email string) (*models.OTPChallenge, error)
	DeleteChallenge(ctx context.Context, email string) error
}

// AuthMailer is the subset of EmailService the auth flow uses.
type AuthMailer interface {
	SendOTP(ctx context.Context, to, code string) error
	SendPassword(ctx context.Context, to, name, password string) error
	SendPasswordReset(ctx context.Context, to, link string) error
}

// LoginResult tells the client which second factor to prompt for.
type LoginResult struct {
	DoubleFactorEnabled bool `json:"doubleFactorEnabled"`
}

// Session is what a completed sign-in yields.
type Session struct {
	User         *models.User
	AuthToken    string
	RefreshToken string
}

// OTPEnrollment is returned when authenticator-app 2FA is requested.
type OTPEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

var assignableRoles = []string{models.RoleAdmin, models.RoleProfessor, models.RoleStudent}

// AuthService handles authentication business logic
type AuthService struct {
	users      UserStore
	recovery   RecoveryTokenStore
	challenges ChallengeStore
	tokens     *security.Tokens
	mailer     AuthMailer
	otpIssuer  string
	clientURL  string
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, recovery RecoveryTokenStore, challenges ChallengeStore, tokens *security.Tokens, mailer AuthMailer, otpIssuer, clientURL string) *AuthService {
	return &AuthService{
		users:      users,
		recovery:   recovery,
		challenges: challenges,
		tokens:     tokens,
		mailer:     mailer,
		otpIssuer:  otpIssuer,
		clientURL:  strings.TrimRight(clientURL, "/"),
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks the password. Users without app 2FA get an emailed code.
// An unknown address fails in the user lookup, whose cause is passed on.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.Required("password", password); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}

	if user.DoubleFactorEnabled {
		return &LoginResult{DoubleFactorEnabled: true}, nil
	}
	if err := s.issueChallenge(ctx, user.Email); err != nil {
		return nil, err
	}
	return &LoginResult{DoubleFactorEnabled: false}, nil
}

// SendOTP replaces the live challenge with a new emailed code. Users with
// app 2FA get no email.
func (s *AuthService) SendOTP(ctx context.Context, email string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.DoubleFactorEnabled {
		return &LoginResult{DoubleFactorEnabled: true}, nil
	}
	if err := s.issueChallenge(ctx, user.Email); err != nil {
		return nil, err
	}
	return &LoginResult{DoubleFactorEnabled: false}, nil
}

func (s *AuthService) issueChallenge(ctx context.Context, email string) error {
	otp, err := security.GenerateHashedLocalOTP(security.DefaultOTPLength, s.now())
	if err != nil {
		return apperr.Internal(err)
	}
	err = s.challenges.PutChallenge(ctx, models.OTPChallenge{
		Email:            normalizeEmail(email),
		SecurityCodeHash: otp.Hash,
		ExpiresAt:        models.Timestamp{Time: otp.ExpiresAt},
	})
	if err != nil {
		return fmt.Errorf("failed to store otp challenge: %w", err)
	}
	if err := s.mailer.SendOTP(ctx, email, otp.Code); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// VerifyOTP completes sign-in. The emailed challenge is deleted on success
// so a code works once.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if err := validation.ValidateOTP(code); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.DoubleFactorEnabled {
		if !security.VerifyOTP(code, user.OTPSecret, s.now()) {
			return nil, apperr.ErrOTPInvalid
		}
	} else {
		challenge, err := s.challenges.GetChallenge(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to get otp challenge: %w", err)
		}
		if challenge == nil || !security.MatchLocalOTP(code, challenge.SecurityCodeHash, challenge.ExpiresAt.Time, s.now()) {
			return nil, apperr.ErrOTPInvalid
		}
		if err := s.challenges.DeleteChallenge(ctx, email); err != nil {
			return nil, fmt.Errorf("failed to consume otp challenge: %w", err)
		}
	}

	return s.newSession(user)
}

func (s *AuthService) newSession(user *models.User) (*Session, error) {
	authToken, err := s.tokens.GenerateAuthToken(models.NewAuthClaims(user))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(models.RefreshClaims{UserID: user.UserID})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{User: user, AuthToken: authToken, RefreshToken: refreshToken}, nil
}

// Refresh issues a new auth token from a refresh token, reloading the user
// so role changes apply. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		log.Printf("Refresh token rejected: %v", err)
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindValidation) {
			return nil, apperr.Wrap(apperr.ErrInvalidToken, err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	authToken, err := s.tokens.GenerateAuthToken(models.NewAuthClaims(user))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{User: user, AuthToken: authToken}, nil
}

// RequestPasswordRecovery emails a one-time reset link.
func (s *AuthService) RequestPasswordRecovery(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, tokenID, err := s.tokens.GenerateForgotPasswordToken(user.Email, user.UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.recovery.CreateRecoveryToken(ctx, user.UserID, tokenID); err != nil {
		return fmt.Errorf("failed to store recovery token: %w", err)
	}

	link := s.clientURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ConfirmPasswordRecovery sets a new password. A token is accepted once:
// the password change and the used mark commit together.
func (s *AuthService) ConfirmPasswordRecovery(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.VerifyForgotPasswordToken(token)
	if err != nil {
		return err
	}

	record, err := s.recovery.GetRecoveryToken(ctx, claims.TokenID)
	if err != nil {
		return fmt.Errorf("failed to get recovery token: %w", err)
	}
	if record == nil || record.UserID != claims.UserID {
		return apperr.ErrInvalidToken
	}
	if record.Used {
		return apperr.ErrTokenUsed
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.recovery.ConsumeRecoveryToken(ctx, claims.UserID, claims.TokenID, hash); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// EnableOTPApp stores a pending authenticator secret. Two-factor stays off
// until ConfirmOTPActivation succeeds.
func (s *AuthService) EnableOTPApp(ctx context.Context, userID int64) (*OTPEnrollment, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.DoubleFactorEnabled {
		return nil, apperr.Validation("otp_already_enabled")
	}
	secret, otpURL, err := security.GenerateOTPSecret(s.otpIssuer, user.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.users.SetOTPSecret(ctx, userID, secret); err != nil {
		return nil, fmt.Errorf("failed to store otp secret: %w", err)
	}
	return &OTPEnrollment{Secret: secret, URL: otpURL}, nil
}

// ConfirmOTPActivation turns app 2FA on once the user proves the secret works.
func (s *AuthService) ConfirmOTPActivation(ctx context.Context, userID int64, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.OTPSecret == "" {
		return apperr.Validation("otp_not_requested")
	}
	if !security.VerifyOTP(strings.TrimSpace(code), user.OTPSecret, s.now()) {
		return apperr.ErrOTPInvalid
	}
	if err := s.users.EnableDoubleFactor(ctx, userID); err != nil {
		return fmt.Errorf("failed to enable two-factor: %w", err)
	}
	return nil
}

// DisableOTPApp requires a valid current code.
func (s *AuthService) DisableOTPApp(ctx context.Context, userID int64, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !user.DoubleFactorEnabled {
		return apperr.Validation("otp_not_enabled")
	}
	if !security.VerifyOTP(strings.TrimSpace(code), user.OTPSecret, s.now()) {
		return apperr.ErrOTPInvalid
	}
	if err := s.users.DisableDoubleFactor(ctx, userID); err != nil {
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}
	return nil
}

// ChangePassword requires the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !security.CheckPassword(current, user.PasswordHash) {
		return apperr.ErrInvalidCredentials
	}
	if err := validation.ValidatePassword(next); err != nil {
		return err
	}
	hash, err := security.HashPassword(next)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// CreateStudentAccount is public self-registration.
func (s *AuthService) CreateStudentAccount(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validateAccount(name, email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user, err := s.users.Create(ctx, 0, strings.TrimSpace(name), email, hash, []string{models.RoleStudent})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateProfessor creates an account with a generated password, which is
// emailed once and never stored in clear.
func (s *AuthService) CreateProfessor(ctx context.Context, adminID int64, name, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validateAccount(name, email); err != nil {
		return nil, err
	}
	password, err := credentials.GenerateRandomPassword(credentials.DefaultPasswordLength)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user, err := s.users.Create(ctx, adminID, strings.TrimSpace(name), email, hash, []string{models.RoleProfessor})
	if err != nil {
		return nil, fmt.Errorf("failed to create professor: %w", err)
	}
	if err := s.mailer.SendPassword(ctx, email, user.Name, password); err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func validateAccount(name, email string) error {
	if err := validation.ValidateName(name); err != nil {
		return err
	}
	return validation.ValidateEmail(email)
}

// UpdateProfile changes the caller's name and email.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, name, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validateAccount(name, email); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateProfile(ctx, userID, strings.TrimSpace(name), email)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// UpdateRoles replaces a user's roles; at least one known role is required.
func (s *AuthService) UpdateRoles(ctx context.Context, actorID, userID int64, roles []string) error {
	if len(roles) == 0 {
		return apperr.Validation("roles_required")
	}
	for _, r := range roles {
		if !slices.Contains(assignableRoles, r) {
			return apperr.Validation("role_invalid")
		}
	}
	if actorID == userID && !slices.Contains(roles, models.RoleAdmin) {
		return apperr.Validation("cannot_remove_own_admin")
	}
	if err := s.users.UpdateRoles(ctx, actorID, userID, roles); err != nil {
		return fmt.Errorf("failed to update roles: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes an account other than the caller's.
func (s *AuthService) DeleteUser(ctx context.Context, actorID, userID int64) error {
	if actorID == userID {
		return apperr.Validation("cannot_delete_self")
	}
	if err := s.users.Delete(ctx, actorID, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.GetAll(ctx)
}
