package service

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightpaper/internal/apperr"
	"insightpaper/internal/models"
	"insightpaper/internal/security"
)

type authFixture struct {
	svc        *AuthService
	users      *memUsers
	recovery   *memRecovery
	challenges *memChallenges
	mailer     *captureMailer
	tokens     *security.Tokens
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newMemUsers()
	f := &authFixture{
		users:      users,
		recovery:   &memRecovery{users: users, tokens: map[string]*models.PasswordRecoveryToken{}},
		challenges: &memChallenges{byEmail: map[string]models.OTPChallenge{}},
		mailer:     &captureMailer{},
		tokens:     security.NewTokens("auth-secret", time.Hour, "refresh-secret", 24*time.Hour, "forgot-secret", 15*time.Minute),
	}
	f.svc = NewAuthService(f.users, f.recovery, f.challenges, f.tokens, f.mailer, "InsightPaper", "http://localhost:5173/")
	return f
}

func (f *authFixture) addUser(t *testing.T, password string, roles ...string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	u := models.User{
		Name:         gofakeit.Name(),
		Email:        gofakeit.Email(),
		PasswordHash: hash,
	}
	for _, r := range roles {
		u.Roles = append(u.Roles, models.Role{Name: r})
	}
	return f.users.add(u)
}

func (f *authFixture) lastOTP(t *testing.T) string {
	t.Helper()
	m, ok := f.mailer.last("otp")
	require.True(t, ok, "no otp email sent")
	return m.args[0]
}

func TestLoginThenVerifyOTP(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "password123", models.RoleStudent)

	res, err := f.svc.Login(ctx, user.Email, "password123")
	require.NoError(t, err)
	assert.False(t, res.DoubleFactorEnabled)

	code := f.lastOTP(t)
	assert.Len(t, code, security.DefaultOTPLength)

	session, err := f.svc.VerifyOTP(ctx, user.Email, code)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, session.User.UserID)
	assert.NotEmpty(t, session.AuthToken)
	assert.NotEmpty(t, session.RefreshToken)

	claims, err := f.tokens.VerifyAuthToken(session.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, claims.UserID)
	assert.Equal(t, []string{models.RoleStudent}, claims.Roles)

	// The challenge is single-use.
	_, err = f.svc.VerifyOTP(ctx, user.Email, code)
	assert.Equal(t, apperr.CodeOTPInvalid, apperr.Cause(err))
	assert.Equal(t, 401, apperr.Status(err))
}

func TestLoginNormalizesEmail(t *testing.T) {
	f := newAuthFixture(t)
	user := f.addUser(t, "password123")

	_, err := f.svc.Login(context.Background(), "  "+user.Email+" ", "password123")
	require.NoError(t, err)
	_, ok := f.challenges.byEmail[user.Email]
	assert.True(t, ok)
}

func TestLoginFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "password123")

	_, err := f.svc.Login(ctx, user.Email, "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@example.com", "password123")
	assert.Equal(t, "user_not_found", apperr.Cause(err))

	_, err = f.svc.Login(ctx, "not-an-email", "password123")
	assert.Equal(t, "email_invalid", apperr.Cause(err))

	_, err = f.svc.Login(ctx, user.Email, "")
	assert.Equal(t, "password_required", apperr.Cause(err))

	assert.Zero(t, f.mailer.count("otp"))
}

func TestVerifyOTPExpiredChallenge(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "password123")

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return start }
	_, err := f.svc.Login(ctx, user.Email, "password123")
	require.NoError(t, err)
	code := f.lastOTP(t)

	f.svc.now = func() time.Time { return start.Add(security.LocalOTPLifetime + time.Second) }
	_, err = f.svc.VerifyOTP(ctx, user.Email, code)
	assert.ErrorIs(t, err, apperr.ErrOTPInvalid)
}

func TestSendOTPReplacesChallenge(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "password123")

	_, err := f.svc.SendOTP(ctx, user.Email)
	require.NoError(t, err)
	first := f.lastOTP(t)

	_, err = f.svc.SendOTP(ctx, user.Email)
	require.NoError(t, err)
	second := f.lastOTP(t)

	if first != second {
		_, err = f.svc.VerifyOTP(ctx, user.Email, first)
		assert.ErrorIs(t, err, apperr.ErrOTPInvalid)
	}
	_, err = f.svc.VerifyOTP(ctx, user.Email, second)
	assert.NoError(t, err)
}

func TestAppTwoFactorLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "password123")
	now := time.Now()
	f.svc.now = func() time.Time { return now }

	enrollment, err := f.svc.EnableOTPApp(ctx, user.UserID)
	require.NoError(t, err)
	assert.Contains(t, enrollment.URL, "otpauth://totp/")

	// A wrong code leaves two-factor off.
	err = f.svc.ConfirmOTPActivation(ctx, user.UserID, wrongTOTP(t, enrollment.Secret, now))
	require.ErrorIs(t, err, apperr.ErrOTPInvalid)
	stored, err := f.users.GetByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.False(t, stored.DoubleFactorEnabled)

	code, err := totp.GenerateCode(enrollment.Secret, now)
	require.NoError(t, err)
	require.NoError(t, f.svc.ConfirmOTPActivation(ctx, user.UserID, code))

	stored, err = f.users.GetByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.True(t, stored.DoubleFactorEnabled)

	res, err := f.svc.Login(ctx, user.Email, "password123")
	require.NoError(t, err)
	assert.True(t, res.DoubleFactorEnabled)
	assert.Zero(t, f.mailer.count("otp"), "app users get no emailed code")

	res, err = f.svc.SendOTP(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, res.DoubleFactorEnabled)

	session, err := f.svc.VerifyOTP(ctx, user.Email, code)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, session.User.UserID)

	_, err = f.svc.EnableOTPApp(ctx, user.UserID)
	assert.Equal(t, "otp_already_enabled", apperr.Cause(err))

	err = f.svc.DisableOTPApp(ctx, user.UserID, wrongTOTP(t, enrollment.Secret, now))
	require.ErrorIs(t, err, apperr.ErrOTPInvalid)
	stored, _ = f.users.GetByID(ctx, user.UserID)
	assert.True(t, stored.DoubleFactorEnabled)

	require.NoError(t, f.svc.DisableOTPApp(ctx, user.UserID, code))
	stored, _ = f.users.GetByID(ctx, user.UserID)
	assert.False(t, stored.DoubleFactorEnabled)
}

// wrongTOTP returns a six-digit code accepted by no window VerifyOTP checks
// at now.
func wrongTOTP(t *testing.T, secret string, now time.Time) string {
	t.Helper()
	valid := map[string]bool{}
	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		c, err := totp.GenerateCode(secret, now.Add(offset))
		require.NoError(t, err)
		valid[c] = true
	}
	code, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)
	for i := 1; i <= 9; i++ {
		last := (int(code[5]-'0') + i) % 10
		candidate := code[:5] + strconv.Itoa(last)
		if !valid[candidate] {
			return candidate
		}
	}
	t.Fatal("no invalid code found")
	return ""
}

func TestConfirmOTPActivationWithoutRequest(t *testing.T) {
	f := newAuthFixture(t)
	user := f.addUser(t, "password123")

	err := f.svc.ConfirmOTPActivation(context.Background(), user.UserID, "123456")
	assert.Equal(t, "otp_not_requested", apperr.Cause(err))

	err = f.svc.DisableOTPApp(context.Background(), user.UserID, "123456")
	assert.Equal(t, "otp_not_enabled", apperr.Cause(err))
}

func TestRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "password123", models.RoleStudent)

	refresh, err := f.tokens.GenerateRefreshToken(models.RefreshClaims{UserID: user.UserID})
	require.NoError(t, err)

	// Role changes show up in the refreshed token.
	require.NoError(t, f.users.UpdateRoles(ctx, 0, user.UserID, []string{models.RoleProfessor}))
	session, err := f.svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	claims, err := f.tokens.VerifyAuthToken(session.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleProfessor}, claims.Roles)
	assert.Empty(t, session.RefreshToken)
}

func TestRefreshRejectsForeignToken(t *testing.T) {
	f := newAuthFixture(t)
	user := f.addUser(t, "password123")

	forger := security.NewTokens("x", time.Hour, "not-the-refresh-secret", time.Hour, "y", time.Hour)
	forged, err := forger.GenerateRefreshToken(models.RefreshClaims{UserID: user.UserID})
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), forged)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	_, err = f.svc.Refresh(context.Background(), "")
	assert.Equal(t, 401, apperr.Status(err))
}

func TestRefreshDeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	refresh, err := f.tokens.GenerateRefreshToken(models.RefreshClaims{UserID: 999})
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), refresh)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestPasswordRecoveryIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "password123")

	require.NoError(t, f.svc.RequestPasswordRecovery(ctx, user.Email))
	mail, ok := f.mailer.last("reset")
	require.True(t, ok)

	link, err := url.Parse(mail.args[0])
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", link.Path)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	require.NoError(t, f.svc.ConfirmPasswordRecovery(ctx, token, "new-password-1"))
	_, err = f.svc.Login(ctx, user.Email, "new-password-1")
	assert.NoError(t, err)

	err = f.svc.ConfirmPasswordRecovery(ctx, token, "new-password-2")
	assert.ErrorIs(t, err, apperr.ErrTokenUsed)
	_, err = f.svc.Login(ctx, user.Email, "new-password-2")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestPasswordRecoveryRejects(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "password123")

	// Well-signed but never stored.
	token, _, err := f.tokens.GenerateForgotPasswordToken(user.Email, user.UserID)
	require.NoError(t, err)
	err = f.svc.ConfirmPasswordRecovery(ctx, token, "new-password-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	err = f.svc.ConfirmPasswordRecovery(ctx, "garbage", "new-password-1")
	assert.Equal(t, 401, apperr.Status(err))

	require.NoError(t, f.svc.RequestPasswordRecovery(ctx, user.Email))
	mail, _ := f.mailer.last("reset")
	link, _ := url.Parse(mail.args[0])
	err = f.svc.ConfirmPasswordRecovery(ctx, link.Query().Get("token"), "short")
	assert.Equal(t, "password_too_short", apperr.Cause(err))
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.addUser(t, "password123")

	err := f.svc.ChangePassword(ctx, user.UserID, "wrong", "new-password-1")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	require.NoError(t, f.svc.ChangePassword(ctx, user.UserID, "password123", "new-password-1"))
	_, err = f.svc.Login(ctx, user.Email, "new-password-1")
	assert.NoError(t, err)
}

func TestCreateProfessorEmailsPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	admin := f.addUser(t, "password123", models.RoleAdmin)
	email := gofakeit.Email()

	prof, err := f.svc.CreateProfessor(ctx, admin.UserID, "Ada Lovelace", email)
	require.NoError(t, err)
	assert.True(t, prof.HasRole(models.RoleProfessor))

	mail, ok := f.mailer.last("password")
	require.True(t, ok)
	assert.Equal(t, email, mail.to)
	password := mail.args[1]
	assert.Len(t, password, 12)

	stored, err := f.users.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.NotEqual(t, password, stored.PasswordHash)
	assert.True(t, security.CheckPassword(password, stored.PasswordHash))
}

func TestCreateStudentAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.CreateStudentAccount(ctx, "Grace Hopper", "Grace@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", user.Email)
	assert.Equal(t, []string{models.RoleStudent}, user.RoleNames())

	_, err = f.svc.CreateStudentAccount(ctx, "G", "g@example.com", "password123")
	assert.Equal(t, "name_too_short", apperr.Cause(err))
}

func TestUpdateRolesAndDelete(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	admin := f.addUser(t, "password123", models.RoleAdmin)
	other := f.addUser(t, "password123", models.RoleStudent)

	assert.Equal(t, "roles_required", apperr.Cause(f.svc.UpdateRoles(ctx, admin.UserID, other.UserID, nil)))
	assert.Equal(t, "role_invalid", apperr.Cause(f.svc.UpdateRoles(ctx, admin.UserID, other.UserID, []string{"janitor"})))
	assert.Equal(t, "cannot_remove_own_admin", apperr.Cause(f.svc.UpdateRoles(ctx, admin.UserID, admin.UserID, []string{models.RoleStudent})))
	require.NoError(t, f.svc.UpdateRoles(ctx, admin.UserID, other.UserID, []string{models.RoleStudent, models.RoleProfessor}))

	assert.Equal(t, "cannot_delete_self", apperr.Cause(f.svc.DeleteUser(ctx, admin.UserID, admin.UserID)))
	require.NoError(t, f.svc.DeleteUser(ctx, admin.UserID, other.UserID))
	_, err := f.svc.GetUser(ctx, other.UserID)
	assert.Error(t, err)
}
