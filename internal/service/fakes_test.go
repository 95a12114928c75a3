package service

import (
	"context"
	"fmt"
	"sync"

	"insightpaper/internal/apperr"
	"insightpaper/internal/models"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*models.User{}, nextID: 1}
}

func (m *memUsers) add(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.UserID == 0 {
		u.UserID = m.nextID
	}
	m.nextID = u.UserID + 1
	m.byID[u.UserID] = &u
	return &u
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperr.Validation("user_not_found")
}

func (m *memUsers) GetByID(_ context.Context, userID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return nil, apperr.Validation("user_not_found")
	}
	c := *u
	return &c, nil
}

func (m *memUsers) GetAll(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) Create(_ context.Context, _ int64, name, email, passwordHash string, roles []string) (*models.User, error) {
	if _, err := m.GetByEmail(context.Background(), email); err == nil {
		return nil, apperr.Validation("email_taken")
	}
	u := models.User{Name: name, Email: email, PasswordHash: passwordHash}
	for _, r := range roles {
		u.Roles = append(u.Roles, models.Role{Name: r})
	}
	return m.add(u), nil
}

func (m *memUsers) update(userID int64, fn func(u *models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return apperr.Validation("user_not_found")
	}
	fn(u)
	return nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, userID int64, name, email string) (*models.User, error) {
	if err := m.update(userID, func(u *models.User) { u.Name, u.Email = name, email }); err != nil {
		return nil, err
	}
	return m.GetByID(ctx, userID)
}

func (m *memUsers) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	return m.update(userID, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (m *memUsers) UpdateRoles(_ context.Context, _, userID int64, roles []string) error {
	return m.update(userID, func(u *models.User) {
		u.Roles = nil
		for _, r := range roles {
			u.Roles = append(u.Roles, models.Role{Name: r})
		}
	})
}

func (m *memUsers) Delete(_ context.Context, _, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, userID)
	return nil
}

func (m *memUsers) SetOTPSecret(_ context.Context, userID int64, secret string) error {
	return m.update(userID, func(u *models.User) { u.OTPSecret = secret })
}

func (m *memUsers) EnableDoubleFactor(_ context.Context, userID int64) error {
	return m.update(userID, func(u *models.User) { u.DoubleFactorEnabled = true })
}

func (m *memUsers) DisableDoubleFactor(_ context.Context, userID int64) error {
	return m.update(userID, func(u *models.User) {
		u.DoubleFactorEnabled = false
		u.OTPSecret = ""
	})
}

// memRecovery is an in-memory RecoveryTokenStore that writes through to users.
type memRecovery struct {
	users  *memUsers
	tokens map[string]*models.PasswordRecoveryToken
}

func (m *memRecovery) CreateRecoveryToken(_ context.Context, userID int64, tokenID string) error {
	m.tokens[tokenID] = &models.PasswordRecoveryToken{TokenID: tokenID, UserID: userID}
	return nil
}

func (m *memRecovery) GetRecoveryToken(_ context.Context, tokenID string) (*models.PasswordRecoveryToken, error) {
	t, ok := m.tokens[tokenID]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (m *memRecovery) ConsumeRecoveryToken(ctx context.Context, userID int64, tokenID, passwordHash string) error {
	t, ok := m.tokens[tokenID]
	if !ok {
		return fmt.Errorf("no token %s", tokenID)
	}
	t.Used = true
	return m.users.UpdatePassword(ctx, userID, passwordHash)
}

// memChallenges is an in-memory ChallengeStore.
type memChallenges struct {
	byEmail map[string]models.OTPChallenge
}

func (m *memChallenges) PutChallenge(_ context.Context, c models.OTPChallenge) error {
	m.byEmail[c.Email] = c
	return nil
}

func (m *memChallenges) GetChallenge(_ context.Context, email string) (*models.OTPChallenge, error) {
	c, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memChallenges) DeleteChallenge(_ context.Context, email string) error {
	delete(m.byEmail, email)
	return nil
}

type sentMail struct {
	kind string
	to   string
	args []string
}

// captureMailer records every email instead of sending it.
type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]bool
}

func (c *captureMailer) record(kind, to string, args ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail[to] {
		return fmt.Errorf("mailbox %s unavailable", to)
	}
	c.sent = append(c.sent, sentMail{kind: kind, to: to, args: args})
	return nil
}

func (c *captureMailer) last(kind string) (sentMail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.sent) - 1; i >= 0; i-- {
		if c.sent[i].kind == kind {
			return c.sent[i], true
		}
	}
	return sentMail{}, false
}

func (c *captureMailer) count(kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

func (c *captureMailer) SendOTP(_ context.Context, to, code string) error {
	return c.record("otp", to, code)
}

func (c *captureMailer) SendPassword(_ context.Context, to, name, password string) error {
	return c.record("password", to, name, password)
}

func (c *captureMailer) SendPasswordReset(_ context.Context, to, link string) error {
	return c.record("reset", to, link)
}

func (c *captureMailer) SendNewDocument(_ context.Context, to, courseName, title string) error {
	return c.record("new_document", to, courseName, title)
}

func (c *captureMailer) SendRecommendation(_ context.Context, to, courseName, title, message string) error {
	return c.record("recommendation", to, courseName, title, message)
}
