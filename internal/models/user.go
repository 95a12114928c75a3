package models

import (
	"slices"
	"time"
)

// Role names as stored by the backend.
const (
	RoleAdmin     = "admin"
	RoleProfessor = "professor"
	RoleStudent   = "student"
)

// Role is one entry of a user's role set.
type Role struct {
	Name string `json:"name"`
}

// User represents an account as returned by the user procedures. It carries
// credentials and must never be written to a response as-is; use Public.
type User struct {
	UserID              int64     `json:"userId"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"passwordHash,omitempty"`
	DoubleFactorEnabled bool      `json:"doubleFactorEnabled"`
	OTPSecret           string    `json:"otpSecret,omitempty"`
	Roles               []Role    `json:"roles"`
	CreatedAt           Timestamp `json:"createdAt"`
}

// PublicUser is the client-facing view of a User.
type PublicUser struct {
	UserID              int64     `json:"userId"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	DoubleFactorEnabled bool      `json:"doubleFactorEnabled"`
	Roles               []string  `json:"roles"`
	CreatedAt           Timestamp `json:"createdAt"`
}

// RoleNames returns the role names in backend order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole checks whether the user holds the named role
func (u *User) HasRole(name string) bool {
	return slices.Contains(u.RoleNames(), name)
}

// Public strips credentials.
func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:              u.UserID,
		Name:                u.Name,
		Email:               u.Email,
		DoubleFactorEnabled: u.DoubleFactorEnabled,
		Roles:               u.RoleNames(),
		CreatedAt:           u.CreatedAt,
	}
}

// OTPChallenge is the single live emailed code for an address.
type OTPChallenge struct {
	Email            string    `json:"email"`
	SecurityCodeHash string    `json:"securityCodeHash"`
	ExpiresAt        Timestamp `json:"expiresAt"`
}

// IsExpired checks if the challenge has expired
func (c *OTPChallenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt.Time)
}

// PasswordRecoveryToken is the server-side record of a forgot-password token.
type PasswordRecoveryToken struct {
	TokenID   string    `json:"tokenId"`
	UserID    int64     `json:"userId"`
	Used      bool      `json:"used"`
	CreatedAt Timestamp `json:"createdAt"`
}
