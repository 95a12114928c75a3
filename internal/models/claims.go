package models

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is everything the auth cookie carries.
type AuthClaims struct {
	UserID              int64    `json:"userId"`
	Email               string   `json:"email"`
	Name                string   `json:"name"`
	Roles               []string `json:"roles"`
	DoubleFactorEnabled bool     `json:"doubleFactorEnabled"`
	jwt.RegisteredClaims
}

// RefreshClaims only identifies the user; everything else is reloaded.
type RefreshClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// ForgotPasswordClaims binds a reset link to a one-time server-side record.
type ForgotPasswordClaims struct {
	Email   string `json:"email"`
	UserID  int64  `json:"userId"`
	TokenID string `json:"tokenId"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID              int64
	Email               string
	Name                string
	Roles               []string
	DoubleFactorEnabled bool
}

// HasRole reports whether the principal holds any of roles.
func (p *Principal) HasRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}

// NewAuthClaims copies the fields a token may carry from u.
func NewAuthClaims(u *User) AuthClaims {
	return AuthClaims{
		UserID:              u.UserID,
		Email:               u.Email,
		Name:                u.Name,
		Roles:               u.RoleNames(),
		DoubleFactorEnabled: u.DoubleFactorEnabled,
	}
}

// Principal converts verified claims into a request principal.
func (c *AuthClaims) Principal() *Principal {
	return &Principal{
		UserID:              c.UserID,
		Email:               c.Email,
		Name:                c.Name,
		Roles:               c.Roles,
		DoubleFactorEnabled: c.DoubleFactorEnabled,
	}
}
