// Package auth provides JWT token issuance and the operator user store
// for the admin API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	// TokenTypeAccess is the short-lived token used on every API call.
	TokenTypeAccess TokenType = "access"

	// TokenTypeRefresh is the long-lived token exchanged for new pairs.
	TokenTypeRefresh TokenType = "refresh"
)

// Roles assignable to operator users.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Claims are the JWT claims carried by admin API tokens.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the stable identifier of the user.
	UserID string `json:"uid"`

	// Username is the login name.
	Username string `json:"username"`

	// Role is "admin" or "viewer".
	Role string `json:"role"`

	// TokenType is "access" or "refresh".
	TokenType TokenType `json:"token_type"`
}

// IsAccessToken reports whether this token authorizes API calls.
func (c *Claims) IsAccessToken() bool {
	return c.TokenType == TokenTypeAccess
}

// IsRefreshToken reports whether this token may be exchanged for a new pair.
func (c *Claims) IsRefreshToken() bool {
	return c.TokenType == TokenTypeRefresh
}

// IsAdmin reports whether the user may call mutating endpoints.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
