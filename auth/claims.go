package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recognised by the application.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Claims is the JWT payload issued at staff login.
type Claims struct {
	jwt.RegisteredClaims
	UserID string   `json:"user_id"`
	Name   string   `json:"name"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the claims grant role.
func (c *Claims) HasRole(role string) bool {
	return c != nil && slices.Contains(c.Roles, role)
}
