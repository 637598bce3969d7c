package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the identity payload supplied by the session provider.
// The engine trusts these claims and performs no further identity checks.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
