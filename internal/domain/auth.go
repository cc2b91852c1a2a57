package domain

import "github.com/golang-jwt/jwt/v5"

// Claim is the token payload the main application issues; this service only
// verifies it and extracts the caller identity.
type Claim struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
