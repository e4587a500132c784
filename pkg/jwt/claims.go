package jwt

import (
	jwt "github.com/golang-jwt/jwt/v5"
)

// UserClaims represents the claims carried by a SyncSolve access token.
type UserClaims struct {
	// Sub is the user ID (decimal string) - matches the "sub" claim
	Sub string `json:"sub"`

	// Email is the user's email address
	Email string `json:"email"`

	// Username is the display name embedded at login time
	Username string `json:"username"`

	// Standard JWT claims (iss, aud, exp, iat, etc.)
	jwt.RegisteredClaims
}

// GetUserID returns the user ID from the sub claim.
func (c *UserClaims) GetUserID() string {
	return c.Sub
}
