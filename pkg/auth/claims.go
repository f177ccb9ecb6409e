package auth

import "github.com/golang-jwt/jwt/v5"

// User is the authenticated identity resolved from a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AccessTokenClaims mirrors the claims the identity provider signs into
// session tokens.
type AccessTokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
