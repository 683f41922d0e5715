package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the claims of a session token. The bound wallet travels in
// the "user" claim.
type SessionClaims struct {
	jwt.RegisteredClaims
	User string `json:"user"`
}
