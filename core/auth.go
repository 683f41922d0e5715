package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Identity is a wallet public key (base58), the only subject of authentication.
type Identity = string

// LoginData is the payload the wallet signs
type LoginData struct {
	PubKey string `json:"pubKey"`
}

// Message returns the canonical bytes that the wallet signs for this payload.
func (d LoginData) Message() ([]byte, error) {
	return json.Marshal(d)
}

// LoginRequest is sent by the client to obtain a session token
type LoginRequest struct {
	Signature string    `json:"signature"`
	Data      LoginData `json:"data"`
}

// TokenPayload holds the claims carried by a session token
type TokenPayload struct {
	ID        string    // Token identifier (jti)
	User      Identity  // Wallet the token is bound to
	IssuedAt  time.Time // When the token was issued
	ExpiresAt time.Time // When the token stops being accepted
}

// User is the persisted record resolved or created for an identity at login
type User struct {
	ID         uuid.UUID       `json:"id"`
	PubKey     Identity        `json:"pubKey"`
	UsdBalance decimal.Decimal `json:"usdBalance"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Settings are the global game settings checked before play is allowed
type Settings struct {
	DisableGame bool `json:"disableGame"`
}

// LoginResult is the outcome of a login attempt
type LoginResult struct {
	Authenticated bool
	User          *User
	Token         string
	ExpiresAt     time.Time
}

// ClientSessionState is what a client holds about its wallet and session
type ClientSessionState struct {
	WalletConnected bool
	WalletPubKey    string
	Token           string
}
