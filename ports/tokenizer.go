package ports

import (
	"time"

	"github.com/playdegen/auth/core"
)

// Tokenizer converts between identities and signed session tokens
type Tokenizer interface {
	// Issue signs a token bound to identity that expires after ttl
	Issue(identity core.Identity, ttl time.Duration) (string, error)

	// Decode parses claims without checking the signature. Never use the
	// result for authorization decisions.
	Decode(token string) (*core.TokenPayload, error)

	// Verify checks signature and expiry and returns the claims
	Verify(token string) (*core.TokenPayload, error)
}

// SignatureVerifier checks that a login payload was signed by the holder of
// data.PubKey
type SignatureVerifier interface {
	Verify(signature string, data core.LoginData) bool
}
