package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/playdegen/auth/core"
	"github.com/playdegen/auth/ports"
)

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs
type JWTTokenizer struct {
	secret []byte
	now    func() time.Time
}

// Option configures a JWTTokenizer
type Option func(*JWTTokenizer)

// WithClock replaces the time source used for issuing and validating tokens
func WithClock(now func() time.Time) Option {
	return func(j *JWTTokenizer) {
		j.now = now
	}
}

// NewJWTTokenizer creates a new JWT tokenizer signing with secret
func NewJWTTokenizer(secret string, opts ...Option) ports.Tokenizer {
	j := &JWTTokenizer{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Issue creates a signed token for identity
func (j *JWTTokenizer) Issue(identity core.Identity, ttl time.Duration) (string, error) {
	if identity == "" {
		return "", core.ErrInvalidIdentity
	}

	// Create claims
	now := j.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		User: identity,
	}

	// Create and sign token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Decode parses the token claims without verifying the signature
func (j *JWTTokenizer) Decode(tokenStr string) (*core.TokenPayload, error) {
	return DecodeUnverified(tokenStr)
}

// Verify validates signature and expiry and returns the token claims
func (j *JWTTokenizer) Verify(tokenStr string) (*core.TokenPayload, error) {
	// Parse token with custom claims
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, classify(err)
	}

	// Validate token
	if !token.Valid {
		return nil, core.ErrInvalidSignature
	}

	// Extract claims
	return toPayload(claims)
}

// DecodeUnverified parses a token's claims without checking its signature or
// expiry. It needs no secret, so clients can inspect the token they hold.
func DecodeUnverified(tokenStr string) (*core.TokenPayload, error) {
	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedToken, err)
	}
	return toPayload(claims)
}

func toPayload(claims *SessionClaims) (*core.TokenPayload, error) {
	if claims.User == "" {
		return nil, fmt.Errorf("%w: missing user claim", core.ErrMalformedToken)
	}

	payload := &core.TokenPayload{
		ID:   claims.ID,
		User: claims.User,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}

	return payload, nil
}

// classify maps jwt parse failures onto the codec error kinds
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", core.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", core.ErrMalformedToken, err)
	default:
		return fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}
}
