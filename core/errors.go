package core

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrMalformedToken     = errors.New("malformed token")
	ErrTokenExpired       = errors.New("token has expired")

	ErrFailedToAuthenticate = errors.New("failed to authenticate")
	ErrTokenNotFound        = errors.New("token not found")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrUnauthorizedIdentity = errors.New("unauthorized wallet for token")
	ErrInsufficientBalance  = errors.New("insufficient deposit balance")
	ErrGameDisabled         = errors.New("game is disabled")
	ErrSettingsNotFound     = errors.New("game settings not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidIdentity      = errors.New("invalid identity")
)

// AuthError is returned when a presented token cannot be used for the claimed
// identity. Every AuthError matches ErrFailedToAuthenticate, and also its Kind.
type AuthError struct {
	Kind  error
	Cause error
}

// NewAuthError builds an AuthError of the given kind
func NewAuthError(kind, cause error) *AuthError {
	return &AuthError{Kind: kind, Cause: cause}
}

func (e *AuthError) Error() string {
	return ErrFailedToAuthenticate.Error()
}

// Unwrap exposes the generic condition, the kind and the cause to errors.Is.
func (e *AuthError) Unwrap() []error {
	errs := []error{ErrFailedToAuthenticate}
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
