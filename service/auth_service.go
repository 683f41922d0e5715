package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playdegen/auth/core"
	"github.com/playdegen/auth/internal/metrics"
	"github.com/playdegen/auth/ports"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// EventUser is pushed to a wallet channel with the user record after login
const EventUser = "user"

// DefaultMinBalance is the usd balance a user needs before play is authorized
var DefaultMinBalance = decimal.RequireFromString("0.5")

// AuthService handles authentication business logic
type AuthService struct {
	tokenizer ports.Tokenizer
	verifier  ports.SignatureVerifier
	users     ports.UserStore
	settings  ports.SettingsStore
	eventPub  ports.EventPublisher
	channels  ports.ChannelPublisher
	logger    zerolog.Logger

	tokenTTL      time.Duration
	minBalance    decimal.Decimal
	gameDisabled  bool
	secureCookies bool
}

// Option configures an AuthService
type Option func(*AuthService)

// WithEventPublisher publishes login and logout events through pub
func WithEventPublisher(pub ports.EventPublisher) Option {
	return func(s *AuthService) { s.eventPub = pub }
}

// WithChannelPublisher pushes user updates to the wallet's realtime channel
func WithChannelPublisher(pub ports.ChannelPublisher) Option {
	return func(s *AuthService) { s.channels = pub }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *AuthService) { s.logger = l }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *AuthService) { s.tokenTTL = ttl }
}

func WithMinBalance(balance decimal.Decimal) Option {
	return func(s *AuthService) { s.minBalance = balance }
}

// WithGameDisabled disables play regardless of the stored settings
func WithGameDisabled(disabled bool) Option {
	return func(s *AuthService) { s.gameDisabled = disabled }
}

// WithSecureCookies marks session cookies Secure. Enable in production.
func WithSecureCookies(secure bool) Option {
	return func(s *AuthService) { s.secureCookies = secure }
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tokenizer ports.Tokenizer,
	verifier ports.SignatureVerifier,
	users ports.UserStore,
	settings ports.SettingsStore,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		tokenizer:  tokenizer,
		verifier:   verifier,
		users:      users,
		settings:   settings,
		eventPub:   nopPublisher{},
		channels:   nopPublisher{},
		logger:     log.Logger,
		tokenTTL:   core.DefaultSessionTTL,
		minBalance: DefaultMinBalance,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "auth").Logger()
	return s
}

// Login verifies the wallet signature over req.Data and issues a session
// token bound to req.Data.PubKey. The user record is only resolved once the
// signature checks out.
func (s *AuthService) Login(ctx context.Context, req core.LoginRequest) (*core.LoginResult, error) {
	pubKey := req.Data.PubKey

	// Verify the signature
	if !s.verifier.Verify(req.Signature, req.Data) {
		metrics.LoginTotal.WithLabelValues(metrics.ResultFailure).Inc()
		s.logger.Info().Str("wallet", pubKey).Msg("login rejected: invalid signature")
		return &core.LoginResult{Authenticated: false}, core.ErrInvalidCredentials
	}

	// Resolve or create the user
	user, err := s.users.GetUserOrCreate(ctx, pubKey)
	if err != nil {
		metrics.LoginTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	// Generate token
	token, err := s.tokenizer.Issue(pubKey, s.tokenTTL)
	if err != nil {
		metrics.LoginTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	payload, err := s.tokenizer.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode issued token: %w", err)
	}

	// Publish events
	if err := s.eventPub.PublishLogin(ctx, pubKey, payload.ID); err != nil {
		s.logger.Warn().Err(err).Str("wallet", pubKey).Msg("failed to publish login event")
	}
	if err := s.channels.PublishChannel(ctx, pubKey, EventUser, user); err != nil {
		s.logger.Warn().Err(err).Str("wallet", pubKey).Msg("failed to push user to channel")
	}

	metrics.LoginTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Info().Str("wallet", pubKey).Str("user_id", user.ID.String()).Msg("login successful")

	return &core.LoginResult{
		Authenticated: true,
		User:          user,
		Token:         token,
		ExpiresAt:     payload.ExpiresAt,
	}, nil
}

// ValidateRequest checks that token is a valid session token bound to
// claimedIdentity. Every failure is a *core.AuthError; the cause is logged.
func (s *AuthService) ValidateRequest(ctx context.Context, token string, claimedIdentity core.Identity) (*core.TokenPayload, error) {
	payload, authErr := s.validate(token, claimedIdentity)
	metrics.ValidationTotal.WithLabelValues(metrics.Result(authErr == nil)).Inc()
	if authErr != nil {
		s.log(ctx).Info().
			Str("kind", authErr.Kind.Error()).
			AnErr("cause", authErr.Cause).
			Str("wallet", claimedIdentity).
			Msg("failed to parse or validate token")
		return nil, authErr
	}
	return payload, nil
}

func (s *AuthService) validate(token string, claimedIdentity core.Identity) (*core.TokenPayload, *core.AuthError) {
	if token == "" {
		return nil, core.NewAuthError(core.ErrTokenNotFound, nil)
	}

	// Validate token
	payload, err := s.tokenizer.Verify(token)
	if err != nil {
		return nil, core.NewAuthError(core.ErrTokenInvalid, err)
	}

	// The token must be bound to the wallet making the claim
	if payload.User != claimedIdentity {
		return nil, core.NewAuthError(core.ErrUnauthorizedIdentity,
			fmt.Errorf("token bound to %s, claimed %s", payload.User, claimedIdentity))
	}

	return payload, nil
}

// LoginStatus reports whether token is an active session for pubKey
func (s *AuthService) LoginStatus(ctx context.Context, token string, pubKey core.Identity) (bool, error) {
	if _, err := s.ValidateRequest(ctx, token, pubKey); err != nil {
		return false, err
	}
	return true, nil
}

// VerifyToken checks signature and expiry of token without an identity claim.
// It backs realtime channel authentication where the token names the channel.
func (s *AuthService) VerifyToken(token string) (*core.TokenPayload, error) {
	if token == "" {
		return nil, core.NewAuthError(core.ErrTokenNotFound, nil)
	}
	payload, err := s.tokenizer.Verify(token)
	if err != nil {
		return nil, core.NewAuthError(core.ErrTokenInvalid, err)
	}
	return payload, nil
}

// Logout returns the instruction that clears the session cookie. Tokens are
// not revoked server side; a still valid token presented here only triggers a
// logout event so other connections of the wallet can react.
func (s *AuthService) Logout(ctx context.Context, token string) core.CookieInstruction {
	if token != "" {
		if payload, err := s.tokenizer.Verify(token); err == nil {
			if err := s.eventPub.PublishLogout(ctx, payload.User); err != nil {
				s.logger.Warn().Err(err).Str("wallet", payload.User).Msg("failed to publish logout event")
			}
		}
	}
	return s.ClearCookie()
}

// AuthenticateUser validates token for identity and loads the user record
func (s *AuthService) AuthenticateUser(ctx context.Context, token string, identity core.Identity) (*core.User, error) {
	if _, err := s.ValidateRequest(ctx, token, identity); err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// UserInfo returns the authenticated user with the current game settings.
// Missing settings are reported as nil.
func (s *AuthService) UserInfo(ctx context.Context, token string, identity core.Identity) (*core.User, *core.Settings, error) {
	user, err := s.AuthenticateUser(ctx, token, identity)
	if err != nil {
		return nil, nil, err
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil && !errors.Is(err, core.ErrSettingsNotFound) {
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return user, settings, nil
}

// AuthorizePlay applies the balance and settings checks on top of a valid session
func (s *AuthService) AuthorizePlay(ctx context.Context, token string, identity core.Identity) (*core.User, *core.Settings, error) {
	if _, err := s.ValidateRequest(ctx, token, identity); err != nil {
		return nil, nil, err
	}

	// Check balance
	user, err := s.users.GetUser(ctx, identity)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, nil, core.ErrInsufficientBalance
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.UsdBalance.LessThan(s.minBalance) {
		return nil, nil, core.ErrInsufficientBalance
	}

	// Check game settings
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, core.ErrSettingsNotFound) {
			return nil, nil, core.ErrSettingsNotFound
		}
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if s.gameDisabled || settings.DisableGame {
		return nil, nil, core.ErrGameDisabled
	}

	return user, settings, nil
}

// SessionCookie is the instruction that stores token on the client
func (s *AuthService) SessionCookie(token string) core.CookieInstruction {
	return core.CookieInstruction{
		Name:     core.SessionCookieName,
		Value:    token,
		MaxAge:   int(s.tokenTTL / time.Second),
		HTTPOnly: true,
		Secure:   s.secureCookies,
	}
}

// ClearCookie expires the session cookie
func (s *AuthService) ClearCookie() core.CookieInstruction {
	return core.CookieInstruction{
		Name:     core.SessionCookieName,
		Value:    "",
		MaxAge:   0,
		HTTPOnly: true,
		Secure:   s.secureCookies,
	}
}

// log prefers the request scoped logger carried by ctx
func (s *AuthService) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

type nopPublisher struct{}

func (nopPublisher) PublishLogin(context.Context, string, string) error { return nil }
func (nopPublisher) PublishLogout(context.Context, string) error        { return nil }
func (nopPublisher) PublishChannel(context.Context, string, string, any) error {
	return nil
}
