package realtime

import (
	"github.com/playdegen/auth/core"
	"github.com/playdegen/auth/internal/metrics"
	"github.com/rs/zerolog"
)

// TokenVerifier checks a session token and returns its claims
type TokenVerifier interface {
	VerifyToken(token string) (*core.TokenPayload, error)
}

// ChannelAuthenticator joins a member to the channel of the wallet its token
// is bound to
type ChannelAuthenticator struct {
	verifier TokenVerifier
	hub      *Hub
	logger   zerolog.Logger
}

func NewChannelAuthenticator(verifier TokenVerifier, hub *Hub, logger zerolog.Logger) *ChannelAuthenticator {
	return &ChannelAuthenticator{
		verifier: verifier,
		hub:      hub,
		logger:   logger.With().Str("component", "realtime").Logger(),
	}
}

// Authenticate verifies token and joins m to the token's user channel.
// A failure is only logged: m joins nothing and stays connected.
func (a *ChannelAuthenticator) Authenticate(m Member, token string) bool {
	payload, err := a.verifier.VerifyToken(token)
	metrics.ChannelAuthTotal.WithLabelValues(metrics.Result(err == nil)).Inc()
	if err != nil {
		a.logger.Info().Err(err).Str("conn", m.ID()).Msg("channel authentication failed")
		return false
	}

	a.hub.Join(payload.User, m)
	a.logger.Debug().Str("conn", m.ID()).Str("wallet", payload.User).Msg("joined wallet channel")
	return true
}
