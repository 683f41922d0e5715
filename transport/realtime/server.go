package realtime

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const EventAuthenticate = "authenticate"

// Server upgrades HTTP requests to realtime connections
type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	auth     *ChannelAuthenticator
	logger   zerolog.Logger
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithCheckOrigin replaces the same-origin check of the upgrader
func WithCheckOrigin(check func(r *http.Request) bool) ServerOption {
	return func(s *Server) { s.upgrader.CheckOrigin = check }
}

// AllowOrigins accepts requests without an Origin header and requests whose
// Origin is one of origins. "*" accepts every origin.
func AllowOrigins(origins ...string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range origins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}
		return false
	}
}

func NewServer(hub *Hub, auth *ChannelAuthenticator, logger zerolog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		hub:    hub,
		auth:   auth,
		logger: logger.With().Str("component", "realtime").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := newConn(ws)
	defer s.hub.Leave(conn)

	go conn.writePump()
	if err := conn.readPump(func(f Frame) { s.handle(conn, f) }); err != nil {
		s.logger.Debug().Err(err).Str("conn", conn.ID()).Msg("connection closed")
	}
}

func (s *Server) handle(conn *Conn, frame Frame) {
	switch frame.Event {
	case EventAuthenticate:
		var token string
		if err := json.Unmarshal(frame.Data, &token); err != nil {
			s.logger.Info().Str("conn", conn.ID()).Msg("authenticate frame without token")
			return
		}
		s.auth.Authenticate(conn, token)
	default:
		s.logger.Debug().Str("conn", conn.ID()).Str("event", frame.Event).Msg("ignoring frame")
	}
}
