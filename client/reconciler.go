package client

import (
	"context"
	"sync"

	"github.com/playdegen/auth/adapters/tokenizer"
	"github.com/playdegen/auth/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State of the client session
type State int

const (
	Disconnected State = iota
	ConnectedUnknown
	ConnectedEstablished
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedUnknown:
		return "connected/unknown"
	case ConnectedEstablished:
		return "connected/established"
	default:
		return "invalid"
	}
}

// ConnectionEvent reports a wallet connection change. Wallet is nil on disconnect.
type ConnectionEvent struct {
	Connected bool
	Wallet    Wallet
}

// SessionAPI is the server side of the session protocol
type SessionAPI interface {
	Login(ctx context.Context, req core.LoginRequest) (*LoginResponse, error)
	LoginStatus(ctx context.Context, pubKey string) (*StatusResponse, error)
	Logout(ctx context.Context) error
}

// TokenSink stores the session token held by the client. SetToken runs while
// the reconciler holds its lock and must not call back into it.
type TokenSink interface {
	SetToken(token string)
}

// TokenSinkFunc adapts a function to TokenSink
type TokenSinkFunc func(token string)

func (f TokenSinkFunc) SetToken(token string) { f(token) }

// Reloader restarts the client from a clean state
type Reloader interface {
	Reload()
}

// ReloaderFunc adapts a function to Reloader
type ReloaderFunc func()

func (f ReloaderFunc) Reload() { f() }

// Reconciler keeps the wallet connection, the server session and the stored
// token consistent. Every event runs a full cycle and supersedes the cycle
// before it: results that arrive for an older event or for a wallet that is
// no longer connected are dropped.
type Reconciler struct {
	api      SessionAPI
	sink     TokenSink
	reloader Reloader
	logger   zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	state   State
	session core.ClientSessionState
}

// ReconcilerOption configures a Reconciler
type ReconcilerOption func(*Reconciler)

func WithReconcilerLogger(l zerolog.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = l }
}

func NewReconciler(api SessionAPI, sink TokenSink, reloader Reloader, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		api:      api,
		sink:     sink,
		reloader: reloader,
		logger:   log.Logger,
		state:    Disconnected,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Session returns a copy of the client session
func (r *Reconciler) Session() core.ClientSessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Handle runs one reconciliation cycle for ev and returns the resulting state
func (r *Reconciler) Handle(ctx context.Context, ev ConnectionEvent) State {
	cycle := r.begin(ctx, ev)
	defer cycle.cancel()
	r.run(cycle, ev)
	return r.State()
}

// Run handles events until ctx is done or events is closed. Cycles run
// concurrently, each new event superseding the ones still in flight.
func (r *Reconciler) Run(ctx context.Context, events <-chan ConnectionEvent) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			cycle := r.begin(ctx, ev)
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer cycle.cancel()
				r.run(cycle, ev)
			}()
		}
	}
}

type cycle struct {
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
	pubKey string
}

// begin supersedes the running cycle and enters the state ev leads to
func (r *Reconciler) begin(ctx context.Context, ev ConnectionEvent) cycle {
	cctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	r.cancel = cancel

	c := cycle{ctx: cctx, cancel: cancel, gen: r.gen}
	if ev.Connected && ev.Wallet != nil {
		c.pubKey = ev.Wallet.PublicKey()
		r.state = ConnectedUnknown
		r.session = core.ClientSessionState{WalletConnected: true, WalletPubKey: c.pubKey, Token: r.session.Token}
		// a held token never outlives the wallet it was issued to
		if r.session.Token != "" && !heldBy(r.session.Token, c.pubKey) {
			r.setToken("")
		}
	} else {
		r.state = Disconnected
		r.session = core.ClientSessionState{Token: r.session.Token}
	}
	return c
}

// commit applies fn if c is still the latest cycle
func (r *Reconciler) commit(c cycle, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.gen != r.gen || r.session.WalletPubKey != c.pubKey {
		r.logger.Debug().Uint64("cycle", c.gen).Uint64("latest", r.gen).Msg("dropping superseded result")
		return false
	}
	fn()
	return true
}

func heldBy(token, pubKey string) bool {
	payload, err := tokenizer.DecodeUnverified(token)
	return err == nil && payload.User == pubKey
}

func (r *Reconciler) setToken(token string) {
	r.session.Token = token
	r.sink.SetToken(token)
}

func (r *Reconciler) run(c cycle, ev ConnectionEvent) {
	if c.pubKey == "" {
		r.disconnect(c)
		return
	}
	r.connect(c, ev.Wallet)
}

func (r *Reconciler) disconnect(c cycle) {
	if err := r.api.Logout(c.ctx); err != nil {
		r.logger.Info().Err(err).Msg("logout failed")
	}
	r.commit(c, func() { r.setToken("") })
}

func (r *Reconciler) connect(c cycle, wallet Wallet) {
	status, err := r.api.LoginStatus(c.ctx, c.pubKey)
	if err != nil {
		r.logger.Info().Err(err).Str("wallet", c.pubKey).Msg("login status failed")
		return
	}

	if status.Active() {
		payload, err := tokenizer.DecodeUnverified(status.Token)
		if err != nil || payload.User != c.pubKey {
			// the session cookie belongs to the previously connected wallet
			r.logger.Info().Str("wallet", c.pubKey).Msg("session bound to another wallet, reloading")
			if err := r.api.Logout(c.ctx); err != nil {
				r.logger.Info().Err(err).Msg("logout failed")
			}
			if r.commit(c, func() { r.setToken("") }) {
				r.reloader.Reload()
			}
			return
		}

		r.commit(c, func() {
			r.setToken(status.Token)
			r.state = ConnectedEstablished
		})
		return
	}

	data := core.LoginData{PubKey: c.pubKey}
	signature, err := wallet.SignLogin(data)
	if err != nil {
		r.logger.Info().Err(err).Str("wallet", c.pubKey).Msg("wallet refused to sign")
		return
	}

	res, err := r.api.Login(c.ctx, core.LoginRequest{Signature: signature, Data: data})
	if err != nil {
		r.logger.Info().Err(err).Str("wallet", c.pubKey).Msg("login failed")
		return
	}

	r.commit(c, func() {
		r.setToken(res.Token)
		r.state = ConnectedEstablished
	})
}
