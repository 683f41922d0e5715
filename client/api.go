package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/playdegen/auth/core"
)

// DefaultTimeout bounds every call made by API
const DefaultTimeout = 10 * time.Second

const (
	StatusActive   = "1"
	StatusInactive = "0"
)

// ErrUnexpectedStatus is returned for responses the session endpoints never produce
var ErrUnexpectedStatus = errors.New("unexpected response status")

// LoginResponse is the body of POST /api/login
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// StatusResponse is the body of POST /api/login/status
type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Token   string `json:"pdtok"`
}

// Active reports whether the server holds a session for the wallet
func (r *StatusResponse) Active() bool {
	return r.Status == StatusActive
}

// API calls the session endpoints of a server. It keeps the session cookie
// in a cookie jar like a browser would.
type API struct {
	baseURL *url.URL
	http    *http.Client
}

// APIOption configures an API
type APIOption func(*API)

// WithHTTPClient replaces the underlying client. Its jar must hold cookies
// for the session to survive between calls.
func WithHTTPClient(c *http.Client) APIOption {
	return func(a *API) { a.http = c }
}

// NewAPI creates a client for the server at baseURL
func NewAPI(baseURL string, opts ...APIOption) (*API, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	a := &API{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Login exchanges a signed login request for a session token
func (a *API) Login(ctx context.Context, req core.LoginRequest) (*LoginResponse, error) {
	var res LoginResponse
	status, err := a.post(ctx, "/api/login", req, &res)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: login returned %d: %s", ErrUnexpectedStatus, status, res.Message)
	}
	return &res, nil
}

// LoginStatus asks whether the current cookie is a session for pubKey.
// An inactive session is a normal response, not an error.
func (a *API) LoginStatus(ctx context.Context, pubKey string) (*StatusResponse, error) {
	body := map[string]any{"data": core.LoginData{PubKey: pubKey}}

	var res StatusResponse
	status, err := a.post(ctx, "/api/login/status", body, &res)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK && res.Active():
		return &res, nil
	case status == http.StatusUnauthorized:
		res.Status = StatusInactive
		return &res, nil
	default:
		return nil, fmt.Errorf("%w: login status returned %d", ErrUnexpectedStatus, status)
	}
}

// Logout asks the server to clear the session cookie
func (a *API) Logout(ctx context.Context) error {
	status, err := a.post(ctx, "/api/logout", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: logout returned %d", ErrUnexpectedStatus, status)
	}
	return nil
}

func (a *API) post(ctx context.Context, path string, body any, out any) (int, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL.JoinPath(path).String(), r)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}
