package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playdegen/auth/adapters/store"
	"github.com/playdegen/auth/adapters/tokenizer"
	"github.com/playdegen/auth/adapters/verifier"
	"github.com/playdegen/auth/core"
	"github.com/playdegen/auth/service"
)

const secret = "test-secret"

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
}

func newTestServer(t *testing.T, opts ...service.Option) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewMemoryStore()
	svc := service.NewAuthService(
		tokenizer.NewJWTTokenizer(secret),
		verifier.NewSolanaVerifier(),
		s, s,
		append([]service.Option{service.WithLogger(zerolog.Nop())}, opts...)...,
	)
	return &testServer{
		router: SetupRouter(svc, nil, zerolog.Nop()),
		store:  s,
	}
}

func newWallet(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return base58.Encode(pub), priv
}

func (s *testServer) do(t *testing.T, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, wallet string, key ed25519.PrivateKey) *http.Cookie {
	t.Helper()
	data := core.LoginData{PubKey: wallet}
	sig, err := verifier.Sign(key, data)
	require.NoError(t, err)

	w := s.do(t, "/api/login", core.LoginRequest{Signature: sig, Data: data})
	require.Equal(t, http.StatusOK, w.Code)
	return sessionCookie(t, w)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == core.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", core.SessionCookieName)
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func identity(wallet string) gin.H {
	return gin.H{"data": gin.H{"pubKey": wallet}}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	wallet, key := newWallet(t)
	data := core.LoginData{PubKey: wallet}
	sig, err := verifier.Sign(key, data)
	require.NoError(t, err)

	w := s.do(t, "/api/login", core.LoginRequest{Signature: sig, Data: data})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Login successful", body["message"])

	cookie := sessionCookie(t, w)
	assert.Equal(t, body["token"], cookie.Value)
	assert.Equal(t, 86400, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
}

func TestLogin_SecureCookieInProduction(t *testing.T) {
	s := newTestServer(t, service.WithSecureCookies(true))
	wallet, key := newWallet(t)

	assert.True(t, s.login(t, wallet, key).Secure)
}

func TestLogin_InvalidSignature(t *testing.T) {
	s := newTestServer(t)
	wallet, _ := newWallet(t)
	_, otherKey := newWallet(t)
	data := core.LoginData{PubKey: wallet}
	sig, err := verifier.Sign(otherKey, data)
	require.NoError(t, err)

	w := s.do(t, "/api/login", core.LoginRequest{Signature: sig, Data: data})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["message"])
	assert.Empty(t, w.Result().Cookies())
	assert.Zero(t, s.store.Count())
}

func TestLogin_BadBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginStatus(t *testing.T) {
	s := newTestServer(t)
	wallet, key := newWallet(t)
	other, _ := newWallet(t)
	cookie := s.login(t, wallet, key)

	w := s.do(t, "/api/login/status", identity(wallet), cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "1", body["status"])
	assert.Equal(t, cookie.Value, body["pdtok"])

	tests := []struct {
		name    string
		wallet  string
		cookies []*http.Cookie
	}{
		{"no cookie", wallet, nil},
		{"other wallet", other, []*http.Cookie{cookie}},
		{"garbage cookie", wallet, []*http.Cookie{{Name: core.SessionCookieName, Value: "garbage"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, "/api/login/status", identity(tt.wallet), tt.cookies...)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := decode(t, w)
			assert.Equal(t, "0", body["status"])
			assert.Equal(t, "Unauthorized", body["message"])
			assert.NotContains(t, body, "pdtok")
		})
	}
}

func TestLoginStatus_BearerToken(t *testing.T) {
	s := newTestServer(t)
	wallet, key := newWallet(t)
	cookie := s.login(t, wallet, key)

	body, err := json.Marshal(identity(wallet))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/login/status", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+cookie.Value)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	wallet, key := newWallet(t)
	cookie := s.login(t, wallet, key)

	for _, cookies := range [][]*http.Cookie{{cookie}, nil} {
		w := s.do(t, "/api/logout", nil, cookies...)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Logout successful", decode(t, w)["message"])

		cleared := sessionCookie(t, w)
		assert.Empty(t, cleared.Value)
		assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
	}
}

func TestUser(t *testing.T) {
	s := newTestServer(t)
	wallet, key := newWallet(t)
	cookie := s.login(t, wallet, key)

	w := s.do(t, "/api/user", identity(wallet), cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			User     core.User      `json:"user"`
			Settings *core.Settings `json:"settings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, wallet, body.Data.User.PubKey)
	assert.Nil(t, body.Data.Settings)

	w = s.do(t, "/api/user", identity(wallet))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorizePlay(t *testing.T) {
	s := newTestServer(t)
	wallet, key := newWallet(t)
	cookie := s.login(t, wallet, key)

	w := s.do(t, "/api/game/authorize", identity(wallet), cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, core.ErrInsufficientBalance.Error(), decode(t, w)["message"])

	require.NoError(t, s.store.SetBalance(context.Background(), wallet, decimal.NewFromInt(5)))
	require.NoError(t, s.store.SaveSettings(context.Background(), core.Settings{DisableGame: true}))
	w = s.do(t, "/api/game/authorize", identity(wallet), cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, core.ErrGameDisabled.Error(), decode(t, w)["message"])

	require.NoError(t, s.store.SaveSettings(context.Background(), core.Settings{}))
	w = s.do(t, "/api/game/authorize", identity(wallet), cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, "/api/game/authorize", identity(wallet))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(TraceIDHeader))
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		want   string
		ok     bool
	}{
		{"none", http.Header{}, "", false},
		{"cookie", http.Header{"Cookie": {core.SessionCookieName + "=abc"}}, "abc", true},
		{"bearer", http.Header{"Authorization": {"Bearer xyz"}}, "xyz", true},
		{"cookie wins", http.Header{
			"Cookie":        {core.SessionCookieName + "=abc"},
			"Authorization": {"Bearer xyz"},
		}, "abc", true},
		{"empty cookie falls back", http.Header{
			"Cookie":        {core.SessionCookieName + "="},
			"Authorization": {"Bearer xyz"},
		}, "xyz", true},
		{"other scheme", http.Header{"Authorization": {"Basic Zm9vOmJhcg=="}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	c.Request.Header.Set(TraceParentHeader, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceID(c))

	c.Request.Header.Del(TraceParentHeader)
	c.Request.Header.Set(TraceIDHeader, "abc")
	assert.Equal(t, "abc", TraceID(c))

	c.Request.Header.Del(TraceIDHeader)
	assert.Len(t, TraceID(c), 32)
}
