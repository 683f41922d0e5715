package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playdegen/auth/core"
)

// ExtractToken returns the session token carried by a request: the session
// cookie first, then an Authorization bearer token.
func ExtractToken(h http.Header) (string, bool) {
	req := http.Request{Header: h}
	if c, err := req.Cookie(core.SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	auth := h.Get("Authorization")
	if len(auth) > len("Bearer ") && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:]), true
	}

	return "", false
}

// writeCookie applies a cookie instruction. A zero MaxAge expires the cookie.
func writeCookie(c *gin.Context, ins core.CookieInstruction) {
	maxAge := ins.MaxAge
	if maxAge == 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(ins.Name, ins.Value, maxAge, "/", "", ins.Secure, ins.HTTPOnly)
}
