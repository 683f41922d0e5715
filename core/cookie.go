package core

import "time"

const (
	// SessionCookieName is the cookie carrying the session token
	SessionCookieName = "playdegen-token"

	// DefaultSessionTTL is how long an issued session token stays valid
	DefaultSessionTTL = 24 * time.Hour
)

// CookieInstruction describes a Set-Cookie the transport layer has to write.
// SameSite is always Strict for session cookies.
type CookieInstruction struct {
	Name     string
	Value    string
	MaxAge   int // seconds; 0 expires the cookie
	HTTPOnly bool
	Secure   bool
}
