package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playdegen/auth/core"
	"github.com/playdegen/auth/service"
	"github.com/rs/zerolog"
)

type identityRequest struct {
	Data struct {
		PubKey string `json:"pubKey" binding:"required"`
	} `json:"data"`
}

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// Login handles the login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req core.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	writeCookie(c, h.authService.SessionCookie(res.Token))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   res.Token,
	})
}

// LoginStatus reports whether the presented session belongs to the wallet in the body
func (h *AuthHandlers) LoginStatus(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request", "status": "0"})
		return
	}

	token, _ := ExtractToken(c.Request.Header)
	if _, err := h.authService.LoginStatus(c.Request.Context(), token, req.Data.PubKey); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized", "status": "0"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "success",
		"status":  "1",
		"pdtok":   token,
	})
}

// Logout clears the session cookie. It always succeeds.
func (h *AuthHandlers) Logout(c *gin.Context) {
	token, _ := ExtractToken(c.Request.Header)
	writeCookie(c, h.authService.Logout(c.Request.Context(), token))
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// User returns the authenticated user with the game settings
func (h *AuthHandlers) User(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	token, _ := ExtractToken(c.Request.Header)
	user, settings, err := h.authService.UserInfo(c.Request.Context(), token, req.Data.PubKey)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"user":     user,
			"settings": settings,
		},
	})
}

// AuthorizePlay checks session, balance and game settings before play
func (h *AuthHandlers) AuthorizePlay(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	token, _ := ExtractToken(c.Request.Header)
	if _, _, err := h.authService.AuthorizePlay(c.Request.Context(), token, req.Data.PubKey); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Authorized"})
}

// Health reports liveness
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AuthHandlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrFailedToAuthenticate):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	case errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrGameDisabled),
		errors.Is(err, core.ErrSettingsNotFound):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
