package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playdegen/auth/internal/metrics"
	"github.com/playdegen/auth/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// SetupRouter sets up the Gin router. realtime is mounted at /ws when set.
func SetupRouter(authService *service.AuthService, realtime http.Handler, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggingMiddleware(logger), metrics.PrometheusMiddleware())

	handlers := NewAuthHandlers(authService)

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if realtime != nil {
		router.GET("/ws", gin.WrapH(realtime))
	}

	api := router.Group("/api")
	{
		api.POST("/login", handlers.Login)
		api.POST("/login/status", handlers.LoginStatus)
		api.POST("/logout", handlers.Logout)
		api.POST("/user", handlers.User)
		api.POST("/game/authorize", handlers.AuthorizePlay)
	}

	return router
}
