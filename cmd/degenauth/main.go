package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/playdegen/auth/adapters/events"
	"github.com/playdegen/auth/adapters/store"
	"github.com/playdegen/auth/adapters/tokenizer"
	"github.com/playdegen/auth/adapters/verifier"
	"github.com/playdegen/auth/core"
	"github.com/playdegen/auth/internal/config"
	"github.com/playdegen/auth/internal/logger"
	"github.com/playdegen/auth/migrations"
	"github.com/playdegen/auth/ports"
	"github.com/playdegen/auth/service"
	transport "github.com/playdegen/auth/transport/http"
	"github.com/playdegen/auth/transport/realtime"
)

type backend struct {
	users    ports.UserStore
	settings ports.SettingsStore
	close    func()
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger.Setup(cfg.LogLevel)
	log.Info().
		Str("env", cfg.AppEnv).
		Str("store", cfg.Store.Driver).
		Str("addr", cfg.HTTP.Addr).
		Msg("Service starting")

	if cfg.UsesInsecureSecret() {
		log.Warn().Msg("JWT_SECRET is not set, session tokens are signed with an insecure development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to parse Redis URL")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	b, err := openBackend(ctx, cfg, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer b.close()

	if err := ensureSettings(ctx, b.settings, cfg.Game.Disabled); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize game settings")
	}

	publisher, subscriber, err := openPubSub(redisClient, logger.NewWatermillAdapter(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create event bus")
	}
	defer publisher.Close()
	defer subscriber.Close()

	eventPub := events.NewWatermillPublisher(publisher)
	authService := service.NewAuthService(
		tokenizer.NewJWTTokenizer(cfg.JWT.Secret),
		verifier.NewSolanaVerifier(),
		b.users,
		b.settings,
		service.WithEventPublisher(eventPub),
		service.WithChannelPublisher(eventPub),
		service.WithLogger(log.Logger),
		service.WithTokenTTL(cfg.JWT.TTL),
		service.WithMinBalance(cfg.Game.MinBalance),
		service.WithGameDisabled(cfg.Game.Disabled),
		service.WithSecureCookies(cfg.IsProduction()),
	)

	var wsOpts []realtime.ServerOption
	if len(cfg.Realtime.AllowedOrigins) > 0 {
		wsOpts = append(wsOpts, realtime.WithCheckOrigin(realtime.AllowOrigins(cfg.Realtime.AllowedOrigins...)))
	}

	hub := realtime.NewHub()
	ws := realtime.NewServer(hub, realtime.NewChannelAuthenticator(authService, hub, log.Logger), log.Logger, wsOpts...)

	relay := realtime.NewRelay(subscriber, hub, log.Logger)
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Realtime relay stopped")
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: transport.SetupRouter(authService, ws, log.Logger),
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("Starting auth service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Graceful shutdown complete")
}

func openBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (*backend, error) {
	switch cfg.Store.Driver {
	case config.DriverRedis:
		s := store.NewRedisStore(redisClient)
		return &backend{users: s, settings: s, close: func() {}}, nil

	case config.DriverPostgres:
		if err := migrations.Migrate(ctx, cfg.Database.DSN); err != nil {
			return nil, err
		}
		pool, err := store.NewPool(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		s := store.NewPostgresStore(pool)
		return &backend{users: s, settings: s, close: pool.Close}, nil

	default:
		s := store.NewMemoryStore()
		return &backend{users: s, settings: s, close: func() {}}, nil
	}
}

// ensureSettings seeds the game settings on first start
func ensureSettings(ctx context.Context, settings ports.SettingsStore, disabled bool) error {
	_, err := settings.GetSettings(ctx)
	if errors.Is(err, core.ErrSettingsNotFound) {
		return settings.SaveSettings(ctx, core.Settings{DisableGame: disabled})
	}
	return err
}

// openPubSub uses redis streams when redis is configured so events reach
// every instance, and an in-process channel otherwise
func openPubSub(redisClient *redis.Client, wmLogger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	if redisClient == nil {
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		return pubSub, pubSub, nil
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		wmLogger,
	)
	if err != nil {
		return nil, nil, err
	}

	// no consumer group: every instance receives every event
	subscriber, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{Client: redisClient},
		wmLogger,
	)
	if err != nil {
		publisher.Close()
		return nil, nil, err
	}

	return publisher, subscriber, nil
}
