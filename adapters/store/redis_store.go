package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/playdegen/auth/core"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const settingsDisableGame = "disable_game"

// RedisStore is a Redis implementation of the user and settings stores
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "playdegen:",
	}
}

// GetUserOrCreate returns the user for pubKey, creating it on first sight.
// SETNX makes creation atomic, so concurrent logins converge on one record.
func (s *RedisStore) GetUserOrCreate(ctx context.Context, pubKey core.Identity) (*core.User, error) {
	if pubKey == "" {
		return nil, core.ErrInvalidIdentity
	}

	user := &core.User{
		ID:         uuid.New(),
		PubKey:     pubKey,
		UsdBalance: decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.userKey(pubKey), payload, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if created {
		return user, nil
	}

	return s.GetUser(ctx, pubKey)
}

// GetUser returns the user for pubKey or core.ErrUserNotFound
func (s *RedisStore) GetUser(ctx context.Context, pubKey core.Identity) (*core.User, error) {
	val, err := s.client.Get(ctx, s.userKey(pubKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user core.User
	if err := json.Unmarshal(val, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &user, nil
}

// GetSettings returns the game settings or core.ErrSettingsNotFound
func (s *RedisStore) GetSettings(ctx context.Context) (*core.Settings, error) {
	fields, err := s.client.HGetAll(ctx, s.settingsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrSettingsNotFound
	}

	disabled, err := strconv.ParseBool(fields[settingsDisableGame])
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", settingsDisableGame, err)
	}

	return &core.Settings{DisableGame: disabled}, nil
}

// SaveSettings replaces the game settings
func (s *RedisStore) SaveSettings(ctx context.Context, settings core.Settings) error {
	err := s.client.HSet(ctx, s.settingsKey(), settingsDisableGame, strconv.FormatBool(settings.DisableGame)).Err()
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

func (s *RedisStore) userKey(pubKey string) string {
	return s.prefix + "user:" + pubKey
}

func (s *RedisStore) settingsKey() string {
	return s.prefix + "settings"
}
