package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/playdegen/auth/core"
	"github.com/shopspring/decimal"
)

// Querier is the subset of pgxpool.Pool used by PostgresStore
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)

// PostgresStore is a Postgres implementation of the user and settings stores
type PostgresStore struct {
	db Querier
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPool opens a pgx connection pool and checks it is reachable
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

// GetUserOrCreate returns the user for pubKey, creating it on first sight.
// The insert and the read are separate statements so a row committed by a
// concurrent insert is visible to the read.
func (s *PostgresStore) GetUserOrCreate(ctx context.Context, pubKey core.Identity) (*core.User, error) {
	if pubKey == "" {
		return nil, core.ErrInvalidIdentity
	}

	query := `INSERT INTO users (id, pub_key, usd_balance, created_at)
			  VALUES ($1, $2, 0, $3)
			  ON CONFLICT (pub_key) DO NOTHING`

	if _, err := s.db.Exec(ctx, query, uuid.New(), pubKey, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetUser(ctx, pubKey)
}

// GetUser returns the user for pubKey or core.ErrUserNotFound
func (s *PostgresStore) GetUser(ctx context.Context, pubKey core.Identity) (*core.User, error) {
	query := `SELECT id, pub_key, usd_balance::text, created_at FROM users WHERE pub_key = $1`

	var (
		user    core.User
		balance string
	)
	err := s.db.QueryRow(ctx, query, pubKey).Scan(&user.ID, &user.PubKey, &balance, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.UsdBalance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balance, err)
	}

	return &user, nil
}

// GetSettings returns the game settings or core.ErrSettingsNotFound
func (s *PostgresStore) GetSettings(ctx context.Context) (*core.Settings, error) {
	var settings core.Settings
	err := s.db.QueryRow(ctx, `SELECT disable_game FROM game_settings WHERE id = 1`).Scan(&settings.DisableGame)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}

// SaveSettings replaces the game settings
func (s *PostgresStore) SaveSettings(ctx context.Context, settings core.Settings) error {
	query := `INSERT INTO game_settings (id, disable_game) VALUES (1, $1)
			  ON CONFLICT (id) DO UPDATE SET disable_game = EXCLUDED.disable_game`

	if _, err := s.db.Exec(ctx, query, settings.DisableGame); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}
