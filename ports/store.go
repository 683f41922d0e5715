package ports

import (
	"context"

	"github.com/playdegen/auth/core"
)

// UserStore resolves user records by wallet public key.
// GetUserOrCreate must be idempotent under concurrent calls for the same key.
type UserStore interface {
	GetUserOrCreate(ctx context.Context, pubKey core.Identity) (*core.User, error)
	GetUser(ctx context.Context, pubKey core.Identity) (*core.User, error)
}

// SettingsStore holds the global game settings
type SettingsStore interface {
	GetSettings(ctx context.Context) (*core.Settings, error)
	SaveSettings(ctx context.Context, settings core.Settings) error
}
