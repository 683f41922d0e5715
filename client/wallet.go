package client

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/playdegen/auth/adapters/verifier"
	"github.com/playdegen/auth/core"
)

// Wallet is a connected wallet able to sign the login payload
type Wallet interface {
	PublicKey() string
	SignLogin(data core.LoginData) (string, error)
}

// KeypairWallet signs with a local Ed25519 keypair
type KeypairWallet struct {
	pubKey string
	key    ed25519.PrivateKey
}

// NewKeypairWallet wraps key
func NewKeypairWallet(key ed25519.PrivateKey) *KeypairWallet {
	return &KeypairWallet{
		pubKey: base58.Encode(key.Public().(ed25519.PublicKey)),
		key:    key,
	}
}

// GenerateKeypairWallet creates a wallet with a fresh random key
func GenerateKeypairWallet() (*KeypairWallet, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewKeypairWallet(key), nil
}

// LoadKeypairWallet decodes a base58 64-byte secret key as exported by
// Solana wallets
func LoadKeypairWallet(secret string) (*KeypairWallet, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return NewKeypairWallet(ed25519.PrivateKey(raw)), nil
}

func (w *KeypairWallet) PublicKey() string { return w.pubKey }

// SecretKey returns the base58 secret key accepted by LoadKeypairWallet
func (w *KeypairWallet) SecretKey() string { return base58.Encode(w.key) }

// SignLogin signs the canonical login message
func (w *KeypairWallet) SignLogin(data core.LoginData) (string, error) {
	return verifier.Sign(w.key, data)
}
