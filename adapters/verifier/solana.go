package verifier

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
	"github.com/playdegen/auth/core"
	"github.com/playdegen/auth/ports"
)

// SolanaVerifier checks Ed25519 signatures made by Solana wallets over the
// canonical login payload
type SolanaVerifier struct{}

// NewSolanaVerifier creates a new Solana signature verifier
func NewSolanaVerifier() ports.SignatureVerifier {
	return SolanaVerifier{}
}

// Verify reports whether signature is a valid signature of data by data.PubKey
func (SolanaVerifier) Verify(signature string, data core.LoginData) bool {
	pubKey, err := DecodePublicKey(data.PubKey)
	if err != nil {
		return false
	}

	sig, err := DecodeSignature(signature)
	if err != nil {
		return false
	}

	msg, err := data.Message()
	if err != nil {
		return false
	}

	return ed25519.Verify(pubKey, msg, sig)
}

// DecodePublicKey decodes a base58 Solana address into an Ed25519 public key
func DecodePublicKey(address string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// DecodeSignature accepts a base58 or 0x-prefixed hex signature of 64 bytes
func DecodeSignature(signature string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(signature, "0x") || strings.HasPrefix(signature, "0X") {
		raw, err = hexutil.Decode(signature)
	} else {
		raw, err = base58.Decode(signature)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(raw) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature must be %d bytes: %w", ed25519.SignatureSize, core.ErrInvalidSignature)
	}
	return raw, nil
}

// EncodeSignature renders a signature the way wallets send it
func EncodeSignature(sig []byte) string {
	return base58.Encode(sig)
}

// Sign signs the canonical login payload with key. Used by local wallets.
func Sign(key ed25519.PrivateKey, data core.LoginData) (string, error) {
	msg, err := data.Message()
	if err != nil {
		return "", fmt.Errorf("failed to encode login payload: %w", err)
	}
	return EncodeSignature(ed25519.Sign(key, msg)), nil
}
