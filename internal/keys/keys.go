// Package keys validates the base58 account keys used as identities
// throughout the engine: sellers, bidders, token mints, NFT collections
// and the engine's own custodian account.
package keys

import (
	"crypto/rand"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// KeyLen is the raw key length in bytes.
const KeyLen = 32

// Validate checks that addr is a base58-encoded 32-byte key.
func Validate(addr string) error {
	if addr == "" {
		return fmt.Errorf("empty account key")
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode account key %q: %w", addr, err)
	}
	if len(raw) != KeyLen {
		return fmt.Errorf("account key %q: expected %d bytes, got %d", addr, KeyLen, len(raw))
	}
	return nil
}

// IsOnCurve reports whether the key decodes to a valid ed25519 point.
// Wallet keys are on-curve; derived program accounts and the engine's
// custodian key are not.
func IsOnCurve(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != KeyLen {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// Generate returns a random on-curve account key, for wallets in tests
// and local mode.
func Generate() (string, error) {
	var seed [KeyLen]byte
	for {
		if _, err := rand.Read(seed[:]); err != nil {
			return "", fmt.Errorf("read random seed: %w", err)
		}
		if _, err := new(edwards25519.Point).SetBytes(seed[:]); err == nil {
			return base58.Encode(seed[:]), nil
		}
	}
}

// GenerateOffCurve returns a random key that is not a valid curve point,
// suitable as a custodian or contract account.
func GenerateOffCurve() (string, error) {
	var raw [KeyLen]byte
	for {
		if _, err := rand.Read(raw[:]); err != nil {
			return "", fmt.Errorf("read random key: %w", err)
		}
		if _, err := new(edwards25519.Point).SetBytes(raw[:]); err != nil {
			return base58.Encode(raw[:]), nil
		}
	}
}
