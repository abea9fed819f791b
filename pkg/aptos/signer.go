package aptos

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Signer holds the orchestrator's Aptos service account key. It is used
// only for the vault initialization side effect; mint and deposit payloads
// are signed by the caller.
type Signer struct {
	priv ed25519.PrivateKey
}

// NewSigner builds a signer from a hex-encoded ed25519 seed
func NewSigner(hexKey string) (*Signer, error) {
	h := strings.TrimPrefix(hexKey, "0x")
	seed, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("invalid service account key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("service account key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Signer{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKeyHex returns the 0x-prefixed public key
func (s *Signer) PublicKeyHex() string {
	pub := s.priv.Public().(ed25519.PublicKey)
	return "0x" + hex.EncodeToString(pub)
}

// Address derives the account address from the authentication key:
// sha3-256 of the public key followed by the single-signer scheme byte.
func (s *Signer) Address() string {
	pub := s.priv.Public().(ed25519.PublicKey)
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{0x00})
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Sign returns the hex-encoded ed25519 signature over message
func (s *Signer) Sign(message []byte) string {
	return "0x" + hex.EncodeToString(ed25519.Sign(s.priv, message))
}
