package keys

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
)

// DER prefixes used by ledger tooling for raw ed25519 keys.
var (
	derPrivatePrefix, _ = hex.DecodeString("302e020100300506032b657004220420")
	derPublicPrefix, _  = hex.DecodeString("302a300506032b6570032100")
)

// Generator implements the KeyGenerator port with ed25519 keys.
type Generator struct {
	rand io.Reader
}

// NewGenerator creates a generator reading from crypto/rand.
func NewGenerator() port.KeyGenerator {
	return &Generator{rand: rand.Reader}
}

// Generate creates a fresh keypair. The private key is the hex encoded
// 32-byte seed, the public key the hex encoded 32-byte key.
func (g *Generator) Generate() (entity.KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(g.rand)
	if err != nil {
		return entity.KeyPair{}, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return entity.KeyPair{
		PrivateKey: hex.EncodeToString(priv.Seed()),
		PublicKey:  hex.EncodeToString(pub),
	}, nil
}

// ParsePrivateKey decodes a hex private key: a 32-byte seed, a 64-byte
// seed+public key, or a DER encoded seed. An optional 0x prefix is allowed.
func ParsePrivateKey(s string) (ed25519.PrivateKey, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if len(b) == len(derPrivatePrefix)+ed25519.SeedSize && bytes.HasPrefix(b, derPrivatePrefix) {
		b = b[len(derPrivatePrefix):]
	}
	switch len(b) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(b), nil
	case ed25519.PrivateKeySize:
		priv := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
		if !bytes.Equal(priv[ed25519.SeedSize:], b[ed25519.SeedSize:]) {
			return nil, fmt.Errorf("invalid private key: public half does not match seed")
		}
		return priv, nil
	default:
		return nil, fmt.Errorf("invalid private key: unexpected length %d", len(b))
	}
}

// ParsePublicKey decodes a hex public key, raw or DER encoded.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidPublicKey, err)
	}
	if len(b) == len(derPublicPrefix)+ed25519.PublicKeySize && bytes.HasPrefix(b, derPublicPrefix) {
		b = b[len(derPublicPrefix):]
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: unexpected length %d", entity.ErrInvalidPublicKey, len(b))
	}
	return ed25519.PublicKey(b), nil
}

// PublicKeyHex returns the hex encoded raw public key of priv.
func PublicKeyHex(priv ed25519.PrivateKey) string {
	return hex.EncodeToString(priv.Public().(ed25519.PublicKey))
}

// SamePublicKey reports whether two hex public keys (raw or DER) are equal.
func SamePublicKey(a, b string) bool {
	pa, err := ParsePublicKey(a)
	if err != nil {
		return false
	}
	pb, err := ParsePublicKey(b)
	if err != nil {
		return false
	}
	return pa.Equal(pb)
}

// Sign returns the hex encoded signature of msg.
func Sign(priv ed25519.PrivateKey, msg []byte) string {
	return hex.EncodeToString(ed25519.Sign(priv, msg))
}

// Verify checks a hex encoded signature of msg against a hex public key.
func Verify(publicKey string, msg []byte, signature string) bool {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, fmt.Errorf("empty key")
	}
	return hex.DecodeString(s)
}
