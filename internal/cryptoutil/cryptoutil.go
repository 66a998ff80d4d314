// Package cryptoutil seals session-store values at rest.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sealer encrypts and decrypts stored values. The binding string is
// authenticated but not stored; Open fails unless it matches the one used to Seal.
type Sealer interface {
	Seal(plaintext, binding string) (string, error)
	Open(sealed, binding string) (string, error)
}

const sealedPrefixV1 = "v1:"

// ErrUnsealed is returned when a value does not carry a known sealed prefix.
var ErrUnsealed = errors.New("value is not sealed")

// AESGCMSealer implements Sealer using AES-256-GCM.
type AESGCMSealer struct {
	aead cipher.AEAD
}

// NewAESGCMSealer constructs a sealer from a 32-byte key.
func NewAESGCMSealer(key []byte) (*AESGCMSealer, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCMSealer{aead: aead}, nil
}

// NewSealerFromKey accepts a 64-character hex key; any other non-empty string
// is hashed with SHA-256 to derive the key.
func NewSealerFromKey(key string) (*AESGCMSealer, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("encryption key is required")
	}
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		return NewAESGCMSealer(decoded)
	}
	sum := sha256.Sum256([]byte(key))
	return NewAESGCMSealer(sum[:])
}

// Seal encrypts plaintext with a random nonce and returns a versioned base64 string.
func (s *AESGCMSealer) Seal(plaintext, binding string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	// nonce||ciphertext
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(binding))
	return sealedPrefixV1 + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal with the same binding.
func (s *AESGCMSealer) Open(sealed, binding string) (string, error) {
	raw, ok := strings.CutPrefix(sealed, sealedPrefixV1)
	if !ok {
		return "", ErrUnsealed
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	n := s.aead.NonceSize()
	if len(data) < n {
		return "", errors.New("sealed value too short")
	}
	pt, err := s.aead.Open(nil, data[:n], data[n:], []byte(binding))
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return string(pt), nil
}

// PlainSealer stores values unchanged.
type PlainSealer struct{}

func (PlainSealer) Seal(plaintext, _ string) (string, error) { return plaintext, nil }

func (PlainSealer) Open(sealed, _ string) (string, error) { return sealed, nil }
