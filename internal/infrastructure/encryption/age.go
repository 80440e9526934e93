// Package encryption seals shop access tokens at rest with age (X25519).
// Ciphertext is stored base64-encoded.
package encryption

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"

	"section-store/internal/ports"
)

// Service encrypts to the recipient of its identity and decrypts with the identity
type Service struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

var _ ports.EncryptionService = (*Service)(nil)

// NewService parses an AGE-SECRET-KEY-1... key
func NewService(key string) (*Service, error) {
	identity, err := age.ParseX25519Identity(strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	return &Service{identity: identity, recipient: identity.Recipient()}, nil
}

// GenerateKey returns a fresh key suitable for ENCRYPTION_KEY
func GenerateKey() (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("generating age key: %w", err)
	}
	return identity.String(), nil
}

func (s *Service) Encrypt(plaintext string) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.recipient)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *Service) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), s.identity)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading plaintext: %w", err)
	}
	return string(plaintext), nil
}
