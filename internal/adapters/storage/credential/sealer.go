package credential

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the length in bytes of a sealing key.
const KeySize = 32

const nonceSize = 24

// ErrUnseal is returned when a sealed value fails authentication,
// typically because the key changed since it was stored.
var ErrUnseal = errors.New("credential: cannot unseal stored value")

// Sealer encrypts and authenticates tokens at rest with NaCl secretbox.
type Sealer struct {
	key [KeySize]byte
}

// NewSealer creates a sealer from a raw 32-byte key.
// PRE: len(key) == KeySize
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("credential: key must be %d bytes, got %d", KeySize, len(key))
	}
	s := &Sealer{}
	copy(s.key[:], key)
	return s, nil
}

// NewSealerHex creates a sealer from a hex-encoded 32-byte key.
func NewSealerHex(hexKey string) (*Sealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("credential: decode key: %w", err)
	}
	return NewSealer(key)
}

// NewEphemeralSealer creates a sealer with a random key. Values sealed by it
// cannot be opened after the process exits.
func NewEphemeralSealer() (*Sealer, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("credential: generate key: %w", err)
	}
	return NewSealer(key)
}

// Seal encrypts plaintext. The output is nonce || box.
// POST: every call uses a fresh random nonce
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("credential: generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

// Open decrypts a value produced by Seal.
// Returns ErrUnseal if the value is truncated or fails authentication.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrUnseal
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrUnseal
	}
	return out, nil
}
