package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

// MasterKeyEnv names the environment variable consulted when no key file is configured.
const MasterKeyEnv = "PROFILESYNC_MASTER_KEY"

// sealInfo binds derived keys to this use so the same master key material
// can never produce a key that decrypts something else.
var sealInfo = []byte("profilesync credential store v1")

// ErrCiphertextTooShort is returned when sealed data cannot hold a nonce.
var ErrCiphertextTooShort = errors.New("cryptox: ciphertext too short")

// LoadMasterKey returns master key material from, in order:
//  1. the file at path, if it exists
//  2. the PROFILESYNC_MASTER_KEY environment variable
//  3. a freshly generated key, written to path (0600) when path is set
//
// Without a path or env var the generated key is ephemeral and anything sealed
// with it is lost when the process exits.
func LoadMasterKey(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
	}

	if env := os.Getenv(MasterKeyEnv); env != "" {
		return []byte(env), nil
	}

	key, err := GenerateToken(TokenSize256)
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create master key directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(key), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write master key file: %w", err)
		}
	}

	return []byte(key), nil
}

// Sealer encrypts small secrets with AES-256-GCM under a key derived from
// master key material via HKDF-SHA256.
//
// Sealed format: [12-byte nonce][ciphertext][16-byte auth tag]
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives an AES-256 key from keyMaterial.
func NewSealer(keyMaterial []byte) (*Sealer, error) {
	if len(keyMaterial) == 0 {
		return nil, errors.New("cryptox: empty master key")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, keyMaterial, nil, sealInfo), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: gcm}, nil
}

// Seal encrypts and authenticates plaintext with a random nonce.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. Tampered or foreign data fails authentication.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrCiphertextTooShort
	}

	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
