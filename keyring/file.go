package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

// File is a KV persisting each key as an encrypted file under a directory.
// Values are sealed with ChaCha20-Poly1305; a fresh nonce is generated per
// write and stored as the ciphertext prefix.
type File struct {
	dir string
	key []byte
}

// NewFile creates a file-backed KV rooted at dir. key must be
// chacha20poly1305.KeySize (32) bytes. The directory is created with owner-only
// permissions.
func NewFile(dir string, key []byte) (*File, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("keyring: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("keyring: create dir: %w", err)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &File{dir: dir, key: k}, nil
}

// path maps a logical key to a file name. Keys are hex-encoded so arbitrary
// strings cannot escape the directory.
func (s *File) path(key string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(key))+".bin")
}

func (s *File) Read(key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyring: read %s: %w", key, err)
	}

	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return "", err
	}
	if len(data) < aead.NonceSize() {
		return "", fmt.Errorf("keyring: %s: ciphertext too short", key)
	}
	nonce, sealed := data[:aead.NonceSize()], data[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, []byte(key))
	if err != nil {
		return "", fmt.Errorf("keyring: open %s: %w", key, err)
	}
	return string(plain), nil
}

func (s *File) Write(key, value string) error {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("keyring: nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(key))
	if err := os.WriteFile(s.path(key), sealed, 0600); err != nil {
		return fmt.Errorf("keyring: write %s: %w", key, err)
	}
	return nil
}

func (s *File) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("keyring: delete %s: %w", key, err)
	}
	return nil
}
