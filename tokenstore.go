package quill

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quillsocial/go-quill/keyring"
)

// tokensKey is the keyring slot holding the serialized token pair.
const tokensKey = "auth_tokens"

// TokenStore is the durable holder of the session's token pair. Get returns
// nil (not an error) when no tokens are stored. Writes happen only from the
// refresh coordinator and the login/logout lifecycle; feature code never
// touches the store directly.
type TokenStore interface {
	Get() (*AuthTokens, error)
	Set(AuthTokens) error
	Clear() error
}

// KVTokenStore adapts any keyring.KV into a TokenStore with a JSON codec.
type KVTokenStore struct {
	kv keyring.KV
}

// NewKVTokenStore wraps a keyring.KV.
func NewKVTokenStore(kv keyring.KV) *KVTokenStore {
	return &KVTokenStore{kv: kv}
}

// NewMemoryTokenStore creates a volatile store, the default when no platform
// storage is wired in.
func NewMemoryTokenStore() *KVTokenStore {
	return NewKVTokenStore(keyring.NewMemory())
}

func (s *KVTokenStore) Get() (*AuthTokens, error) {
	raw, err := s.kv.Read(tokensKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("token store: %w", err)
	}
	var t AuthTokens
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("token store: decode: %w", err)
	}
	if t.AccessToken == "" && t.RefreshToken == "" {
		return nil, nil
	}
	return &t, nil
}

func (s *KVTokenStore) Set(t AuthTokens) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := s.kv.Write(tokensKey, string(raw)); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	return nil
}

func (s *KVTokenStore) Clear() error {
	if err := s.kv.Delete(tokensKey); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	return nil
}
